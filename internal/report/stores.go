package report

import (
	"context"
	"errors"
	"time"

	"horas/internal/model"
	"horas/internal/toggl"
)

var (
	ErrReportNotFound  = errors.New("report not found")
	ErrAccountNotFound = errors.New("account not found")
)

// ReportStore persists reports as whole documents. A report's sources,
// tags, entries and summary all travel with it.
type ReportStore interface {
	SaveReport(ctx context.Context, r *model.Report) error
	GetReport(ctx context.Context, id string) (*model.Report, error)
	GetReportByPublicURL(ctx context.Context, url string) (*model.Report, error)
	// ListReports returns active reports; includeDeleted adds soft-deleted ones.
	ListReports(ctx context.Context, includeDeleted bool) ([]*model.Report, error)
	// DeleteReport marks a report inactive. The document is kept.
	DeleteReport(ctx context.Context, id string) error
}

// CredentialStore persists provider accounts. Tokens are stored in their
// encrypted form and never leave the store decrypted.
type CredentialStore interface {
	SaveAccount(ctx context.Context, acct *model.Account, encryptedToken string) error
	// GetAccount returns the account and its encrypted token.
	GetAccount(ctx context.Context, id string) (*model.Account, string, error)
	ListAccounts(ctx context.Context) ([]*model.Account, error)
	DeleteAccount(ctx context.Context, id string) error
}

// Operation is one recorded sync run, kept for `horas history`.
type Operation struct {
	ID         string
	Type       string
	ReportID   string
	Status     string
	Detail     string
	StartedAt  time.Time
	FinishedAt time.Time
}

const (
	OperationSync    = "sync"
	OperationRefresh = "refresh"

	StatusOK       = "ok"
	StatusPartial  = "partial"
	StatusDegraded = "degraded"
	StatusFailed   = "failed"
)

type OperationStore interface {
	RecordOperation(ctx context.Context, op *Operation) error
	ListOperations(ctx context.Context, limit int) ([]*Operation, error)
}

// TokenCipher encrypts a provider token for storage.
type TokenCipher interface {
	EncryptToken(plain string) (string, error)
}

// TokenDecrypter recovers a provider token. Obtained by unlocking the
// configured cipher with its passphrase; valid for one session.
type TokenDecrypter interface {
	DecryptToken(encrypted string) (string, error)
}

// RangeFetcher is the provider-facing fetch surface the service needs.
// Satisfied by *toggl.SyncClient.
type RangeFetcher interface {
	FetchRange(ctx context.Context, token string, workspaceID int64, start, end time.Time) (*toggl.FetchResult, error)
}

// DirectoryFetcher retrieves the account's related data (workspaces,
// clients, projects, tags). Satisfied by *toggl.Client.
type DirectoryFetcher interface {
	FetchDirectory(ctx context.Context, token string) (*model.Directory, error)
}

// SnapshotArchive stores report snapshots taken before each save.
type SnapshotArchive interface {
	PutSnapshot(ctx context.Context, reportID, version string, data []byte) error
}
