package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"horas/internal/model"
	"horas/internal/toggl"
)

// Service is the application core: it owns report lifecycle, account
// management and the sync pipeline that pulls provider entries into
// reports. All dependencies are injected; the service itself holds no
// provider or storage specifics.
type Service struct {
	reports  ReportStore
	accounts CredentialStore
	ops      OperationStore
	fetcher  RangeFetcher
	dir      DirectoryFetcher
	archive  SnapshotArchive
	enricher *Enricher
	recon    *Reconciler
	clock    Clock
	ids      IDGenerator
	logger   Logger
}

func NewService(reports ReportStore, accounts CredentialStore, ops OperationStore, fetcher RangeFetcher, dir DirectoryFetcher, archive SnapshotArchive, clock Clock, ids IDGenerator, logger Logger) *Service {
	if clock == nil {
		clock = RealClock{}
	}
	if ids == nil {
		ids = UUIDGenerator{}
	}
	if logger == nil {
		logger = NopLogger{}
	}
	return &Service{
		reports:  reports,
		accounts: accounts,
		ops:      ops,
		fetcher:  fetcher,
		dir:      dir,
		archive:  archive,
		enricher: NewEnricher(logger),
		recon:    NewReconciler(logger),
		clock:    clock,
		ids:      ids,
		logger:   logger,
	}
}

// AddAccount validates a provider token by fetching the account's
// directory, then stores the account with its token encrypted.
func (s *Service) AddAccount(ctx context.Context, token string, cipher TokenCipher) (*model.Account, error) {
	dir, err := s.dir.FetchDirectory(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("validating token: %w", err)
	}

	encrypted, err := cipher.EncryptToken(token)
	if err != nil {
		return nil, fmt.Errorf("encrypting token: %w", err)
	}

	now := s.clock.Now()
	acct := &model.Account{
		ID:        s.ids.NewID(),
		Fullname:  dir.Fullname,
		Email:     dir.Email,
		Directory: *dir,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.accounts.SaveAccount(ctx, acct, encrypted); err != nil {
		return nil, fmt.Errorf("saving account: %w", err)
	}
	s.logger.Info("account added", "account", acct.ID, "email", acct.Email)
	return acct, nil
}

func (s *Service) ListAccounts(ctx context.Context) ([]*model.Account, error) {
	return s.accounts.ListAccounts(ctx)
}

func (s *Service) RemoveAccount(ctx context.Context, id string) error {
	return s.accounts.DeleteAccount(ctx, id)
}

// RefreshAccount re-fetches the account's directory so name lookups stay
// current. Requires an unlocked decrypter.
func (s *Service) RefreshAccount(ctx context.Context, id string, decrypter TokenDecrypter) (*model.Account, error) {
	acct, encrypted, err := s.accounts.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	op := &Operation{
		ID:        s.ids.NewID(),
		Type:      OperationRefresh,
		StartedAt: s.clock.Now(),
		Detail:    fmt.Sprintf("account %s", id),
	}
	token, err := decrypter.DecryptToken(encrypted)
	if err != nil {
		return nil, fmt.Errorf("decrypting token: %w", err)
	}
	dir, err := s.dir.FetchDirectory(ctx, token)
	if err != nil {
		op.Status = StatusFailed
		op.FinishedAt = s.clock.Now()
		s.record(ctx, op)
		return nil, fmt.Errorf("fetching directory: %w", err)
	}

	acct.Fullname = dir.Fullname
	acct.Email = dir.Email
	acct.Directory = *dir
	acct.UpdatedAt = s.clock.Now()
	if err := s.accounts.SaveAccount(ctx, acct, encrypted); err != nil {
		return nil, fmt.Errorf("saving account: %w", err)
	}
	op.Status = StatusOK
	op.FinishedAt = s.clock.Now()
	s.record(ctx, op)
	return acct, nil
}

// CreateReport registers a new hours package. The public URL token is
// generated here and never changes.
func (s *Service) CreateReport(ctx context.Context, name, packageID string, totalHours, price float64, startDate, endDate string) (*model.Report, error) {
	if name == "" {
		return nil, fmt.Errorf("report name is required")
	}
	if totalHours <= 0 {
		return nil, fmt.Errorf("total hours must be positive")
	}
	if _, err := time.Parse("2006-01-02", startDate); err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", startDate, err)
	}
	if endDate != "" {
		if _, err := time.Parse("2006-01-02", endDate); err != nil {
			return nil, fmt.Errorf("invalid end date %q: %w", endDate, err)
		}
	}

	r := &model.Report{
		ID:          s.ids.NewID(),
		Name:        name,
		PackageID:   packageID,
		TotalHours:  totalHours,
		Price:       price,
		StartDate:   startDate,
		EndDate:     endDate,
		CreatedAt:   s.clock.Now(),
		LastUpdated: s.clock.Now(),
		PublicURL:   s.ids.NewID(),
		IsActive:    true,
		Entries:     []model.TimeEntry{},
	}
	if err := s.reports.SaveReport(ctx, r); err != nil {
		return nil, fmt.Errorf("saving report: %w", err)
	}
	s.logger.Info("report created", "report", r.ID, "name", r.Name)
	return r, nil
}

// GetReport resolves a report by id or by public URL token.
func (s *Service) GetReport(ctx context.Context, ref string) (*model.Report, error) {
	r, err := s.reports.GetReport(ctx, ref)
	if err == nil {
		return r, nil
	}
	return s.reports.GetReportByPublicURL(ctx, ref)
}

func (s *Service) ListReports(ctx context.Context, includeDeleted bool) ([]*model.Report, error) {
	return s.reports.ListReports(ctx, includeDeleted)
}

func (s *Service) DeleteReport(ctx context.Context, ref string) error {
	r, err := s.GetReport(ctx, ref)
	if err != nil {
		return err
	}
	return s.reports.DeleteReport(ctx, r.ID)
}

// AddSource attaches a source config to a report. The account must exist;
// workspace, client and project filters are taken as given.
func (s *Service) AddSource(ctx context.Context, reportRef string, cfg model.SourceConfig) (*model.Report, error) {
	r, err := s.GetReport(ctx, reportRef)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.accounts.GetAccount(ctx, cfg.AccountID); err != nil {
		return nil, fmt.Errorf("account %s: %w", cfg.AccountID, err)
	}
	cfg.ID = s.ids.NewID()
	r.Configs = append(r.Configs, cfg)
	r.LastUpdated = s.clock.Now()
	if err := s.reports.SaveReport(ctx, r); err != nil {
		return nil, fmt.Errorf("saving report: %w", err)
	}
	return r, nil
}

func (s *Service) RemoveSource(ctx context.Context, reportRef, configID string) (*model.Report, error) {
	r, err := s.GetReport(ctx, reportRef)
	if err != nil {
		return nil, err
	}
	kept := r.Configs[:0]
	found := false
	for _, c := range r.Configs {
		if c.ID == configID {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return nil, fmt.Errorf("source config %s not found on report %s", configID, r.ID)
	}
	r.Configs = kept
	r.LastUpdated = s.clock.Now()
	if err := s.reports.SaveReport(ctx, r); err != nil {
		return nil, fmt.Errorf("saving report: %w", err)
	}
	return r, nil
}

// AddTag adds a report tag in active status. Any previously active tag is
// demoted to completed; entries carrying completed tags still count.
func (s *Service) AddTag(ctx context.Context, reportRef, name string) (*model.Report, error) {
	if name == "" {
		return nil, fmt.Errorf("tag name is required")
	}
	r, err := s.GetReport(ctx, reportRef)
	if err != nil {
		return nil, err
	}
	for _, t := range r.Tags {
		if model.NormalizeTag(t.Name) == model.NormalizeTag(name) {
			return nil, fmt.Errorf("tag %q already exists on report %s", name, r.ID)
		}
	}
	demoteActive(r)
	r.Tags = append(r.Tags, model.ReportTag{Name: name, Status: model.TagActive})
	return r, s.saveTouched(ctx, r)
}

func (s *Service) CompleteTag(ctx context.Context, reportRef, name string) (*model.Report, error) {
	return s.setTagStatus(ctx, reportRef, name, model.TagCompleted)
}

// ActivateTag marks a tag active, demoting whichever tag held that status.
func (s *Service) ActivateTag(ctx context.Context, reportRef, name string) (*model.Report, error) {
	return s.setTagStatus(ctx, reportRef, name, model.TagActive)
}

func (s *Service) setTagStatus(ctx context.Context, reportRef, name, status string) (*model.Report, error) {
	r, err := s.GetReport(ctx, reportRef)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i, t := range r.Tags {
		if model.NormalizeTag(t.Name) == model.NormalizeTag(name) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("tag %q not found on report %s", name, r.ID)
	}
	if status == model.TagActive {
		demoteActive(r)
	}
	r.Tags[idx].Status = status
	return r, s.saveTouched(ctx, r)
}

func demoteActive(r *model.Report) {
	for i := range r.Tags {
		if r.Tags[i].Status == model.TagActive {
			r.Tags[i].Status = model.TagCompleted
		}
	}
}

// ImportEntries appends manually recorded entries to a report. Imported
// entries get negative ids, continuing downward from any already present,
// so they can never collide with provider ids.
func (s *Service) ImportEntries(ctx context.Context, reportRef string, entries []model.TimeEntry) (*model.Report, error) {
	r, err := s.GetReport(ctx, reportRef)
	if err != nil {
		return nil, err
	}

	next := int64(-1)
	for _, e := range r.Entries {
		if e.ID <= next {
			next = e.ID - 1
		}
	}
	for _, e := range entries {
		e.ID = next
		next--
		r.Entries = append(r.Entries, e)
	}

	r.Summary = Summarize(r.Entries, r.TotalHours, s.clock.Now())
	if err := s.saveTouched(ctx, r); err != nil {
		return nil, err
	}
	s.logger.Info("entries imported", "report", r.ID, "count", len(entries))
	return r, nil
}

// Sync runs the full pipeline for one report: fetch every source config's
// window, enrich, reconcile against the stored entries, recompute the
// summary and save. A snapshot of the report as it stood before the save
// is archived first.
//
// Failures degrade rather than abort: a config that cannot be fetched
// keeps its previously stored entries, and the operation records partial
// or degraded status accordingly. Sync fails outright only when the
// report cannot be loaded or saved, or when every config failed.
func (s *Service) Sync(ctx context.Context, reportRef string, decrypter TokenDecrypter) (*Operation, error) {
	r, err := s.GetReport(ctx, reportRef)
	if err != nil {
		return nil, err
	}
	if !r.IsActive {
		return nil, fmt.Errorf("report %s is not active", r.ID)
	}
	if len(r.Configs) == 0 {
		return nil, fmt.Errorf("report %s has no source configs", r.ID)
	}

	op := &Operation{
		ID:        s.ids.NewID(),
		Type:      OperationSync,
		ReportID:  r.ID,
		StartedAt: s.clock.Now(),
	}

	start, err := time.Parse("2006-01-02", r.StartDate)
	if err != nil {
		return nil, fmt.Errorf("report %s has invalid start date %q: %w", r.ID, r.StartDate, err)
	}
	end := s.clock.Now()

	batches := make([]ConfigBatch, 0, len(r.Configs))
	failed := 0
	partial := false
	for _, cfg := range r.Configs {
		batch := s.fetchConfig(ctx, cfg, start, end, decrypter)
		if batch.Err != nil {
			failed++
		} else if len(batch.partialFailures) > 0 {
			partial = true
		}
		batches = append(batches, batch)
	}
	if failed == len(batches) {
		op.Status = StatusFailed
		op.Detail = "all source configs failed"
		op.FinishedAt = s.clock.Now()
		s.record(ctx, op)
		return op, fmt.Errorf("sync of report %s: all %d source configs failed", r.ID, failed)
	}

	if err := s.snapshot(ctx, r); err != nil {
		// Losing a snapshot is not worth losing the sync.
		s.logger.Error("archiving snapshot failed", "report", r.ID, "error", err)
	}

	r.Entries = s.recon.Reconcile(r.Entries, batches, r.Tags)
	r.Summary = Summarize(r.Entries, r.TotalHours, s.clock.Now())
	if err := s.saveTouched(ctx, r); err != nil {
		op.Status = StatusFailed
		op.Detail = err.Error()
		op.FinishedAt = s.clock.Now()
		s.record(ctx, op)
		return op, err
	}

	switch {
	case failed > 0:
		op.Status = StatusDegraded
		op.Detail = fmt.Sprintf("%d of %d source configs failed", failed, len(batches))
	case partial:
		op.Status = StatusPartial
		op.Detail = "some date chunks could not be fetched"
	default:
		op.Status = StatusOK
	}
	op.FinishedAt = s.clock.Now()
	s.record(ctx, op)
	s.logger.Info("report synced", "report", r.ID, "status", op.Status, "entries", len(r.Entries))
	return op, nil
}

// SyncAll syncs every active report, continuing past individual failures.
func (s *Service) SyncAll(ctx context.Context, decrypter TokenDecrypter) ([]*Operation, error) {
	reports, err := s.reports.ListReports(ctx, false)
	if err != nil {
		return nil, err
	}
	var ops []*Operation
	var firstErr error
	for _, r := range reports {
		if len(r.Configs) == 0 {
			continue
		}
		op, err := s.Sync(ctx, r.ID, decrypter)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if op != nil {
			ops = append(ops, op)
		}
	}
	return ops, firstErr
}

func (s *Service) History(ctx context.Context, limit int) ([]*Operation, error) {
	return s.ops.ListOperations(ctx, limit)
}

func (s *Service) fetchConfig(ctx context.Context, cfg model.SourceConfig, start, end time.Time, decrypter TokenDecrypter) ConfigBatch {
	batch := ConfigBatch{Config: cfg}

	acct, encrypted, err := s.accounts.GetAccount(ctx, cfg.AccountID)
	if err != nil {
		batch.Err = &toggl.ConfigError{ConfigID: cfg.ID, Reason: fmt.Sprintf("loading account: %v", err)}
		return batch
	}
	batch.Account = acct

	token, err := decrypter.DecryptToken(encrypted)
	if err != nil {
		batch.Err = &toggl.ConfigError{ConfigID: cfg.ID, Reason: fmt.Sprintf("decrypting token: %v", err)}
		return batch
	}

	ws := ResolveWorkspace(cfg, acct)
	result, err := s.fetcher.FetchRange(ctx, token, ws, start, end)
	if err != nil {
		batch.Err = err
		return batch
	}
	for _, f := range result.Failed {
		batch.partialFailures = append(batch.partialFailures, f)
		s.logger.Warn("chunk lost during sync", "config", cfg.ID, "range", f.Range.String(), "error", f.Err)
	}
	batch.Entries = s.enricher.Enrich(result.Entries, acct)
	return batch
}

func (s *Service) snapshot(ctx context.Context, r *model.Report) error {
	if s.archive == nil {
		return nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	version := s.clock.Now().UTC().Format("20060102T150405Z")
	return s.archive.PutSnapshot(ctx, r.ID, version, data)
}

func (s *Service) saveTouched(ctx context.Context, r *model.Report) error {
	r.LastUpdated = s.clock.Now()
	if err := s.reports.SaveReport(ctx, r); err != nil {
		return fmt.Errorf("saving report: %w", err)
	}
	return nil
}

func (s *Service) record(ctx context.Context, op *Operation) {
	if s.ops == nil {
		return
	}
	if err := s.ops.RecordOperation(ctx, op); err != nil {
		s.logger.Error("recording operation failed", "operation", op.ID, "error", err)
	}
}
