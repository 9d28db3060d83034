package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"horas/internal/database/migrations"
	"horas/internal/model"
	"horas/internal/report"
	"horas/internal/toggl"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase backs every store the application needs: reports,
// accounts, rate-limit state, the provider's minimum date, and the sync
// operation history. Reports and account directories are stored as JSON
// documents; columns exist only for what queries filter or sort on.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

// NewSQLiteDatabase creates a new SQLite database connection.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	return &SQLiteDatabase{db: db, path: path}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{db: db, path: ""}
}

// OpenConnection opens and configures a SQLite connection with appropriate
// PRAGMAs. Exported for tools and tests that need a raw connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite ships with foreign keys OFF for backward compatibility.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Report operations

func (s *SQLiteDatabase) SaveReport(ctx context.Context, r *model.Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (id, public_url, is_active, data, created_at, last_updated)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			public_url = excluded.public_url,
			is_active = excluded.is_active,
			data = excluded.data,
			last_updated = excluded.last_updated`,
		r.ID, r.PublicURL, r.IsActive, string(data), r.CreatedAt, r.LastUpdated)
	if err != nil {
		return fmt.Errorf("saving report: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) GetReport(ctx context.Context, id string) (*model.Report, error) {
	return s.scanReport(s.db.QueryRowContext(ctx,
		"SELECT data FROM reports WHERE id = ?", id))
}

func (s *SQLiteDatabase) GetReportByPublicURL(ctx context.Context, url string) (*model.Report, error) {
	return s.scanReport(s.db.QueryRowContext(ctx,
		"SELECT data FROM reports WHERE public_url = ?", url))
}

func (s *SQLiteDatabase) scanReport(row *sql.Row) (*model.Report, error) {
	var data string
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, report.ErrReportNotFound
		}
		return nil, fmt.Errorf("loading report: %w", err)
	}

	var r model.Report
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("unmarshaling report: %w", err)
	}
	return &r, nil
}

func (s *SQLiteDatabase) ListReports(ctx context.Context, includeDeleted bool) ([]*model.Report, error) {
	query := "SELECT data FROM reports WHERE is_active = 1 ORDER BY created_at"
	if includeDeleted {
		query = "SELECT data FROM reports ORDER BY created_at"
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	var out []*model.Report
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}
		var r model.Report
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("unmarshaling report: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *SQLiteDatabase) DeleteReport(ctx context.Context, id string) error {
	r, err := s.GetReport(ctx, id)
	if err != nil {
		return err
	}
	r.IsActive = false
	return s.SaveReport(ctx, r)
}

// Account operations

func (s *SQLiteDatabase) SaveAccount(ctx context.Context, acct *model.Account, encryptedToken string) error {
	dir, err := json.Marshal(acct.Directory)
	if err != nil {
		return fmt.Errorf("marshaling directory: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, fullname, email, token_encrypted, directory, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			fullname = excluded.fullname,
			email = excluded.email,
			token_encrypted = excluded.token_encrypted,
			directory = excluded.directory,
			updated_at = excluded.updated_at`,
		acct.ID, acct.Fullname, acct.Email, encryptedToken, string(dir), acct.CreatedAt, acct.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving account: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) GetAccount(ctx context.Context, id string) (*model.Account, string, error) {
	var (
		acct      model.Account
		dir       string
		encrypted string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, fullname, email, token_encrypted, directory, created_at, updated_at
		FROM accounts WHERE id = ?`, id).
		Scan(&acct.ID, &acct.Fullname, &acct.Email, &encrypted, &dir, &acct.CreatedAt, &acct.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", report.ErrAccountNotFound
		}
		return nil, "", fmt.Errorf("loading account: %w", err)
	}

	if err := json.Unmarshal([]byte(dir), &acct.Directory); err != nil {
		return nil, "", fmt.Errorf("unmarshaling directory: %w", err)
	}
	return &acct, encrypted, nil
}

func (s *SQLiteDatabase) ListAccounts(ctx context.Context) ([]*model.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, fullname, email, directory, created_at, updated_at
		FROM accounts ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var out []*model.Account
	for rows.Next() {
		var (
			acct model.Account
			dir  string
		)
		if err := rows.Scan(&acct.ID, &acct.Fullname, &acct.Email, &dir, &acct.CreatedAt, &acct.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		if err := json.Unmarshal([]byte(dir), &acct.Directory); err != nil {
			return nil, fmt.Errorf("unmarshaling directory: %w", err)
		}
		out = append(out, &acct)
	}
	return out, rows.Err()
}

func (s *SQLiteDatabase) DeleteAccount(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return report.ErrAccountNotFound
	}
	return nil
}

// Rate limit state

func (s *SQLiteDatabase) GetThrottle(scope string) (time.Time, error) {
	var resetAt time.Time
	err := s.db.QueryRow("SELECT reset_at FROM limit_state WHERE scope = ?", scope).Scan(&resetAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("loading throttle state: %w", err)
	}
	return resetAt, nil
}

func (s *SQLiteDatabase) SetThrottle(scope string, resetAt time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO limit_state (scope, reset_at) VALUES (?, ?)
		ON CONFLICT(scope) DO UPDATE SET reset_at = excluded.reset_at`,
		scope, resetAt)
	if err != nil {
		return fmt.Errorf("saving throttle state: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) ClearThrottle(scope string) error {
	if _, err := s.db.Exec("DELETE FROM limit_state WHERE scope = ?", scope); err != nil {
		return fmt.Errorf("clearing throttle state: %w", err)
	}
	return nil
}

// Minimum queryable date

func (s *SQLiteDatabase) GetMinDate() (time.Time, time.Time, error) {
	var date, refreshedAt time.Time
	err := s.db.QueryRow("SELECT date, refreshed_at FROM min_date WHERE id = 1").Scan(&date, &refreshedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, time.Time{}, nil
		}
		return time.Time{}, time.Time{}, fmt.Errorf("loading min date: %w", err)
	}
	return date, refreshedAt, nil
}

func (s *SQLiteDatabase) SetMinDate(date, refreshedAt time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO min_date (id, date, refreshed_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET date = excluded.date, refreshed_at = excluded.refreshed_at`,
		date, refreshedAt)
	if err != nil {
		return fmt.Errorf("saving min date: %w", err)
	}
	return nil
}

// Sync operation history

func (s *SQLiteDatabase) RecordOperation(ctx context.Context, op *report.Operation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_operations (id, type, report_id, status, detail, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		op.ID, op.Type, op.ReportID, op.Status, op.Detail, op.StartedAt,
		sql.NullTime{Time: op.FinishedAt, Valid: !op.FinishedAt.IsZero()})
	if err != nil {
		return fmt.Errorf("recording operation: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) ListOperations(ctx context.Context, limit int) ([]*report.Operation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, report_id, status, detail, started_at, finished_at
		FROM sync_operations ORDER BY started_at DESC LIMIT ?`, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var out []*report.Operation
	for rows.Next() {
		var (
			op       report.Operation
			finished sql.NullTime
		)
		if err := rows.Scan(&op.ID, &op.Type, &op.ReportID, &op.Status, &op.Detail, &op.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		if finished.Valid {
			op.FinishedAt = finished.Time
		}
		out = append(out, &op)
	}
	return out, rows.Err()
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// MigrateUp brings the database schema to the latest version.
func (s *SQLiteDatabase) MigrateUp() error {
	return migrations.MigrateUp(s.db)
}

// Path returns the database file path (or ":memory:").
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var (
	_ report.ReportStore     = (*SQLiteDatabase)(nil)
	_ report.CredentialStore = (*SQLiteDatabase)(nil)
	_ report.OperationStore  = (*SQLiteDatabase)(nil)
	_ toggl.LimitStore       = (*SQLiteDatabase)(nil)
	_ toggl.MinDateStore     = (*SQLiteDatabase)(nil)
)
