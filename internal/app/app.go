package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"horas/internal/archive"
	"horas/internal/config"
	"horas/internal/database"
	"horas/internal/encryption"
	"horas/internal/report"
	"horas/internal/toggl"
)

// HorasApp is the application layer between the CLI and the report
// service. It constructs all dependencies from config and manages the
// database lifecycle on Close. Commands that change data mark the app
// mutated; Close then snapshots the database into the archive.
type HorasApp struct {
	cfg      *config.Config
	db       *database.SQLiteDatabase
	archive  archive.Archive
	cipher   encryption.Cipher
	client   *toggl.Client
	tracker  *toggl.LimitTracker
	minDates *toggl.MinDateCache
	service  *report.Service
	logFile  *os.File
	mutated  bool
}

// NewHorasApp creates a fully wired HorasApp from the given config.
// operation identifies the CLI command being run (e.g. "Sync", "AddAccount").
// The caller must call Close when done.
func NewHorasApp(ctx context.Context, cfg *config.Config, operation string) (*HorasApp, error) {
	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.HostID)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if cfg.Database.Type != "memory" {
		if err := db.CheckMigrations(); err != nil {
			// A brand new database has no schema yet; bring it up. Anything
			// migrations can't fix (dirty state, version ahead) errors out.
			if merr := db.MigrateUp(); merr != nil {
				db.Close()
				return nil, fmt.Errorf("database schema out of date (%v): %w", err, merr)
			}
		}
	}

	arch, err := archive.NewArchiveFromConfig(ctx, cfg.Archive)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating archive: %w", err)
	}

	cipher, err := encryption.NewCipherFromConfig(cfg.Encryption)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	log := &slogAdapter{l: logger}
	log.Info("starting", "operation", operation)

	client := toggl.NewClient(cfg.Provider.BaseURL)
	tracker := toggl.NewLimitTracker(db, nil)
	minDates := toggl.NewMinDateCache(db, nil)
	sync := toggl.NewSyncClient(client, tracker, minDates, nil, nil, log,
		cfg.Provider.MaxSpanDays, cfg.Provider.MaxRetries)

	svc := report.NewService(db, db, db, sync, client, arch,
		report.RealClock{}, report.UUIDGenerator{}, log)

	return &HorasApp{
		cfg:      cfg,
		db:       db,
		archive:  arch,
		cipher:   cipher,
		client:   client,
		tracker:  tracker,
		minDates: minDates,
		service:  svc,
		logFile:  logFile,
	}, nil
}

// Service exposes the report service to CLI commands.
func (a *HorasApp) Service() *report.Service { return a.service }

// Cipher exposes the token cipher for setup and unlock prompts.
func (a *HorasApp) Cipher() encryption.Cipher { return a.cipher }

// Archive exposes the snapshot archive for validation commands.
func (a *HorasApp) Archive() archive.Archive { return a.archive }

// MarkMutated flags that this invocation changed data; Close will back up
// the database to the archive.
func (a *HorasApp) MarkMutated() { a.mutated = true }

// LimitStatus reports the remaining throttle wait per quota scope.
// A zero duration means the scope is not throttled.
func (a *HorasApp) LimitStatus() (map[toggl.Scope]time.Duration, error) {
	out := make(map[toggl.Scope]time.Duration)
	for _, scope := range []toggl.Scope{toggl.ScopeIdentity, toggl.ScopeWorkspace} {
		throttled, err := a.tracker.IsThrottled(scope)
		if err != nil {
			return nil, err
		}
		if !throttled {
			out[scope] = 0
			continue
		}
		wait, err := a.tracker.TimeUntilReset(scope)
		if err != nil {
			return nil, err
		}
		out[scope] = wait
	}
	return out, nil
}

// MinDate returns the earliest start date the provider currently accepts,
// from the cache or its fallback.
func (a *HorasApp) MinDate() time.Time { return a.minDates.Get() }

// Close finalizes the invocation and releases all resources. After a
// mutating command, the database is snapshotted with VACUUM INTO and the
// copy is uploaded to the archive.
func (a *HorasApp) Close() error {
	var firstErr error

	if a.mutated && a.cfg.Database.Type != "memory" {
		if err := a.backupDatabase(); err != nil {
			firstErr = err
		}
	}

	if err := a.db.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}

func (a *HorasApp) backupDatabase() error {
	tmpFile, err := os.CreateTemp("", "horas-db-backup-*.db")
	if err != nil {
		return fmt.Errorf("creating temp file for db backup: %w", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	os.Remove(tmpPath) // VACUUM INTO refuses to overwrite
	defer os.Remove(tmpPath)

	if err := a.db.BackupTo(tmpPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}

	f, err := os.Open(tmpPath)
	if err != nil {
		return fmt.Errorf("opening db backup for upload: %w", err)
	}
	defer f.Close()

	if err := a.archive.PutBackup(context.Background(), a.cfg.HostID+".db", f); err != nil {
		return fmt.Errorf("uploading db backup to archive: %w", err)
	}
	return nil
}
