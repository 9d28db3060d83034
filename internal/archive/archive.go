package archive

import (
	"context"
	"io"
)

// Archive is durable secondary storage for report snapshots and database
// backups. Snapshots are immutable: one object per report version, never
// overwritten in normal operation.
type Archive interface {
	// PutSnapshot stores one report snapshot under reportID/version.
	PutSnapshot(ctx context.Context, reportID, version string, data []byte) error
	// GetSnapshot retrieves a stored snapshot.
	GetSnapshot(ctx context.Context, reportID, version string) ([]byte, error)
	// ListVersions returns the stored versions for a report, oldest first.
	ListVersions(ctx context.Context, reportID string) ([]string, error)
	// PutBackup stores a database backup under the given name.
	PutBackup(ctx context.Context, name string, r io.Reader) error
	// ValidateSetup verifies the archive is reachable and writable enough
	// to be trusted with snapshots.
	ValidateSetup(ctx context.Context) error
}
