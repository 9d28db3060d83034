package archive

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
)

// MemoryArchive is an in-memory implementation of the Archive interface,
// useful for testing. Safe for concurrent use.
type MemoryArchive struct {
	name      string
	snapshots map[string][]byte // "reportID/version" -> data
	backups   map[string][]byte
	mu        sync.RWMutex
}

// NewMemoryArchive creates a new in-memory archive with the given name.
func NewMemoryArchive(name string) *MemoryArchive {
	return &MemoryArchive{
		name:      name,
		snapshots: make(map[string][]byte),
		backups:   make(map[string][]byte),
	}
}

func snapshotKey(reportID, version string) string {
	return reportID + "/" + version
}

func (m *MemoryArchive) PutSnapshot(ctx context.Context, reportID, version string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	m.snapshots[snapshotKey(reportID, version)] = stored
	return nil
}

func (m *MemoryArchive) GetSnapshot(ctx context.Context, reportID, version string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.snapshots[snapshotKey(reportID, version)]
	if !ok {
		return nil, fmt.Errorf("snapshot not found: %s/%s", reportID, version)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *MemoryArchive) ListVersions(ctx context.Context, reportID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := reportID + "/"
	var versions []string
	for key := range m.snapshots {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			versions = append(versions, key[len(prefix):])
		}
	}
	sort.Strings(versions)
	return versions, nil
}

func (m *MemoryArchive) PutBackup(ctx context.Context, name string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.backups[name] = data
	return nil
}

// ValidateSetup always succeeds for the in-memory archive.
func (m *MemoryArchive) ValidateSetup(ctx context.Context) error {
	return nil
}

var _ Archive = (*MemoryArchive)(nil)
