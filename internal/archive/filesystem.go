package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileSystemArchive stores snapshots and backups as files:
//
//	<root>/
//	  snapshots/
//	    <reportID>/
//	      <version>.json
//	  backups/
//	    <name>
type FileSystemArchive struct {
	name         string
	root         string
	snapshotsDir string
	backupsDir   string
}

// NewFileSystemArchive creates a new filesystem archive rooted at the
// given path.
func NewFileSystemArchive(name, root string) (*FileSystemArchive, error) {
	snapshotsDir := filepath.Join(root, "snapshots")
	backupsDir := filepath.Join(root, "backups")

	if err := os.MkdirAll(snapshotsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshots directory: %w", err)
	}
	if err := os.MkdirAll(backupsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backups directory: %w", err)
	}

	return &FileSystemArchive{
		name:         name,
		root:         root,
		snapshotsDir: snapshotsDir,
		backupsDir:   backupsDir,
	}, nil
}

func (a *FileSystemArchive) PutSnapshot(ctx context.Context, reportID, version string, data []byte) error {
	dir := filepath.Join(a.snapshotsDir, reportID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	return a.writeFile(filepath.Join(dir, version+".json"), bytes.NewReader(data))
}

func (a *FileSystemArchive) GetSnapshot(ctx context.Context, reportID, version string) ([]byte, error) {
	path := filepath.Join(a.snapshotsDir, reportID, version+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("snapshot not found: %s/%s", reportID, version)
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return data, nil
}

func (a *FileSystemArchive) ListVersions(ctx context.Context, reportID string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(a.snapshotsDir, reportID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	var versions []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		versions = append(versions, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(versions)
	return versions, nil
}

func (a *FileSystemArchive) PutBackup(ctx context.Context, name string, r io.Reader) error {
	return a.writeFile(filepath.Join(a.backupsDir, name), r)
}

// ValidateSetup verifies that the archive directories are accessible.
func (a *FileSystemArchive) ValidateSetup(ctx context.Context) error {
	info, err := os.Stat(a.root)
	if err != nil {
		return fmt.Errorf("archive root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("archive root is not a directory: %s", a.root)
	}

	for _, dir := range []string{a.snapshotsDir, a.backupsDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("archive directory not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("archive path is not a directory: %s", dir)
		}
	}

	return nil
}

// writeFile writes data from r to the specified path using atomic write
// (temp file + rename).
func (a *FileSystemArchive) writeFile(destPath string, r io.Reader) error {
	dir := filepath.Dir(destPath)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, r); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

var _ Archive = (*FileSystemArchive)(nil)
