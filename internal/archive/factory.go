package archive

import (
	"context"
	"fmt"

	"horas/internal/config"
)

// NewArchiveFromConfig creates an Archive implementation based on the
// archive config type.
func NewArchiveFromConfig(ctx context.Context, cfg config.ArchiveConfig) (Archive, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryArchive(cfg.Name), nil
	case "s3":
		return NewS3Archive(ctx, cfg)
	case "filesystem", "":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem archive requires fs_root to be set")
		}
		return NewFileSystemArchive(cfg.Name, cfg.FSRoot)
	default:
		return nil, fmt.Errorf("unknown archive type: %s", cfg.Type)
	}
}
