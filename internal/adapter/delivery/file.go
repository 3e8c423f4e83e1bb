package delivery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iho/cashledger/internal/domain"
)

// FileDeliverer writes snapshot files into a directory. Each file is written
// to a temporary name and renamed, so readers never see partial content.
type FileDeliverer struct {
	dir string
}

// NewFileDeliverer creates a new FileDeliverer.
func NewFileDeliverer(dir string) *FileDeliverer {
	return &FileDeliverer{dir: dir}
}

// Deliver implements usecase.SnapshotDeliverer.
func (d *FileDeliverer) Deliver(ctx context.Context, snapshot *domain.ExportSnapshot) error {
	if err := os.MkdirAll(d.dir, 0o750); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	for _, file := range snapshot.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.write(file); err != nil {
			return fmt.Errorf("write %s: %w", file.Name, err)
		}
	}

	return nil
}

func (d *FileDeliverer) write(file domain.ExportFile) error {
	tmp, err := os.CreateTemp(d.dir, "."+file.Name+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(file.Content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), filepath.Join(d.dir, filepath.Base(file.Name)))
}
