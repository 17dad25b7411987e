package storage

import (
	"context"
	"io/fs"
	"path/filepath"

	"gridcast/internal/core/ports"
)

// DiskQuota estimates available recording space by walking the recordings
// root and subtracting used bytes from a configured budget. Best-effort and
// advisory: walk errors on individual entries are skipped.
type DiskQuota struct {
	root   string
	budget int64
}

var _ ports.StorageQuota = (*DiskQuota)(nil)

func NewDiskQuota(root string, budgetBytes int64) *DiskQuota {
	return &DiskQuota{root: root, budget: budgetBytes}
}

func (q *DiskQuota) Available(ctx context.Context) (int64, error) {
	var used int64
	err := filepath.WalkDir(q.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		used += info.Size()
		return nil
	})
	if err != nil {
		return 0, err
	}

	avail := q.budget - used
	if avail < 0 {
		avail = 0
	}
	return avail, nil
}
