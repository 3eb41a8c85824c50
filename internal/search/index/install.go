package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Install validates the index at src and atomically replaces dest with it.
//
// The file is copied next to dest and renamed into place while holding an
// exclusive lock on dest+".lock", so LoadFile callers see either the old or
// the new index. The previous dest survives as dest+".bak" until the rename
// succeeds.
func Install(ctx context.Context, src, dest string) (*Index, error) {
	b, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("cannot read index %s: %w", src, err)
	}
	raw, err := decodeFile(b)
	if err != nil {
		return nil, fmt.Errorf("cannot decompress index %s: %w", src, err)
	}
	idx, err := Load(raw)
	if err != nil {
		return nil, fmt.Errorf("refusing to install %s: %w", src, err)
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create index dir %s: %w", dir, err)
	}

	l := flock.New(dest + ".lock")
	locked, err := l.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("cannot lock index %s: %w", dest, err)
	}
	if !locked {
		return nil, fmt.Errorf("another install is in progress (lock: %s.lock)", dest)
	}
	defer func() { _ = l.Unlock() }()

	tmp, err := os.CreateTemp(dir, ".docidx-install-*")
	if err != nil {
		return nil, fmt.Errorf("cannot create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("cannot write %s: %w", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("cannot sync %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	if err := swapFile(tmpPath, dest); err != nil {
		return nil, fmt.Errorf("cannot install index %s: %w", dest, err)
	}
	return idx, nil
}

// swapFile replaces dest with src by renaming, keeping a backup of dest until
// the rename has succeeded.
func swapFile(src, dest string) error {
	backup := dest + ".bak"
	_ = cleanupBackup(backup)
	if _, err := os.Stat(dest); err == nil {
		if err := os.Rename(dest, backup); err != nil {
			return err
		}
	}
	if err := os.Rename(src, dest); err != nil {
		// rollback best-effort
		if _, stErr := os.Stat(backup); stErr == nil {
			_ = os.Rename(backup, dest)
		}
		return err
	}
	return cleanupBackup(backup)
}
