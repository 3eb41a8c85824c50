//go:build !windows

package index

import (
	"errors"
	"os"
)

// cleanupBackup removes the previous index kept during a swap.
func cleanupBackup(backupPath string) error {
	err := os.Remove(backupPath)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
