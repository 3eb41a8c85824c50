//go:build windows

package index

import (
	"errors"
	"os"
	"time"

	"golang.org/x/sys/windows"
)

// cleanupBackup removes the previous index kept during a swap.
//
// Readers that still have the old file open (a serve process mid-reload,
// antivirus scanners) keep Windows from deleting it; retry briefly, then
// schedule deletion at next reboot.
func cleanupBackup(backupPath string) error {
	var lastErr error
	for i := 0; i < 10; i++ {
		err := os.Remove(backupPath)
		if err == nil || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		lastErr = err
		time.Sleep(100 * time.Millisecond)
	}

	p, err := windows.UTF16PtrFromString(backupPath)
	if err != nil {
		return lastErr
	}
	if err := windows.MoveFileEx(p, nil, windows.MOVEFILE_DELAY_UNTIL_REBOOT); err != nil {
		return lastErr
	}
	return nil
}
