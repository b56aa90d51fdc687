//go:build windows

package fsstore

import (
	"errors"
	"fmt"
	"os"
)

func acquireLockFile(lockPath string) (*os.File, error) {
	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, defaultFilePerm)
	if err == nil {
		return file, nil
	}
	if errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("%w: %s", ErrLockHeld, lockPath)
	}
	return nil, fmt.Errorf("%w: open %s: %v", ErrLockUnavailable, lockPath, err)
}

func releaseLockFile(file *os.File, lockPath string) error {
	err := file.Close()
	_ = os.Remove(lockPath)
	return err
}
