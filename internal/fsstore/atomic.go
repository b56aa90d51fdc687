package fsstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// rename is swapped in tests to simulate a crash between the temp write and
// the commit.
var rename = os.Rename

func EnsureDir(path string, perm os.FileMode) error {
	normalized, err := normalizeDir(path)
	if err != nil {
		return err
	}
	if perm == 0 {
		perm = defaultDirPerm
	}
	if err := os.MkdirAll(normalized, perm); err != nil {
		return fmt.Errorf("fsstore ensure dir %s: %w", normalized, err)
	}
	return nil
}

// writeAtomic commits content to path so that readers only ever observe the
// previous complete file or the new complete file.
func writeAtomic(path string, content []byte, opts FileOptions) error {
	normalizedPath, err := normalizePath(path)
	if err != nil {
		return err
	}
	opts = normalizeFileOptions(opts)

	parentDir := filepath.Dir(normalizedPath)
	if err := EnsureDir(parentDir, opts.DirPerm); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(parentDir, tempPattern(normalizedPath))
	if err != nil {
		return fmt.Errorf("%w: create temp for %s: %v", ErrAtomicWriteFailed, normalizedPath, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("%w: write temp for %s: %v", ErrAtomicWriteFailed, normalizedPath, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("%w: sync temp for %s: %v", ErrAtomicWriteFailed, normalizedPath, err)
	}
	if err := tmp.Chmod(opts.FilePerm); err != nil {
		return fmt.Errorf("%w: chmod temp for %s: %v", ErrAtomicWriteFailed, normalizedPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp for %s: %v", ErrAtomicWriteFailed, normalizedPath, err)
	}
	if err := rename(tmpPath, normalizedPath); err != nil {
		return fmt.Errorf("%w: rename temp for %s: %v", ErrAtomicWriteFailed, normalizedPath, err)
	}
	committed = true

	// Best effort directory sync for durability; ignore failures.
	if dirFD, err := os.Open(parentDir); err == nil {
		_ = dirFD.Sync()
		_ = dirFD.Close()
	}
	return nil
}

// RemoveStaleTemps deletes temp files a killed process left next to path.
// The committed file itself is never touched.
func RemoveStaleTemps(path string) (int, error) {
	normalizedPath, err := normalizePath(path)
	if err != nil {
		return 0, err
	}
	matches, err := filepath.Glob(filepath.Join(filepath.Dir(normalizedPath), tempPattern(normalizedPath)))
	if err != nil {
		return 0, fmt.Errorf("fsstore glob temps for %s: %w", normalizedPath, err)
	}
	removed := 0
	for _, m := range matches {
		if m == normalizedPath || !strings.HasPrefix(filepath.Base(m), filepath.Base(normalizedPath)+".tmp.") {
			continue
		}
		if err := os.Remove(m); err == nil {
			removed++
		}
	}
	return removed, nil
}

func tempPattern(path string) string {
	return filepath.Base(path) + ".tmp.*"
}
