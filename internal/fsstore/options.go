package fsstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultDirPerm  = 0o700
	defaultFilePerm = 0o600
)

// FileOptions sets the permissions used when a write has to create the
// state directory or file. Zero values mean owner-only.
type FileOptions struct {
	DirPerm  os.FileMode
	FilePerm os.FileMode
}

func normalizeFileOptions(opts FileOptions) FileOptions {
	if opts.DirPerm == 0 {
		opts.DirPerm = defaultDirPerm
	}
	if opts.FilePerm == 0 {
		opts.FilePerm = defaultFilePerm
	}
	return opts
}

// normalizePath cleans path and rejects values that cannot name a file,
// such as "" or a trailing separator.
func normalizePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if strings.HasSuffix(path, string(filepath.Separator)) && len(path) > 1 {
		return "", fmt.Errorf("%w: %s names a directory", ErrInvalidPath, path)
	}
	return filepath.Clean(path), nil
}

func normalizeDir(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("%w: empty directory", ErrInvalidPath)
	}
	return filepath.Clean(path), nil
}
