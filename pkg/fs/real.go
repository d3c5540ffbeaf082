package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// Real implements [FS] on the OS filesystem.
type Real struct {
	filePerm os.FileMode
	dirPerm  os.FileMode
}

// NewReal returns a [Real] using [DefaultFilePerm] and [DefaultDirPerm].
func NewReal() *Real {
	return &Real{filePerm: DefaultFilePerm, dirPerm: DefaultDirPerm}
}

// WithPerm returns a copy of r that creates files with filePerm and
// directories with dirPerm.
func (r *Real) WithPerm(filePerm, dirPerm os.FileMode) *Real {
	return &Real{filePerm: filePerm, dirPerm: dirPerm}
}

// ReadFile reads path with [os.ReadFile].
func (r *Real) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile writes a complete temp file next to path, with its final mode,
// and renames it over path through [atomic.ReplaceFile]. Readers see either
// the old file or the new one with its final mode.
func (r *Real) WriteFile(path string, data []byte) error {
	tmpPath, err := r.writeTemp(path, data)
	if err != nil {
		return err
	}

	err = atomic.ReplaceFile(tmpPath, path)
	if err != nil {
		_ = os.Remove(tmpPath)

		return fmt.Errorf("atomic replace: %w", err)
	}

	return nil
}

// CreateFile writes a complete temp file next to path and hard-links it to
// path. The link fails if path exists, so the check and the create are one
// step. The filesystem must support hard links.
func (r *Real) CreateFile(path string, data []byte) error {
	tmpPath, err := r.writeTemp(path, data)
	if err != nil {
		return err
	}

	defer func() { _ = os.Remove(tmpPath) }()

	return os.Link(tmpPath, path)
}

// writeTemp creates path's directory and a synced temp file beside path
// holding data with the configured file mode. The caller owns the temp file.
func (r *Real) writeTemp(path string, data []byte) (string, error) {
	dir := filepath.Dir(path)

	err := os.MkdirAll(dir, r.dirPerm)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", err
	}

	tmpPath := tmp.Name()

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Chmod(r.filePerm)
	}

	if err == nil {
		err = tmp.Sync()
	}

	err = errors.Join(err, tmp.Close())
	if err != nil {
		_ = os.Remove(tmpPath)

		return "", fmt.Errorf("write temp file: %w", err)
	}

	return tmpPath, nil
}

// Remove deletes path. A missing file is not an error.
func (r *Real) Remove(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return err
}

var _ FS = (*Real)(nil)
