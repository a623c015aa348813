package util

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// MakeTempWorkdir creates a fresh run directory named prefix-<uuid> under base.
// An empty base means os.TempDir().
func MakeTempWorkdir(base, prefix string) (string, error) {
	if base == "" {
		base = os.TempDir()
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", err
	}
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	dir := filepath.Join(base, prefix+"-"+id.String())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// EnsureDir creates the directory path if it does not exist.
func EnsureDir(path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	return os.MkdirAll(path, 0o755)
}

// RemoveIfExists deletes the file if present.
func RemoveIfExists(path string) error {
	if _, err := os.Stat(path); err == nil {
		return os.Remove(path)
	} else if os.IsNotExist(err) {
		return nil
	} else {
		return err
	}
}

// NonEmptyFile reports whether path is a regular file with content.
func NonEmptyFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular() && fi.Size() > 0
}
