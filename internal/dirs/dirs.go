// Package dirs resolves per-user directories for config and scratch space.
package dirs

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "asciimation"

// AppName returns the canonical application name for directory paths.
func AppName() string {
	return appName
}

// ConfigDir returns the app's configuration directory.
// - Linux: $XDG_CONFIG_HOME/asciimation or ~/.config/asciimation
// - macOS: ~/Library/Application Support/asciimation
// - Windows: %AppData%/asciimation
func ConfigDir() (string, error) {
	return userDir("XDG_CONFIG_HOME", ".config", "Application Support", os.UserConfigDir)
}

// CacheDir returns the app's cache directory.
// - Linux: $XDG_CACHE_HOME/asciimation or ~/.cache/asciimation
// - macOS: ~/Library/Caches/asciimation
// - Windows: %LocalAppData%/asciimation
func CacheDir() (string, error) {
	return userDir("XDG_CACHE_HOME", ".cache", "Caches", os.UserCacheDir)
}

func userDir(xdgVar, linuxDot, darwinLib string, fallback func() (string, error)) (string, error) {
	var base string
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv(xdgVar); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, linuxDot)
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, "Library", darwinLib)
	default:
		d, err := fallback()
		if err != nil {
			return "", err
		}
		base = d
	}
	return filepath.Join(base, appName), nil
}

// TempBaseDir returns the parent of per-run working directories.
// It falls back to the system temp dir when no cache dir is available.
func TempBaseDir() string {
	c, err := CacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appName)
	}
	return filepath.Join(c, "runs")
}

// Ensure creates the directory if it doesn't exist.
func Ensure(path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	return os.MkdirAll(path, 0o755)
}
