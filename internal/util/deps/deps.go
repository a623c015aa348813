package deps

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// ErrMissing marks a required external tool that could not be found.
var ErrMissing = errors.New("missing dependency")

// FindDownloader returns the path to yt-dlp or youtube-dl.
// If customPath is non-empty, it tries that path or looks it up in PATH.
func FindDownloader(customPath string) (string, error) {
	if customPath != "" {
		if _, err := os.Stat(customPath); err == nil {
			return customPath, nil
		}
		if p, err := exec.LookPath(customPath); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("%w: could not find downloader at %q", ErrMissing, customPath)
	}
	if p, err := exec.LookPath("yt-dlp"); err == nil {
		return p, nil
	}
	if p, err := exec.LookPath("youtube-dl"); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("%w: could not find yt-dlp or youtube-dl in PATH, please install yt-dlp", ErrMissing)
}

// FindFFmpeg returns the path to the ffmpeg binary in PATH.
func FindFFmpeg() (string, error) {
	return find("ffmpeg")
}

// FindFFprobe returns the path to ffprobe, which the frame decoder needs for stream metadata.
func FindFFprobe() (string, error) {
	return find("ffprobe")
}

func find(name string) (string, error) {
	if p, err := exec.LookPath(name); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("%w: could not find %s in PATH, please install ffmpeg", ErrMissing, name)
}
