package downloader

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SelectDownloadedFile finds the best media file in workdir named base.<ext>.
// Partial downloads and sidecar files are ignored.
func SelectDownloadedFile(workdir, base string) (string, error) {
	candidates, err := filepath.Glob(filepath.Join(workdir, base+".*"))
	if err != nil {
		return "", err
	}

	if len(candidates) == 0 {
		all, _ := filepath.Glob(filepath.Join(workdir, "*"))
		candidates = all
	}

	var usable []string
	for _, c := range candidates {
		if extPriority(filepath.Ext(c)) < 0 {
			continue
		}
		if fi, err := os.Stat(c); err != nil || !fi.Mode().IsRegular() {
			continue
		}
		usable = append(usable, c)
	}
	if len(usable) == 0 {
		return "", errors.New("no output file found")
	}

	sort.SliceStable(usable, func(i, j int) bool {
		pri := extPriority(filepath.Ext(usable[i]))
		prj := extPriority(filepath.Ext(usable[j]))
		if pri == prj {
			return usable[i] < usable[j]
		}
		return pri < prj
	})
	return usable[0], nil
}

// extPriority ranks container extensions (lower = better); -1 means not a video.
func extPriority(ext string) int {
	switch strings.ToLower(ext) {
	case ".mp4":
		return 0
	case ".mkv":
		return 1
	case ".webm":
		return 2
	case ".mov":
		return 3
	case ".avi":
		return 4
	case ".flv":
		return 5
	case ".part", ".ytdl", ".json", ".mp3", ".m4a", ".opus", ".txt", ".torrent":
		return -1
	default:
		return 100
	}
}

// IsVideoFile reports whether name looks like a playable container.
func IsVideoFile(name string) bool {
	p := extPriority(filepath.Ext(name))
	return p >= 0 && p < 100
}
