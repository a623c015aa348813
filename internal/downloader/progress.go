package downloader

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"asciimation/internal/progress"
)

// ParseProgress parses yt-dlp progress lines such as
// "[download]  45.2% of 10.00MiB at  1.50MiB/s ETA 00:04".
// Lines without a percentage (destination notices, merges) are not progress.
func ParseProgress(line, jobID string) (u progress.Update, ok bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "[download]") {
		return progress.Update{}, false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(line, "[download]"))

	idx := strings.Index(rest, "%")
	if idx == -1 {
		return progress.Update{}, false
	}
	percent, err := strconv.ParseFloat(strings.TrimSpace(rest[:idx]), 64)
	if err != nil {
		return progress.Update{}, false
	}

	var speed *string
	if i := strings.Index(rest, " at "); i != -1 {
		if f := strings.Fields(rest[i+4:]); len(f) > 0 && f[0] != "Unknown" {
			s := f[0]
			speed = &s
		}
	}

	var eta *time.Duration
	if i := strings.Index(rest, "ETA "); i != -1 {
		if f := strings.Fields(rest[i+4:]); len(f) > 0 {
			if d, err := parseETA(f[0]); err == nil {
				eta = &d
			}
		}
	}

	return progress.Update{
		JobID:   jobID,
		Stage:   progress.StageDownloading,
		Percent: percent,
		Speed:   speed,
		ETA:     eta,
		Message: "Downloading",
	}, true
}

// parseETA parses "SS", "MM:SS" or "HH:MM:SS".
func parseETA(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid ETA %q", s)
	}
	var total time.Duration
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid ETA %q", s)
		}
		total = total*60 + time.Duration(n)*time.Second
	}
	return total, nil
}
