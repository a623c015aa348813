package extractor

import (
	"strconv"
	"strings"

	"asciimation/internal/progress"
)

// ProgressState accumulates ffmpeg -progress key=value lines between markers.
type ProgressState struct {
	OutTimeUs int64
	SpeedStr  string
	TotalSize int64
}

// UpdateFromLine records one line and returns an update on each progress= marker.
func (ps *ProgressState) UpdateFromLine(line, jobID string, durationSec float64) (u progress.Update, ok bool) {
	key, val, found := strings.Cut(line, "=")
	if !found {
		return progress.Update{}, false
	}
	key = strings.TrimSpace(key)
	val = strings.TrimSpace(val)

	switch key {
	case "out_time_us", "out_time_ms":
		// Both keys carry microseconds.
		if v, err := strconv.ParseInt(val, 10, 64); err == nil {
			ps.OutTimeUs = v
		}
	case "speed":
		ps.SpeedStr = val
	case "total_size":
		if v, err := strconv.ParseInt(val, 10, 64); err == nil {
			ps.TotalSize = v
		}
	case "progress":
		percent := -1.0
		if durationSec > 0 {
			percent = float64(ps.OutTimeUs) / (durationSec * 1_000_000) * 100
			if percent > 100 {
				percent = 100
			}
		}
		if val == "end" {
			percent = 100
		}

		var speed *string
		if ps.SpeedStr != "" && ps.SpeedStr != "N/A" {
			s := ps.SpeedStr
			speed = &s
		}
		var bytes *int64
		if ps.TotalSize > 0 {
			b := ps.TotalSize
			bytes = &b
		}
		return progress.Update{
			JobID:   jobID,
			Stage:   progress.StageExtracting,
			Percent: percent,
			Speed:   speed,
			Bytes:   bytes,
			Message: "Extracting audio",
		}, true
	}
	return progress.Update{}, false
}
