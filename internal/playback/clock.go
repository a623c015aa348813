package playback

import (
	"fmt"
	"math"
	"time"

	"asciimation/internal/model"
)

// Clock is the nominal frame rate of the source.
type Clock struct {
	FPS float64
}

// NewClock rejects non-positive or non-finite rates.
func NewClock(fps float64) (Clock, error) {
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return Clock{}, model.Preconditionf("frame rate must be positive, got %v", fps)
	}
	return Clock{FPS: fps}, nil
}

// Interval is the delay between two frames, 1/FPS.
func (c Clock) Interval() time.Duration {
	return time.Duration(float64(time.Second) / c.FPS)
}

// Offset is the time at which frame n (1-based) should have finished showing.
func (c Clock) Offset(n int) time.Duration {
	return time.Duration(float64(n) * float64(time.Second) / c.FPS)
}

// Whole is the frame rate rounded to an integer, at least 1.
func (c Clock) Whole() int {
	r := int(math.Round(c.FPS))
	if r < 1 {
		return 1
	}
	return r
}

// Title renders "(m:ss/m:ss) index/total" where seconds are frames / round(fps).
func Title(index, total, fps int) string {
	if fps < 1 {
		fps = 1
	}
	el := index / fps
	all := total / fps
	return fmt.Sprintf("(%d:%02d/%d:%02d) %d/%d", el/60, el%60, all/60, all%60, index, total)
}
