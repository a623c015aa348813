package progress

import (
	"sync/atomic"
	"time"
)

// Conversion counts frames moving through the conversion stage.
// Workers update it atomically; observers read it through Snapshot.
type Conversion struct {
	submitted atomic.Int64
	completed atomic.Int64
	total     atomic.Int64
	start     time.Time
	now       func() time.Time
}

// Snapshot is a consistent-enough view of a Conversion at one instant.
type Snapshot struct {
	Submitted int
	Completed int
	Total     int
	Elapsed   time.Duration
}

// NewConversion starts the clock for a run expected to produce total frames.
// total may be 0 when the source cannot report a frame count.
func NewConversion(total int) *Conversion {
	return newConversionAt(total, time.Now)
}

func newConversionAt(total int, now func() time.Time) *Conversion {
	c := &Conversion{start: now(), now: now}
	c.total.Store(int64(total))
	return c
}

// Submit records that one more frame was handed to the pool.
func (c *Conversion) Submit() { c.submitted.Add(1) }

// Complete records one finished frame.
func (c *Conversion) Complete() { c.completed.Add(1) }

// SetTotal replaces the expected frame count once the real count is known.
func (c *Conversion) SetTotal(n int) { c.total.Store(int64(n)) }

// Snapshot reads all counters.
func (c *Conversion) Snapshot() Snapshot {
	return Snapshot{
		Submitted: int(c.submitted.Load()),
		Completed: int(c.completed.Load()),
		Total:     int(c.total.Load()),
		Elapsed:   c.now().Sub(c.start),
	}
}

// Estimate is the derived view shown to the user.
type Estimate struct {
	Percent   float64 // <0 when the total is unknown
	Remaining time.Duration
}

// Estimated computes percent complete and the remaining time as
// elapsed / max(completed, 1) * (total - completed).
func Estimated(s Snapshot) Estimate {
	if s.Total <= 0 {
		return Estimate{Percent: -1}
	}
	done := s.Completed
	if done > s.Total {
		done = s.Total
	}
	div := done
	if div < 1 {
		div = 1
	}
	left := s.Total - done
	return Estimate{
		Percent:   float64(done) / float64(s.Total) * 100,
		Remaining: time.Duration(float64(s.Elapsed) / float64(div) * float64(left)),
	}
}

// Update renders the snapshot as a converting-stage event.
func (s Snapshot) Update(jobID string) Update {
	est := Estimated(s)
	u := Update{
		JobID:   jobID,
		Stage:   StageConverting,
		Percent: est.Percent,
		Current: s.Completed,
		Total:   s.Total,
		Message: "Converting frames",
	}
	// No estimate until the frame count is known.
	if est.Percent >= 0 {
		eta := est.Remaining
		u.ETA = &eta
	}
	return u
}
