// Package playback paces converted frames onto the terminal.
package playback

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"asciimation/internal/ascii"
	"asciimation/internal/audio"
	"asciimation/internal/terminal"
)

// State is the lifecycle of a Scheduler.
type State int32

const (
	NotStarted State = iota
	Running
	Finished
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Running:
		return "running"
	case Finished:
		return "finished"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ErrAlreadyStarted is returned when Play is called twice.
var ErrAlreadyStarted = errors.New("playback already started")

// Scheduler writes frames at a fixed cadence while audio runs in the background.
type Scheduler struct {
	out         io.Writer
	clock       Clock
	window      terminal.Window
	player      audio.Player
	geom        ascii.Geometry
	total       int
	resizeEvery int
	grace       time.Duration
	log         zerolog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	state atomic.Int32
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithWindow sets the terminal used for titles and resizing.
func WithWindow(w terminal.Window) Option {
	return func(s *Scheduler) {
		s.window = w
	}
}

// WithAudio sets the track started alongside the first frame.
func WithAudio(p audio.Player) Option {
	return func(s *Scheduler) {
		s.player = p
	}
}

// WithGeometry sets the window size requested on resize.
func WithGeometry(g ascii.Geometry) Option {
	return func(s *Scheduler) {
		s.geom = g
	}
}

// WithTotal overrides the frame total shown in the title.
func WithTotal(n int) Option {
	return func(s *Scheduler) {
		s.total = n
	}
}

// WithResizeEvery resizes the window every n frames; 0 disables it.
func WithResizeEvery(n int) Option {
	return func(s *Scheduler) {
		s.resizeEvery = n
	}
}

// WithGrace bounds how long Play waits for audio after the last frame.
func WithGrace(d time.Duration) Option {
	return func(s *Scheduler) {
		s.grace = d
	}
}

// WithLogger sets the logger for swallowed warnings.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scheduler) {
		s.log = l
	}
}

// New returns a Scheduler writing to out at clock's rate.
func New(out io.Writer, clock Clock, opts ...Option) *Scheduler {
	s := &Scheduler{
		out:   out,
		clock: clock,
		grace: time.Second,
		log:   zerolog.Nop(),
		now:   time.Now,
		sleep: sleepContext,
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With().Str("component", "playback").Logger()
	return s
}

// State reports where the scheduler is in its lifecycle.
func (s *Scheduler) State() State { return State(s.state.Load()) }

// Play emits frames in order. Frame n is due at start + n/fps, so time spent
// writing a frame is taken out of the following wait instead of accumulating.
func (s *Scheduler) Play(ctx context.Context, frames []ascii.Frame) error {
	if !s.state.CompareAndSwap(int32(NotStarted), int32(Running)) {
		return ErrAlreadyStarted
	}
	defer s.state.Store(int32(Finished))

	var track *audio.Handle
	if s.player != nil {
		track = audio.Start(ctx, s.player, s.log)
	}

	total := s.total
	if total <= 0 {
		total = len(frames)
	}
	fps := s.clock.Whole()
	w := bufio.NewWriterSize(s.out, 64*1024)

	start := s.now()
	for i, f := range frames {
		n := i + 1
		if s.window != nil {
			if s.resizeEvery > 0 && n%s.resizeEvery == 0 {
				if err := s.window.Resize(s.geom.Width, s.geom.Height); err != nil {
					s.log.Debug().Err(err).Int("frame", n).Msg("resize failed")
				}
			}
			if err := s.window.SetTitle(Title(n, total, fps)); err != nil {
				s.log.Debug().Err(err).Int("frame", n).Msg("set title failed")
			}
		}
		if _, err := w.WriteString(f.Text); err != nil {
			return fmt.Errorf("write frame %d: %w", n, err)
		}
		if err := w.Flush(); err != nil {
			return fmt.Errorf("write frame %d: %w", n, err)
		}
		due := start.Add(s.clock.Offset(n))
		if err := s.sleep(ctx, due.Sub(s.now())); err != nil {
			return err
		}
	}

	if !track.Wait(s.grace) {
		s.log.Debug().Dur("grace", s.grace).Msg("audio still running after last frame")
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
