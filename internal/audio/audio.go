// Package audio plays the extracted soundtrack alongside the frames.
package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/rs/zerolog"
)

// Player plays a track once. Play blocks until the track ends or ctx is done.
type Player interface {
	Play(ctx context.Context) error
}

// MP3 plays an MP3 file through the default output device.
type MP3 struct {
	Path string
}

var (
	speakerOnce sync.Once
	speakerRate beep.SampleRate
	speakerErr  error
)

func initSpeaker(sr beep.SampleRate) error {
	speakerOnce.Do(func() {
		speakerRate = sr
		speakerErr = speaker.Init(sr, sr.N(time.Second/10))
	})
	return speakerErr
}

func (p MP3) Play(ctx context.Context) error {
	f, err := os.Open(p.Path)
	if err != nil {
		return err
	}
	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("decode %s: %w", p.Path, err)
	}
	defer streamer.Close()

	if err := initSpeaker(format.SampleRate); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	var s beep.Streamer = streamer
	if format.SampleRate != speakerRate {
		s = beep.Resample(4, format.SampleRate, speakerRate, streamer)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(s, beep.Callback(func() { close(done) })))
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}

// Handle tracks a background playback started with Start.
type Handle struct {
	done chan struct{}
}

// Start launches p without waiting for it. Errors and panics stay inside the
// goroutine and are only logged.
func Start(ctx context.Context, p Player, log zerolog.Logger) *Handle {
	h := &Handle{done: make(chan struct{})}
	go func() {
		defer close(h.done)
		defer func() {
			if r := recover(); r != nil {
				log.Debug().Interface("panic", r).Msg("audio playback aborted")
			}
		}()
		err := p.Play(ctx)
		switch {
		case err == nil:
			log.Debug().Msg("audio finished")
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			log.Debug().Msg("audio interrupted")
		default:
			log.Debug().Err(err).Msg("audio playback failed")
		}
	}()
	return h
}

// Done is closed when playback has returned.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks up to grace for playback to return and reports whether it did.
func (h *Handle) Wait(grace time.Duration) bool {
	if h == nil {
		return true
	}
	if grace <= 0 {
		select {
		case <-h.done:
			return true
		default:
			return false
		}
	}
	t := time.NewTimer(grace)
	defer t.Stop()
	select {
	case <-h.done:
		return true
	case <-t.C:
		return false
	}
}
