// Package convert runs the frame converter across a bounded worker pool.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"asciimation/internal/ascii"
	"asciimation/internal/model"
	"asciimation/internal/progress"
	"asciimation/internal/video"
)

// Func converts a single frame. It must be safe for concurrent use.
type Func func(ascii.RawFrame) (ascii.Frame, error)

// Options control the pool.
type Options struct {
	Workers    int // <= 0 uses runtime.NumCPU()
	MaxPending int // frames read but not yet converted; 0 = unbounded
	Convert    Func
	Logger     *zerolog.Logger
}

// Renderer returns a Func bound to one geometry and ramp.
func Renderer(g ascii.Geometry, r ascii.Ramp) Func {
	return func(raw ascii.RawFrame) (ascii.Frame, error) {
		return ascii.Convert(raw, g, r)
	}
}

type future struct {
	done  chan struct{}
	frame ascii.Frame
	err   error
}

// Run reads src to the end, submitting every frame as soon as it is read,
// and returns the converted frames in read order. The first failure in frame
// order is returned as a *model.ConversionError; later results are discarded.
func Run(ctx context.Context, src video.Source, opts Options, prog *progress.Conversion) ([]ascii.Frame, error) {
	if opts.Convert == nil {
		return nil, errors.New("convert: no frame converter")
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if prog == nil {
		prog = progress.NewConversion(src.Info().Frames)
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "convert").Logger()
	}

	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	slots := semaphore.NewWeighted(int64(workers))
	var pending *semaphore.Weighted
	if opts.MaxPending > 0 {
		pending = semaphore.NewWeighted(int64(opts.MaxPending))
	}

	var failed atomic.Bool
	var futures []*future
	for !failed.Load() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read frame %d: %v", model.ErrPrecondition, len(futures), err)
		}
		if pending != nil {
			if err := pending.Acquire(workCtx, 1); err != nil {
				return nil, err
			}
		}

		f := &future{done: make(chan struct{})}
		futures = append(futures, f)
		prog.Submit()
		go func(raw ascii.RawFrame) {
			defer close(f.done)
			if pending != nil {
				defer pending.Release(1)
			}
			if err := slots.Acquire(workCtx, 1); err != nil {
				f.err = err
				return
			}
			defer slots.Release(1)
			f.frame, f.err = opts.Convert(raw)
			if f.err != nil {
				failed.Store(true)
				return
			}
			prog.Complete()
		}(raw)
	}
	prog.SetTotal(len(futures))
	log.Debug().Int("frames", len(futures)).Int("workers", workers).Msg("all frames submitted")

	out := make([]ascii.Frame, len(futures))
	for i, f := range futures {
		<-f.done
		if f.err != nil {
			cancel()
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Debug().Int("frame", i).Err(f.err).Msg("conversion failed")
			return nil, &model.ConversionError{Index: i, Err: f.err}
		}
		f.frame.Index = i
		out[i] = f.frame
	}
	return out, nil
}
