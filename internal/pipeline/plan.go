package pipeline

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"runtime"
	"time"

	"asciimation/internal/ascii"
	"asciimation/internal/downloader"
	"asciimation/internal/model"
	"asciimation/internal/playback"
	"asciimation/internal/progress"
)

// Plan describes what a run would do, computed from metadata alone.
type Plan struct {
	Source         model.Source
	Title          string
	Uploader       string
	ID             string
	DurationSec    float64
	SourceWidth    int
	SourceHeight   int
	FPS            float64
	EstFrames      int
	Geometry       *ascii.Geometry // nil when the source size is unknown
	Interval       time.Duration   // 0 when the frame rate is unknown
	Ramp           string
	Workers        int
	Audio          bool
	DownloaderPath string
	FFmpegPath     string
}

// Plan resolves metadata for src without downloading or decoding the media.
// Magnet links are planned without metadata since the torrent would have to
// be joined to learn anything about it.
func (s *Service) Plan(ctx context.Context, src model.Source) (*Plan, error) {
	pl := &Plan{
		Source:         src,
		Ramp:           s.opts.Ramp,
		Workers:        s.opts.Workers,
		Audio:          !s.opts.NoAudio,
		DownloaderPath: s.dlPath,
		FFmpegPath:     s.ffmpegPath,
	}
	if pl.Workers <= 0 {
		pl.Workers = runtime.NumCPU()
	}
	if _, err := ascii.NewRamp(pl.Ramp); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrPrecondition, err)
	}

	switch src.Kind {
	case model.SourceWeb:
		if s.dlPath == "" {
			return nil, fmt.Errorf("%w: downloader path is required", model.ErrRetrieval)
		}
		dv, err := downloader.Download(ctx, src.Raw, s.downloaderOptions("", true))
		if err != nil {
			return nil, err
		}
		pl.Title, pl.Uploader, pl.ID = dv.Title, dv.Uploader, dv.ID
		pl.DurationSec = dv.DurationSec
		pl.SourceWidth, pl.SourceHeight, pl.FPS = dv.Width, dv.Height, dv.FPS
	case model.SourceFile:
		vs, err := s.open(src.Raw)
		if err != nil {
			return nil, err
		}
		info := vs.Info()
		_ = vs.Close()
		pl.Title = filepath.Base(src.Raw)
		pl.DurationSec = info.Duration
		pl.SourceWidth, pl.SourceHeight, pl.FPS = info.Width, info.Height, info.FPS
		pl.EstFrames = info.Frames
	case model.SourceMagnet:
	default:
		return nil, fmt.Errorf("%w: unknown source kind %q", model.ErrRetrieval, src.Kind)
	}

	if pl.EstFrames == 0 && pl.FPS > 0 && pl.DurationSec > 0 {
		pl.EstFrames = int(math.Round(pl.DurationSec * pl.FPS))
	}
	if pl.SourceWidth > 0 && pl.SourceHeight > 0 {
		g, err := ascii.NewGeometry(s.opts.Width, pl.SourceWidth, pl.SourceHeight, s.opts.Correction)
		if err != nil {
			return nil, err
		}
		pl.Geometry = &g
	}
	if clock, err := playback.NewClock(pl.FPS); err == nil {
		pl.Interval = clock.Interval()
	}

	s.reporter.Update(progress.Update{
		JobID:   s.jobID,
		Stage:   progress.StageCompleted,
		Percent: 100,
		Message: "Planned (dry-run)",
	})
	return pl, nil
}
