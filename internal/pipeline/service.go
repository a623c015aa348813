// Package pipeline wires fetch, audio extraction, conversion and playback
// into a single run.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"asciimation/internal/ascii"
	"asciimation/internal/audio"
	"asciimation/internal/convert"
	"asciimation/internal/downloader"
	"asciimation/internal/extractor"
	"asciimation/internal/model"
	"asciimation/internal/playback"
	"asciimation/internal/progress"
	"asciimation/internal/terminal"
	"asciimation/internal/util"
	"asciimation/internal/video"
)

// reportEvery is how often conversion progress is pushed to the reporter.
const reportEvery = 100 * time.Millisecond

// Service orchestrates the fetch → extract → convert → play workflow.
type Service struct {
	dlPath     string
	ffmpegPath string
	opts       model.CLIOptions
	runner     util.CmdRunner
	reporter   progress.Reporter
	log        zerolog.Logger
	open       video.Opener
	player     func(path string) audio.Player
	out        io.Writer
	window     terminal.Window
	jobID      string
}

// Option configures a Service.
type Option func(*Service)

// WithDownloaderPath sets the downloader (yt-dlp/youtube-dl) binary path.
func WithDownloaderPath(p string) Option {
	return func(s *Service) {
		s.dlPath = p
	}
}

// WithFFmpegPath sets the ffmpeg binary path.
func WithFFmpegPath(p string) Option {
	return func(s *Service) {
		s.ffmpegPath = p
	}
}

// WithCLIOptions sets the CLI options used for planning and execution.
func WithCLIOptions(o model.CLIOptions) Option {
	return func(s *Service) {
		s.opts = o
	}
}

// WithRunner injects a custom command runner (useful for testing).
func WithRunner(r util.CmdRunner) Option {
	return func(s *Service) {
		s.runner = r
	}
}

// WithReporter attaches a progress reporter (used by the UI).
func WithReporter(rp progress.Reporter) Option {
	return func(s *Service) {
		s.reporter = rp
	}
}

// WithLogger sets the structured logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) {
		s.log = l
	}
}

// WithOpener replaces the frame decoder.
func WithOpener(o video.Opener) Option {
	return func(s *Service) {
		s.open = o
	}
}

// WithPlayer replaces how the extracted track is played.
func WithPlayer(f func(path string) audio.Player) Option {
	return func(s *Service) {
		s.player = f
	}
}

// WithOutput sets where frames are written during playback.
func WithOutput(w io.Writer) Option {
	return func(s *Service) {
		s.out = w
	}
}

// WithWindow sets the terminal window used for titles and resizing.
func WithWindow(w terminal.Window) Option {
	return func(s *Service) {
		s.window = w
	}
}

// WithJobID sets the job ID associated with reporter events.
func WithJobID(id string) Option {
	return func(s *Service) {
		s.jobID = id
	}
}

// NewService constructs a new Service with the provided options.
func NewService(opts ...Option) *Service {
	s := &Service{log: zerolog.Nop()}
	for _, o := range opts {
		o(s)
	}
	if s.runner == nil {
		s.runner = util.NewDefaultRunner()
	}
	if s.reporter == nil {
		s.reporter = progress.Nop{}
	}
	if s.open == nil {
		s.open = video.Open
	}
	if s.player == nil {
		s.player = func(path string) audio.Player { return audio.MP3{Path: path} }
	}
	if s.out == nil {
		s.out = os.Stdout
	}
	if s.opts.Width <= 0 {
		s.opts.Width = ascii.DefaultWidth
	}
	if s.opts.Correction <= 0 {
		s.opts.Correction = ascii.DefaultCorrection
	}
	if s.opts.Ramp == "" {
		s.opts.Ramp = ascii.DefaultRamp
	}
	s.log = s.log.With().Str("component", "pipeline").Str("job", s.jobID).Logger()
	return s
}

// Prepared is a fully converted video ready to be played.
type Prepared struct {
	Video     model.DownloadedVideo
	AudioPath string // empty when audio is disabled
	Info      video.Info
	Geometry  ascii.Geometry
	Clock     playback.Clock
	Frames    []ascii.Frame
}

// Prepare fetches src into workdir, extracts its audio and converts every
// frame. It never writes to the terminal; progress goes to the reporter.
func (s *Service) Prepare(ctx context.Context, src model.Source, workdir string) (*Prepared, error) {
	p, err := s.prepare(ctx, src, workdir)
	res := progress.Result{JobID: s.jobID, Err: err}
	if p != nil {
		res.Frames = len(p.Frames)
	}
	s.reporter.Result(res)
	return p, err
}

func (s *Service) prepare(ctx context.Context, src model.Source, workdir string) (*Prepared, error) {
	if src.Kind == model.SourceWeb && s.dlPath == "" {
		return nil, fmt.Errorf("%w: downloader path is required", model.ErrRetrieval)
	}
	if !s.opts.NoAudio && s.ffmpegPath == "" {
		return nil, fmt.Errorf("%w: ffmpeg path is required", model.ErrExtraction)
	}
	ramp, err := ascii.NewRamp(s.opts.Ramp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrPrecondition, err)
	}

	dv, err := downloader.Fetch(ctx, src, s.downloaderOptions(workdir, false))
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("path", dv.InputPath).Str("title", dv.Title).Msg("video fetched")

	p := &Prepared{Video: dv}
	if !s.opts.NoAudio {
		p.AudioPath, err = extractor.Extract(ctx, dv.InputPath, extractor.Options{
			FFmpegPath:  s.ffmpegPath,
			OutputPath:  extractor.OutputIn(workdir),
			DurationSec: dv.DurationSec,
			Runner:      s.runner,
			Reporter:    s.reporter,
			JobID:       s.jobID,
			Logger:      &s.log,
		})
		if err != nil {
			return nil, err
		}
	}

	source, err := s.open(dv.InputPath)
	if err != nil {
		return nil, err
	}
	defer source.Close()

	p.Info = source.Info()
	p.Geometry, err = ascii.NewGeometry(s.opts.Width, p.Info.Width, p.Info.Height, s.opts.Correction)
	if err != nil {
		return nil, err
	}
	p.Clock, err = playback.NewClock(p.Info.FPS)
	if err != nil {
		return nil, err
	}
	s.log.Debug().
		Int("width", p.Geometry.Width).
		Int("height", p.Geometry.Height).
		Float64("fps", p.Info.FPS).
		Int("frames", p.Info.Frames).
		Msg("stream opened")

	p.Frames, err = s.convert(ctx, source, p.Geometry, ramp)
	if err != nil {
		return nil, err
	}
	s.reporter.Update(progress.Update{
		JobID:   s.jobID,
		Stage:   progress.StageCompleted,
		Percent: 100,
		Current: len(p.Frames),
		Total:   len(p.Frames),
		Message: fmt.Sprintf("Converted %d frames", len(p.Frames)),
	})
	return p, nil
}

// convert runs the worker pool while a ticker forwards counter snapshots.
func (s *Service) convert(ctx context.Context, src video.Source, g ascii.Geometry, r ascii.Ramp) ([]ascii.Frame, error) {
	prog := progress.NewConversion(src.Info().Frames)
	stop := make(chan struct{})
	ticked := make(chan struct{})
	go func() {
		defer close(ticked)
		t := time.NewTicker(reportEvery)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				s.reporter.Update(prog.Snapshot().Update(s.jobID))
			}
		}
	}()

	frames, err := convert.Run(ctx, src, convert.Options{
		Workers:    s.opts.Workers,
		MaxPending: s.opts.MaxPending,
		Convert:    convert.Renderer(g, r),
		Logger:     &s.log,
	}, prog)
	close(stop)
	<-ticked
	if err != nil {
		return nil, err
	}
	s.reporter.Update(prog.Snapshot().Update(s.jobID))
	return frames, nil
}

// Play renders p to the output at its native frame rate, with audio unless disabled.
func (s *Service) Play(ctx context.Context, p *Prepared) error {
	if p == nil {
		return fmt.Errorf("%w: nothing to play", model.ErrPrecondition)
	}
	opts := []playback.Option{
		playback.WithGeometry(p.Geometry),
		playback.WithTotal(len(p.Frames)),
		playback.WithResizeEvery(s.opts.ResizeEvery),
		playback.WithLogger(s.log),
	}
	if s.window != nil {
		opts = append(opts, playback.WithWindow(s.window))
	}
	if s.opts.Grace > 0 {
		opts = append(opts, playback.WithGrace(s.opts.Grace))
	}
	if !s.opts.NoAudio && p.AudioPath != "" {
		opts = append(opts, playback.WithAudio(s.player(p.AudioPath)))
	}
	return playback.New(s.out, p.Clock, opts...).Play(ctx, p.Frames)
}

func (s *Service) downloaderOptions(workdir string, metaOnly bool) downloader.Options {
	return downloader.Options{
		DownloaderPath: s.dlPath,
		Workdir:        workdir,
		MetadataOnly:   metaOnly,
		Runner:         s.runner,
		Reporter:       s.reporter,
		JobID:          s.jobID,
		Logger:         &s.log,
	}
}
