package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"asciimation/internal/audio"
	"asciimation/internal/extractor"
	"asciimation/internal/model"
	"asciimation/internal/progress"
	"asciimation/internal/util"
	"asciimation/internal/video"
)

const metaJSON = `{"id":"abc123","title":"Bad Apple","uploader":"someone","duration":219.0,"width":1920,"height":1080,"fps":30}`

type recordingReporter struct {
	mu      sync.Mutex
	updates []progress.Update
	results []progress.Result
}

func (r *recordingReporter) Update(u progress.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}
func (r *recordingReporter) Log(progress.Log) {}
func (r *recordingReporter) Result(res progress.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *recordingReporter) stages() []progress.Stage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []progress.Stage
	for _, u := range r.updates {
		if len(out) == 0 || out[len(out)-1] != u.Stage {
			out = append(out, u.Stage)
		}
	}
	return out
}

// fakeRunner simulates yt-dlp and ffmpeg.
type fakeRunner struct {
	dlPath     string
	ffmpegPath string
	ffmpegFail bool

	mu    sync.Mutex
	calls []string
}

func (f *fakeRunner) Run(ctx context.Context, spec util.CmdSpec) (util.CmdResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, spec.Path)
	f.mu.Unlock()

	switch spec.Path {
	case f.dlPath:
		if spec.StdoutLine != nil {
			spec.StdoutLine(metaJSON)
			spec.StdoutLine("[download]  50.0% of 10.00MiB at  1.00MiB/s ETA 00:05")
		}
		if slices.Contains(spec.Args, "--no-simulate") {
			if err := os.WriteFile(filepath.Join(spec.Dir, "video.mp4"), []byte("media"), 0o644); err != nil {
				return util.CmdResult{}, err
			}
		}
		return util.CmdResult{}, nil
	case f.ffmpegPath:
		if f.ffmpegFail {
			return util.CmdResult{Code: 1}, errors.New("command failed (exit 1)")
		}
		out := spec.Args[len(spec.Args)-1]
		if err := os.WriteFile(out, []byte("ID3"), 0o644); err != nil {
			return util.CmdResult{}, err
		}
		if spec.StdoutLine != nil {
			spec.StdoutLine("out_time_us=219000000")
			spec.StdoutLine("progress=end")
		}
		return util.CmdResult{}, nil
	}
	return util.CmdResult{}, errors.New("unexpected tool path: " + spec.Path)
}

func (f *fakeRunner) called(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Contains(f.calls, path)
}

func solid(v uint8) image.Image {
	img := image.NewGray(image.Rect(0, 0, 16, 9))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func openerOf(fps float64, frames ...image.Image) (video.Opener, *[]string) {
	var opened []string
	return func(path string) (video.Source, error) {
		opened = append(opened, path)
		return video.NewImages(fps, frames...), nil
	}, &opened
}

type countingPlayer struct {
	mu    sync.Mutex
	paths []string
}

func (c *countingPlayer) factory(path string) audio.Player {
	c.mu.Lock()
	c.paths = append(c.paths, path)
	c.mu.Unlock()
	return playerFunc(func(ctx context.Context) error { return nil })
}

type playerFunc func(ctx context.Context) error

func (f playerFunc) Play(ctx context.Context) error { return f(ctx) }

func newTestService(fr *fakeRunner, rep progress.Reporter, open video.Opener, opts model.CLIOptions, extra ...Option) *Service {
	base := []Option{
		WithDownloaderPath(fr.dlPath),
		WithFFmpegPath(fr.ffmpegPath),
		WithRunner(fr),
		WithReporter(rep),
		WithOpener(open),
		WithCLIOptions(opts),
		WithJobID("job-1"),
	}
	return NewService(append(base, extra...)...)
}

func webSource() model.Source {
	return model.Source{Kind: model.SourceWeb, Raw: "https://example.com/watch?v=abc123"}
}

func TestNewServiceDefaults(t *testing.T) {
	s := NewService()
	if s.opts.Width != 180 || s.opts.Correction != 0.55 || s.opts.Ramp != " .°*oO#@" {
		t.Errorf("defaults not applied: %+v", s.opts)
	}
	if s.runner == nil || s.reporter == nil || s.open == nil || s.player == nil || s.out == nil {
		t.Error("default collaborators not set")
	}
}

func TestPrepare(t *testing.T) {
	workdir := t.TempDir()
	fr := &fakeRunner{dlPath: "/bin/yt-dlp", ffmpegPath: "/bin/ffmpeg"}
	rep := &recordingReporter{}
	open, opened := openerOf(30, solid(0), solid(128), solid(255))
	s := newTestService(fr, rep, open, model.CLIOptions{Width: 8, Correction: 0.5, Workers: 2})

	p, err := s.Prepare(context.Background(), webSource(), workdir)
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if len(p.Frames) != 3 {
		t.Fatalf("Prepare() frames = %d, want 3", len(p.Frames))
	}
	if p.Geometry.Width != 8 || p.Geometry.Height != 2 {
		t.Errorf("Geometry = %+v, want 8x2", p.Geometry)
	}
	if got := p.Clock.Interval().Milliseconds(); got != 33 {
		t.Errorf("Interval = %dms, want 33ms", got)
	}
	if p.AudioPath != extractor.OutputIn(workdir) {
		t.Errorf("AudioPath = %q", p.AudioPath)
	}
	if want := filepath.Join(workdir, "video.mp4"); len(*opened) != 1 || (*opened)[0] != want {
		t.Errorf("opened %v, want [%s]", *opened, want)
	}
	for i, f := range p.Frames {
		if f.Index != i {
			t.Errorf("frame %d has index %d", i, f.Index)
		}
	}
	if !strings.Contains(p.Frames[2].Text, "@@@@@@@@") {
		t.Errorf("white frame should use the last glyph, got %q", p.Frames[2].Text)
	}

	stages := rep.stages()
	for _, want := range []progress.Stage{progress.StageMetadata, progress.StageExtracting, progress.StageCompleted} {
		if !slices.Contains(stages, want) {
			t.Errorf("stages %v missing %s", stages, want)
		}
	}
	if len(rep.results) != 1 || rep.results[0].Err != nil || rep.results[0].Frames != 3 {
		t.Errorf("results = %+v, want one success with 3 frames", rep.results)
	}
}

func TestPrepareWithoutAudio(t *testing.T) {
	fr := &fakeRunner{dlPath: "/bin/yt-dlp"}
	open, _ := openerOf(25, solid(10), solid(20))
	s := newTestService(fr, &recordingReporter{}, open, model.CLIOptions{NoAudio: true})

	p, err := s.Prepare(context.Background(), webSource(), t.TempDir())
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if p.AudioPath != "" {
		t.Errorf("AudioPath = %q, want empty", p.AudioPath)
	}
	if fr.called("/bin/ffmpeg") {
		t.Error("ffmpeg should not run with audio disabled")
	}
}

func TestPrepareLocalFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(in, []byte("media"), 0o644); err != nil {
		t.Fatal(err)
	}
	workdir := t.TempDir()
	fr := &fakeRunner{ffmpegPath: "/bin/ffmpeg"}
	open, opened := openerOf(24, solid(0))
	s := newTestService(fr, &recordingReporter{}, open, model.CLIOptions{})

	p, err := s.Prepare(context.Background(), model.Source{Kind: model.SourceFile, Raw: in}, workdir)
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if (*opened)[0] != in {
		t.Errorf("opened %v, want %s", *opened, in)
	}
	if filepath.Dir(p.AudioPath) != workdir {
		t.Errorf("audio written to %q, want inside %q", p.AudioPath, workdir)
	}
}

func TestPrepareFailures(t *testing.T) {
	tests := []struct {
		name    string
		runner  *fakeRunner
		opts    model.CLIOptions
		open    video.Opener
		wantErr error
	}{
		{
			name:    "no downloader",
			runner:  &fakeRunner{ffmpegPath: "/bin/ffmpeg"},
			wantErr: model.ErrRetrieval,
		},
		{
			name:    "no ffmpeg",
			runner:  &fakeRunner{dlPath: "/bin/yt-dlp"},
			wantErr: model.ErrExtraction,
		},
		{
			name:    "ffmpeg fails",
			runner:  &fakeRunner{dlPath: "/bin/yt-dlp", ffmpegPath: "/bin/ffmpeg", ffmpegFail: true},
			wantErr: model.ErrExtraction,
		},
		{
			name:    "bad ramp",
			runner:  &fakeRunner{dlPath: "/bin/yt-dlp", ffmpegPath: "/bin/ffmpeg"},
			opts:    model.CLIOptions{Ramp: "#"},
			wantErr: model.ErrPrecondition,
		},
		{
			name:   "unreadable stream",
			runner: &fakeRunner{dlPath: "/bin/yt-dlp", ffmpegPath: "/bin/ffmpeg"},
			open: func(string) (video.Source, error) {
				return nil, model.Preconditionf("no video stream")
			},
			wantErr: model.ErrPrecondition,
		},
		{
			name:    "zero frame rate",
			runner:  &fakeRunner{dlPath: "/bin/yt-dlp", ffmpegPath: "/bin/ffmpeg"},
			open:    func(string) (video.Source, error) { return video.NewImages(0, solid(1)), nil },
			wantErr: model.ErrPrecondition,
		},
		{
			name:    "frame fails to convert",
			runner:  &fakeRunner{dlPath: "/bin/yt-dlp", ffmpegPath: "/bin/ffmpeg"},
			open:    func(string) (video.Source, error) { return video.NewImages(30, solid(1), nil, solid(2)), nil },
			wantErr: model.ErrConversion,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			open := tt.open
			if open == nil {
				open, _ = openerOf(30, solid(1))
			}
			rep := &recordingReporter{}
			s := newTestService(tt.runner, rep, open, tt.opts)
			_, err := s.Prepare(context.Background(), webSource(), t.TempDir())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Prepare() error = %v, want %v", err, tt.wantErr)
			}
			if len(rep.results) != 1 || rep.results[0].Err == nil {
				t.Errorf("results = %+v, want one failure", rep.results)
			}
		})
	}
}

func TestPrepareReportsFirstFailingFrame(t *testing.T) {
	fr := &fakeRunner{dlPath: "/bin/yt-dlp"}
	open := func(string) (video.Source, error) {
		return video.NewImages(30, solid(1), solid(2), nil, nil), nil
	}
	s := newTestService(fr, &recordingReporter{}, open, model.CLIOptions{NoAudio: true, Workers: 4})
	_, err := s.Prepare(context.Background(), webSource(), t.TempDir())
	var ce *model.ConversionError
	if !errors.As(err, &ce) || ce.Index != 2 {
		t.Fatalf("Prepare() error = %v, want conversion error at frame 2", err)
	}
}

func TestPlay(t *testing.T) {
	fr := &fakeRunner{dlPath: "/bin/yt-dlp", ffmpegPath: "/bin/ffmpeg"}
	open, _ := openerOf(1000, solid(0), solid(255))
	var out bytes.Buffer
	players := &countingPlayer{}
	s := newTestService(fr, &recordingReporter{}, open, model.CLIOptions{Width: 4}, WithOutput(&out), WithPlayer(players.factory))

	p, err := s.Prepare(context.Background(), webSource(), t.TempDir())
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if err := s.Play(context.Background(), p); err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	if got := strings.Count(out.String(), "\x1b[1;1H"); got != 2 {
		t.Errorf("wrote %d frames, want 2", got)
	}
	if len(players.paths) != 1 || players.paths[0] != p.AudioPath {
		t.Errorf("player started for %v, want [%s]", players.paths, p.AudioPath)
	}
}

func TestPlayNil(t *testing.T) {
	if err := NewService().Play(context.Background(), nil); !errors.Is(err, model.ErrPrecondition) {
		t.Errorf("Play(nil) error = %v, want ErrPrecondition", err)
	}
}

func TestPlan(t *testing.T) {
	fr := &fakeRunner{dlPath: "/bin/yt-dlp", ffmpegPath: "/bin/ffmpeg"}
	open, _ := openerOf(30, solid(0))
	s := newTestService(fr, &recordingReporter{}, open, model.CLIOptions{Workers: 3})

	pl, err := s.Plan(context.Background(), webSource())
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	if pl.Title != "Bad Apple" || pl.ID != "abc123" {
		t.Errorf("Plan metadata = %+v", pl)
	}
	if pl.Geometry == nil || pl.Geometry.Width != 180 || pl.Geometry.Height != 56 {
		t.Errorf("Geometry = %+v, want 180x56", pl.Geometry)
	}
	if pl.EstFrames != 6570 {
		t.Errorf("EstFrames = %d, want 6570", pl.EstFrames)
	}
	if pl.Workers != 3 || !pl.Audio {
		t.Errorf("Workers/Audio = %d/%v", pl.Workers, pl.Audio)
	}
	if fr.called("/bin/ffmpeg") {
		t.Error("plan must not run ffmpeg")
	}
}

func TestPlanMagnet(t *testing.T) {
	s := NewService(WithCLIOptions(model.CLIOptions{NoAudio: true}))
	pl, err := s.Plan(context.Background(), model.Source{Kind: model.SourceMagnet, Raw: "magnet:?xt=urn:btih:abc"})
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	if pl.Geometry != nil || pl.EstFrames != 0 || pl.Audio {
		t.Errorf("Plan() = %+v, want no metadata and no audio", pl)
	}
}
