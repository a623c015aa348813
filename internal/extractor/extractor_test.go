package extractor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"asciimation/internal/model"
	"asciimation/internal/progress"
	"asciimation/internal/util"
)

func TestBuildAudioArgs(t *testing.T) {
	tests := []struct {
		name            string
		includeProgress bool
		wantContains    []string
		wantNotContains []string
	}{
		{
			name:            "plain",
			wantContains:    []string{"-y", "-i", "-q:a", "0", "-map", "a"},
			wantNotContains: []string{"-progress", "-nostats"},
		},
		{
			name:            "with progress",
			includeProgress: true,
			wantContains:    []string{"-progress", "pipe:1", "-nostats"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := BuildAudioArgs("/tmp/run/video.mp4", "/tmp/run/audio.mp3", tt.includeProgress)
			for _, w := range tt.wantContains {
				if !slices.Contains(args, w) {
					t.Errorf("args %v missing %q", args, w)
				}
			}
			for _, w := range tt.wantNotContains {
				if slices.Contains(args, w) {
					t.Errorf("args %v should not contain %q", args, w)
				}
			}
			if args[len(args)-1] != "/tmp/run/audio.mp3" {
				t.Errorf("output path should be last, got %q", args[len(args)-1])
			}
		})
	}
}

func TestProgressState_UpdateFromLine(t *testing.T) {
	tests := []struct {
		name        string
		lines       []string
		durationSec float64
		wantOk      bool
		wantPercent float64
	}{
		{
			name:        "halfway",
			lines:       []string{"out_time_ms=30000000", "speed=12.5x", "total_size=10485760", "progress=continue"},
			durationSec: 60,
			wantOk:      true,
			wantPercent: 50,
		},
		{
			name:        "unknown duration",
			lines:       []string{"out_time_us=1000000", "progress=continue"},
			wantOk:      true,
			wantPercent: -1,
		},
		{
			name:        "end marker",
			lines:       []string{"out_time_us=59000000", "progress=end"},
			durationSec: 60,
			wantOk:      true,
			wantPercent: 100,
		},
		{
			name:   "non-progress line",
			lines:  []string{"frame=100"},
			wantOk: false,
		},
		{
			name:   "garbage",
			lines:  []string{"Stream mapping:"},
			wantOk: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := &ProgressState{}
			var u progress.Update
			var ok bool
			for _, line := range tt.lines {
				u, ok = ps.UpdateFromLine(line, "run", tt.durationSec)
			}
			if ok != tt.wantOk {
				t.Fatalf("UpdateFromLine() ok = %v, want %v", ok, tt.wantOk)
			}
			if !ok {
				return
			}
			if u.Stage != progress.StageExtracting {
				t.Errorf("Stage = %v, want extracting", u.Stage)
			}
			if u.Percent != tt.wantPercent {
				t.Errorf("Percent = %v, want %v", u.Percent, tt.wantPercent)
			}
		})
	}
}

type fakeFFmpeg struct {
	fail    bool
	stderr  string
	noWrite bool
}

func (f *fakeFFmpeg) Run(ctx context.Context, spec util.CmdSpec) (util.CmdResult, error) {
	if f.fail {
		return util.CmdResult{Code: 1, Stderr: []byte(f.stderr)}, errors.New("command failed (exit 1)")
	}
	out := spec.Args[len(spec.Args)-1]
	if !f.noWrite {
		if err := os.WriteFile(out, []byte("ID3"), 0o644); err != nil {
			return util.CmdResult{}, err
		}
	}
	if spec.StdoutLine != nil {
		spec.StdoutLine("out_time_us=1000000")
		spec.StdoutLine("progress=end")
	}
	return util.CmdResult{}, nil
}

type lastUpdate struct{ u progress.Update }

func (l *lastUpdate) Update(u progress.Update) { l.u = u }
func (l *lastUpdate) Log(progress.Log)         {}
func (l *lastUpdate) Result(progress.Result)   {}

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "video.mp4")
	rep := &lastUpdate{}

	out, err := Extract(context.Background(), video, Options{FFmpegPath: "ffmpeg", Runner: &fakeFFmpeg{}, Reporter: rep})
	if err != nil {
		t.Fatalf("Extract() unexpected error: %v", err)
	}
	if out != filepath.Join(dir, AudioFile) {
		t.Errorf("Extract() = %q", out)
	}
	if rep.u.Percent != 100 {
		t.Errorf("last update percent = %v, want 100", rep.u.Percent)
	}
}

func TestExtractFailures(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "video.mp4")
	tests := []struct {
		name string
		run  *fakeFFmpeg
		path string
	}{
		{name: "non-zero exit", run: &fakeFFmpeg{fail: true, stderr: "Invalid data found when processing input"}, path: "ffmpeg"},
		{name: "no audio stream", run: &fakeFFmpeg{fail: true, stderr: "Stream map 'a' matches no streams."}, path: "ffmpeg"},
		{name: "empty output", run: &fakeFFmpeg{noWrite: true}, path: "ffmpeg"},
		{name: "no ffmpeg", run: &fakeFFmpeg{}, path: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(context.Background(), video, Options{FFmpegPath: tt.path, Runner: tt.run})
			if !errors.Is(err, model.ErrExtraction) {
				t.Errorf("Extract() error = %v, want ErrExtraction", err)
			}
		})
	}
}

func TestExtractCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Extract(ctx, filepath.Join(t.TempDir(), "video.mp4"), Options{FFmpegPath: "ffmpeg", Runner: &fakeFFmpeg{fail: true}})
	if !errors.Is(err, context.Canceled) || !errors.Is(err, model.ErrExtraction) {
		t.Errorf("Extract() error = %v, want cancellation wrapped in ErrExtraction", err)
	}
}
