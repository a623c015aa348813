package convert

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"asciimation/internal/ascii"
	"asciimation/internal/model"
	"asciimation/internal/progress"
	"asciimation/internal/video"
)

func grayFrames(n int) []image.Image {
	out := make([]image.Image, n)
	for i := range out {
		img := image.NewGray(image.Rect(0, 0, 16, 9))
		for p := range img.Pix {
			img.Pix[p] = uint8((i*37 + p*11) % 256)
		}
		out[i] = img
	}
	return out
}

// jittery delays each frame by a random amount before converting it.
func jittery(f Func, seed int64) Func {
	var mu sync.Mutex
	rng := rand.New(rand.NewSource(seed))
	return func(raw ascii.RawFrame) (ascii.Frame, error) {
		mu.Lock()
		d := time.Duration(rng.Intn(300)) * time.Microsecond
		mu.Unlock()
		time.Sleep(d)
		return f(raw)
	}
}

func TestRunPreservesOrder(t *testing.T) {
	g := ascii.Geometry{Width: 8, Height: 3}
	r := ascii.MustRamp(ascii.DefaultRamp)
	frames := grayFrames(120)

	want := make([]string, len(frames))
	for i, img := range frames {
		f, err := ascii.Convert(ascii.RawFrame{Index: i, Image: img}, g, r)
		if err != nil {
			t.Fatal(err)
		}
		want[i] = f.Text
	}

	for _, workers := range []int{1, 4, 16} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			src := video.NewImages(30, frames...)
			prog := progress.NewConversion(len(frames))
			got, err := Run(context.Background(), src, Options{
				Workers: workers,
				Convert: jittery(Renderer(g, r), int64(workers)),
			}, prog)
			if err != nil {
				t.Fatalf("Run() unexpected error: %v", err)
			}
			if len(got) != len(want) {
				t.Fatalf("Run() returned %d frames, want %d", len(got), len(want))
			}
			for i := range got {
				if got[i].Index != i || got[i].Text != want[i] {
					t.Fatalf("frame %d out of order or different", i)
				}
			}
			s := prog.Snapshot()
			if s.Completed != len(frames) || s.Total != len(frames) || s.Submitted != len(frames) {
				t.Errorf("progress = %+v, want all %d", s, len(frames))
			}
		})
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	const workers = 3
	var active, peak atomic.Int32
	conv := func(raw ascii.RawFrame) (ascii.Frame, error) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(200 * time.Microsecond)
		active.Add(-1)
		return ascii.Frame{Index: raw.Index}, nil
	}
	src := video.NewImages(30, grayFrames(60)...)
	if _, err := Run(context.Background(), src, Options{Workers: workers, MaxPending: 5, Convert: conv}, nil); err != nil {
		t.Fatal(err)
	}
	if p := peak.Load(); p > workers {
		t.Errorf("peak concurrency = %d, want <= %d", p, workers)
	}
}

func TestRunFailsOnFirstBadFrame(t *testing.T) {
	boom := errors.New("corrupt frame")
	conv := func(raw ascii.RawFrame) (ascii.Frame, error) {
		if raw.Index == 50 {
			return ascii.Frame{}, boom
		}
		return ascii.Frame{Index: raw.Index, Text: "ok"}, nil
	}
	src := video.NewImages(30, grayFrames(300)...)
	prog := progress.NewConversion(300)
	got, err := Run(context.Background(), src, Options{Workers: 4, Convert: conv}, prog)
	if got != nil {
		t.Errorf("Run() returned %d frames on failure", len(got))
	}
	var ce *model.ConversionError
	if !errors.As(err, &ce) {
		t.Fatalf("Run() error = %v, want *model.ConversionError", err)
	}
	if ce.Index != 50 {
		t.Errorf("ConversionError.Index = %d, want 50", ce.Index)
	}
	if !errors.Is(err, model.ErrConversion) || !errors.Is(err, boom) {
		t.Errorf("error %v does not match ErrConversion and cause", err)
	}
	if s := prog.Snapshot(); s.Completed >= 300 {
		t.Errorf("Completed = %d, failed frame must not count", s.Completed)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := video.NewImages(30, grayFrames(10)...)
	_, err := Run(ctx, src, Options{Workers: 2, Convert: func(raw ascii.RawFrame) (ascii.Frame, error) {
		return ascii.Frame{}, nil
	}}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestRunRequiresConverter(t *testing.T) {
	if _, err := Run(context.Background(), video.NewImages(30), Options{}, nil); err == nil {
		t.Error("Run() without converter expected error")
	}
}
