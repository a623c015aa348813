// Package video reads decoded frames from a local media file.
package video

import (
	"fmt"
	"image"
	"io"

	vidio "github.com/AlexEidt/Vidio"

	"asciimation/internal/ascii"
	"asciimation/internal/model"
)

// Info describes the video stream.
type Info struct {
	Width    int
	Height   int
	Frames   int     // reported by the container; may be approximate
	FPS      float64 // nominal frame rate
	Duration float64 // seconds
}

// Source yields frames in display order. Next returns io.EOF after the last frame.
type Source interface {
	Info() Info
	Next() (ascii.RawFrame, error)
	Close() error
}

// Opener opens a Source for a file path.
type Opener func(path string) (Source, error)

type vidioSource struct {
	v    *vidio.Video
	info Info
	next int
}

// Open decodes path through ffmpeg.
func Open(path string) (Source, error) {
	v, err := vidio.NewVideo(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open video stream %s: %v", model.ErrPrecondition, path, err)
	}
	info := Info{
		Width:    v.Width(),
		Height:   v.Height(),
		Frames:   v.Frames(),
		FPS:      v.FPS(),
		Duration: v.Duration(),
	}
	if info.Width <= 0 || info.Height <= 0 {
		v.Close()
		return nil, fmt.Errorf("%w: video stream %s has no dimensions", model.ErrPrecondition, path)
	}
	return &vidioSource{v: v, info: info}, nil
}

func (s *vidioSource) Info() Info { return s.info }

// Next copies the decoder's shared buffer so frames can outlive the next read.
func (s *vidioSource) Next() (ascii.RawFrame, error) {
	if !s.v.Read() {
		return ascii.RawFrame{}, io.EOF
	}
	img := image.NewRGBA(image.Rect(0, 0, s.info.Width, s.info.Height))
	copy(img.Pix, s.v.FrameBuffer())
	f := ascii.RawFrame{Index: s.next, Image: img}
	s.next++
	return f, nil
}

func (s *vidioSource) Close() error {
	s.v.Close()
	return nil
}

// Images is an in-memory Source, handy for previews and tests.
type Images struct {
	info   Info
	frames []image.Image
	next   int
	closed bool
}

// NewImages wraps frames; Info.Frames is set to len(frames).
func NewImages(fps float64, frames ...image.Image) *Images {
	info := Info{Frames: len(frames), FPS: fps}
	if len(frames) > 0 {
		b := frames[0].Bounds()
		info.Width, info.Height = b.Dx(), b.Dy()
	}
	if fps > 0 {
		info.Duration = float64(len(frames)) / fps
	}
	return &Images{info: info, frames: frames}
}

func (s *Images) Info() Info { return s.info }

func (s *Images) Next() (ascii.RawFrame, error) {
	if s.closed || s.next >= len(s.frames) {
		return ascii.RawFrame{}, io.EOF
	}
	f := ascii.RawFrame{Index: s.next, Image: s.frames[s.next]}
	s.next++
	return f, nil
}

func (s *Images) Close() error {
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *Images) Closed() bool { return s.closed }
