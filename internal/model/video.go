package model

import "time"

// CLIOptions holds user-configurable runtime options as parsed from flags.
type CLIOptions struct {
	Width       int     // Output width in character cells.
	Correction  float64 // Glyph aspect correction applied to the output height.
	Ramp        string  // Glyphs for luminance 0 through 255, in order.
	Workers     int     // Conversion pool size; <= 0 uses runtime.NumCPU().
	MaxPending  int     // Cap on frames read ahead of conversion; 0 = unbounded.
	ResizeEvery int     // Reproportion the terminal every N frames; 0 disables.
	Grace       time.Duration
	DLBinary    string // Optional explicit path to yt-dlp/youtube-dl
	KeepTemp    bool
	NoAudio     bool
	NoUI        bool
	Verbose     bool
	LogLevel    string
	LogFile     string
}

// DownloadedVideo represents the media and metadata returned by the fetch step.
type DownloadedVideo struct {
	InputPath   string  // Full path to the local media file, empty for metadata-only.
	DurationSec float64 // Seconds; may be 0 if unknown.
	Title       string
	Uploader    string
	ID          string
	Width       int     // 0 if unknown
	Height      int     // 0 if unknown
	FPS         float64 // 0 if unknown
	URL         string
}

// SourceKind classifies what the user pointed us at.
type SourceKind string

const (
	SourceWeb    SourceKind = "web"
	SourceMagnet SourceKind = "magnet"
	SourceFile   SourceKind = "file"
)

// Source is a classified user input.
type Source struct {
	Kind SourceKind
	Raw  string // Normalized URL, magnet URI or absolute file path.
}
