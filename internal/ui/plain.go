package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"asciimation/internal/progress"
	"asciimation/internal/util/format"
)

var stageTitles = map[progress.Stage]string{
	progress.StageDeps:        "Checking dependencies",
	progress.StageMetadata:    "Fetching metadata",
	progress.StageDownloading: "Downloading",
	progress.StageExtracting:  "Extracting audio",
	progress.StageConverting:  "Converting frames",
}

// Plain reports progress as line-oriented text with a progress bar per
// stage, for --no-ui and for output that is not a terminal.
type Plain struct {
	mu      sync.Mutex
	w       io.Writer
	verbose bool

	stage progress.Stage
	bar   *progressbar.ProgressBar
	limit int

	heading *color.Color
	failed  *color.Color
	done    *color.Color
}

// NewPlain writes to w. When verbose is set, raw tool output is echoed too.
func NewPlain(w io.Writer, verbose bool) *Plain {
	return &Plain{
		w:       w,
		verbose: verbose,
		heading: color.New(color.FgCyan, color.Bold),
		failed:  color.New(color.FgRed),
		done:    color.New(color.FgGreen),
	}
}

func (p *Plain) Update(u progress.Update) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if u.Stage == progress.StageCompleted || u.Stage == progress.StageError {
		p.finishBar()
		p.stage = u.Stage
		return
	}
	if u.Stage != p.stage {
		p.finishBar()
		p.stage = u.Stage
		title, ok := stageTitles[u.Stage]
		if !ok {
			title = string(u.Stage)
		}
		p.heading.Fprintf(p.w, "==> %s\n", title)
	}

	limit, value := 100, int(u.Percent)
	if u.Stage == progress.StageConverting && u.Total > 0 {
		limit, value = u.Total, u.Current
	}
	if u.Percent < 0 && u.Total <= 0 {
		return
	}
	if p.bar == nil || p.limit != limit {
		p.finishBar()
		p.bar = p.newBar(limit)
		p.limit = limit
	}
	if u.Stage == progress.StageConverting && u.ETA != nil {
		p.bar.Describe("frames, ETA " + format.Clock(*u.ETA))
	}
	_ = p.bar.Set(value)
}

func (p *Plain) Log(l progress.Log) {
	if !p.verbose {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, l.Line)
}

func (p *Plain) Result(r progress.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finishBar()
	if r.Err != nil {
		p.failed.Fprintf(p.w, "✗ %v\n", r.Err)
		return
	}
	p.done.Fprintf(p.w, "✓ %d frames ready\n", r.Frames)
}

func (p *Plain) newBar(limit int) *progressbar.ProgressBar {
	opts := []progressbar.Option{
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetWidth(40),
	}
	// Converting carries its own estimate in the description.
	if p.stage == progress.StageConverting {
		opts = append(opts,
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription("frames"),
		)
	} else {
		opts = append(opts, progressbar.OptionSetPredictTime(true))
	}
	return progressbar.NewOptions(limit, opts...)
}

func (p *Plain) finishBar() {
	if p.bar == nil {
		return
	}
	if !p.bar.IsFinished() {
		_ = p.bar.Exit()
	}
	fmt.Fprintln(p.w)
	p.bar = nil
	p.limit = 0
}
