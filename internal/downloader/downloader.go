// Package downloader fetches the source video into the run's working directory.
package downloader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"asciimation/internal/model"
	"asciimation/internal/progress"
	"asciimation/internal/util"
)

// OutputBase is the file name (without extension) the video is saved under.
const OutputBase = "video"

// Options controls downloader behavior.
type Options struct {
	DownloaderPath string // Path to yt-dlp or youtube-dl
	Workdir        string // Run directory owned by the caller
	MetadataOnly   bool   // If true, only fetch metadata; do not download the media file

	Runner   util.CmdRunner
	Reporter progress.Reporter
	JobID    string
	Logger   *zerolog.Logger
}

func (o Options) runner() util.CmdRunner {
	if o.Runner == nil {
		return util.NewDefaultRunner()
	}
	return o.Runner
}

func (o Options) reporter() progress.Reporter {
	if o.Reporter == nil {
		return progress.Nop{}
	}
	return o.Reporter
}

// Download runs yt-dlp once, reading the JSON metadata and progress lines from
// the same invocation. Every failure wraps model.ErrRetrieval.
func Download(ctx context.Context, url string, opts Options) (model.DownloadedVideo, error) {
	if opts.DownloaderPath == "" {
		return model.DownloadedVideo{}, fmt.Errorf("%w: downloader path is required", model.ErrRetrieval)
	}
	if !opts.MetadataOnly && opts.Workdir == "" {
		return model.DownloadedVideo{}, fmt.Errorf("%w: working directory is required", model.ErrRetrieval)
	}
	rep := opts.reporter()
	rep.Update(progress.Update{
		JobID:   opts.JobID,
		Stage:   progress.StageMetadata,
		Percent: -1,
		Message: "Fetching metadata",
	})

	var (
		info    YTDLPInfo
		gotInfo bool
	)
	onLine := func(stream progress.LogStream) func(string) {
		return func(line string) {
			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, "{") {
				var tmp YTDLPInfo
				if json.Unmarshal([]byte(trimmed), &tmp) == nil && tmp.ID != "" {
					info, gotInfo = tmp, true
				}
				return
			}
			if u, ok := ParseProgress(trimmed, opts.JobID); ok {
				rep.Update(u)
				return
			}
			rep.Log(progress.Log{JobID: opts.JobID, Stream: stream, Line: line})
		}
	}

	res, runErr := opts.runner().Run(ctx, util.CmdSpec{
		Path:       opts.DownloaderPath,
		Args:       buildArgs(url, opts),
		Dir:        opts.Workdir,
		Logger:     opts.Logger,
		StdoutLine: onLine(progress.StreamStdout),
		StderrLine: onLine(progress.StreamStderr),
	})
	if runErr != nil {
		if ctx.Err() != nil {
			return model.DownloadedVideo{}, fmt.Errorf("%w: %w", model.ErrRetrieval, ctx.Err())
		}
		return model.DownloadedVideo{}, fmt.Errorf("%w: %v", model.ErrRetrieval, runErr)
	}
	if !gotInfo {
		parsed, err := parseMetadata(res.Stdout)
		if err != nil {
			return model.DownloadedVideo{}, fmt.Errorf("%w: %v", model.ErrRetrieval, err)
		}
		info = parsed
	}

	dv := model.DownloadedVideo{
		DurationSec: info.Duration,
		Title:       info.Title,
		Uploader:    info.Uploader,
		ID:          info.ID,
		Width:       info.Width,
		Height:      info.Height,
		FPS:         info.FPS,
		URL:         url,
	}
	if opts.MetadataOnly {
		return dv, nil
	}

	input, err := SelectDownloadedFile(opts.Workdir, OutputBase)
	if err != nil {
		return model.DownloadedVideo{}, fmt.Errorf("%w: %v", model.ErrRetrieval, err)
	}
	if !util.NonEmptyFile(input) {
		return model.DownloadedVideo{}, fmt.Errorf("%w: downloaded file %s is empty", model.ErrRetrieval, filepath.Base(input))
	}
	dv.InputPath = input
	return dv, nil
}

func buildArgs(url string, opts Options) []string {
	args := []string{
		"--dump-json",
		"-f", "bestvideo+bestaudio/best",
		"--no-playlist",
	}
	if !opts.MetadataOnly {
		args = append(args,
			"--no-simulate",
			"--progress",
			"--newline",
			"--merge-output-format", "mp4",
			"-o", filepath.Join(opts.Workdir, OutputBase+".%(ext)s"),
		)
	}
	return append(args, url)
}

// parseMetadata picks the last JSON object from captured stdout.
func parseMetadata(stdout []byte) (YTDLPInfo, error) {
	lines := strings.Split(strings.TrimSpace(string(stdout)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		var tmp YTDLPInfo
		if json.Unmarshal([]byte(line), &tmp) == nil && tmp.ID != "" {
			return tmp, nil
		}
	}
	return YTDLPInfo{}, errors.New("no metadata in downloader output")
}
