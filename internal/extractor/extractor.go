// Package extractor demuxes the soundtrack of a downloaded video with ffmpeg.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"asciimation/internal/model"
	"asciimation/internal/progress"
	"asciimation/internal/util"
)

// AudioFile is the name of the extracted track inside the working directory.
const AudioFile = "audio.mp3"

// Options control ffmpeg execution.
type Options struct {
	FFmpegPath  string
	OutputPath  string  // defaults to <dir of input>/audio.mp3
	DurationSec float64 // used for percent; 0 means unknown

	Runner   util.CmdRunner
	Reporter progress.Reporter
	JobID    string
	Logger   *zerolog.Logger
}

// Extract writes the audio track of inputPath and returns its path.
// Every failure wraps model.ErrExtraction.
func Extract(ctx context.Context, inputPath string, opts Options) (string, error) {
	if opts.FFmpegPath == "" {
		return "", fmt.Errorf("%w: ffmpeg path is required", model.ErrExtraction)
	}
	if inputPath == "" {
		return "", fmt.Errorf("%w: input path is required", model.ErrExtraction)
	}
	out := opts.OutputPath
	if out == "" {
		out = filepath.Join(filepath.Dir(inputPath), AudioFile)
	}
	runner := opts.Runner
	if runner == nil {
		runner = util.NewDefaultRunner()
	}
	rep := opts.Reporter
	if rep == nil {
		rep = progress.Nop{}
	}

	rep.Update(progress.Update{JobID: opts.JobID, Stage: progress.StageExtracting, Percent: -1, Message: "Extracting audio"})
	var ps ProgressState
	res, runErr := runner.Run(ctx, util.CmdSpec{
		Path:   opts.FFmpegPath,
		Args:   BuildAudioArgs(inputPath, out, true),
		Logger: opts.Logger,
		StdoutLine: func(line string) {
			if u, ok := ps.UpdateFromLine(line, opts.JobID, opts.DurationSec); ok {
				rep.Update(u)
			}
		},
	})
	if runErr != nil {
		_ = util.RemoveIfExists(out)
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %w", model.ErrExtraction, ctx.Err())
		}
		if strings.Contains(string(res.Stderr), "matches no streams") {
			return "", fmt.Errorf("%w: the video has no audio stream (use --no-audio): %v", model.ErrExtraction, runErr)
		}
		return "", fmt.Errorf("%w: %v", model.ErrExtraction, runErr)
	}
	if !util.NonEmptyFile(out) {
		return "", fmt.Errorf("%w: %w", model.ErrExtraction, errors.New("ffmpeg produced no audio file"))
	}
	return out, nil
}

// OutputIn returns the audio path used inside workdir.
func OutputIn(workdir string) string {
	return filepath.Join(workdir, AudioFile)
}
