package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"asciimation/internal/logging"
	"asciimation/internal/pipeline"
	"asciimation/internal/util/format"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "plan [url]",
		Short:         "Show what would be played (metadata-only) without downloading",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE:          runPlan,
	}
	// Reuse same flags; plan ignores the playback ones
	bindPlayFlags(cmd.Flags())
	return cmd
}

func runPlan(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return cliError(err)
	}
	log, closeLog, err := logging.New(logging.Options{
		Level:   opts.LogLevel,
		Verbose: opts.Verbose,
		File:    opts.LogFile,
		Console: cmd.ErrOrStderr(),
	})
	if err != nil {
		return cliError(err)
	}
	defer closeLog()

	src, err := resolveSource(args)
	if err != nil {
		return exitError(err)
	}
	tl, err := findTools(src, opts)
	if err != nil {
		return exitError(err)
	}

	svc := pipeline.NewService(
		pipeline.WithDownloaderPath(tl.downloader),
		pipeline.WithFFmpegPath(tl.ffmpeg),
		pipeline.WithCLIOptions(opts),
		pipeline.WithLogger(log),
	)
	pl, err := svc.Plan(cmd.Context(), src)
	if err != nil {
		return exitError(err)
	}
	printPlan(cmd.OutOrStdout(), pl)
	return nil
}

// printPlan outputs a dry-run plan of actions without executing them.
func printPlan(w io.Writer, pl *pipeline.Plan) {
	fmt.Fprintln(w, "Dry-run plan:")
	fmt.Fprintf(w, "- Source:         %s (%s)\n", pl.Source.Raw, pl.Source.Kind)
	if pl.Title != "" {
		fmt.Fprintf(w, "- Title:          %s\n", pl.Title)
	}
	if pl.Uploader != "" {
		fmt.Fprintf(w, "- Uploader:       %s\n", pl.Uploader)
	}
	if pl.DownloaderPath != "" {
		fmt.Fprintf(w, "- Downloader:     %s\n", pl.DownloaderPath)
	}
	fmt.Fprintf(w, "- FFmpeg:         %s\n", pl.FFmpegPath)
	if pl.DurationSec > 0 {
		fmt.Fprintf(w, "- Duration:       %s\n", format.Clock(time.Duration(pl.DurationSec*float64(time.Second))))
	}
	if pl.SourceWidth > 0 {
		fmt.Fprintf(w, "- Source size:    %dx%d\n", pl.SourceWidth, pl.SourceHeight)
	}
	if pl.Geometry != nil {
		fmt.Fprintf(w, "- Output size:    %dx%d characters\n", pl.Geometry.Width, pl.Geometry.Height)
	} else {
		fmt.Fprintln(w, "- Output size:    unknown until the video is fetched")
	}
	if pl.Interval > 0 {
		fmt.Fprintf(w, "- Frame rate:     %.3g fps (%v per frame)\n", pl.FPS, pl.Interval.Round(time.Microsecond))
	}
	if pl.EstFrames > 0 {
		fmt.Fprintf(w, "- Frames:         ~%d\n", pl.EstFrames)
	}
	fmt.Fprintf(w, "- Ramp:           %q\n", pl.Ramp)
	fmt.Fprintf(w, "- Workers:        %d\n", pl.Workers)
	fmt.Fprintf(w, "- Audio:          %v\n", pl.Audio)
}
