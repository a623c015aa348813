package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"asciimation/internal/ascii"
	"asciimation/internal/config"
	"asciimation/internal/model"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "asciimation [url]",
		Short: "Play videos as ASCII art in the terminal",
		Long: "asciimation fetches a video (web URL, magnet link or local file), extracts its soundtrack, " +
			"converts every frame to text in parallel and plays the result at the video's own frame rate.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE:          runPlay,
	}

	// Persistent flags available to all subcommands
	pf := root.PersistentFlags()
	pf.BoolP(config.KeyVerbose, "v", false, "Debug logging and raw tool output")
	pf.String(config.KeyLogLevel, config.DefaultLogLevel, "Log level: trace, debug, info, warn, error")
	pf.String(config.KeyLogFile, "", "Write logs to this file instead of stderr")
	pf.String(config.KeyDLBinary, "", "Path to yt-dlp or youtube-dl")

	// Also bind play flags on root, so `asciimation <url>` works.
	bindPlayFlags(root.Flags())

	root.AddCommand(newPlayCmd())
	root.AddCommand(newPlanCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newCompletionCmd())
	return root
}

func bindPlayFlags(fs *pflag.FlagSet) {
	fs.IntP(config.KeyWidth, "w", ascii.DefaultWidth, "Output width in characters")
	fs.Float64(config.KeyCorrection, ascii.DefaultCorrection, "Character aspect correction applied to the height")
	fs.String(config.KeyRamp, ascii.DefaultRamp, "Glyphs from darkest to brightest")
	fs.IntP(config.KeyWorkers, "j", 0, "Frames converted in parallel (0 = number of CPUs)")
	fs.Int(config.KeyMaxPending, 0, "Max frames decoded ahead of conversion (0 = unbounded)")
	fs.Int(config.KeyResizeEvery, config.DefaultResizeEvery, "Resize the terminal window every N frames (0 = never)")
	fs.Duration(config.KeyGrace, config.DefaultGrace, "How long to wait for audio after the last frame")
	fs.Bool(config.KeyNoAudio, false, "Skip audio extraction and playback")
	fs.Bool(config.KeyNoUI, false, "Disable the TUI; print plain progress")
	fs.Bool(config.KeyKeepTemp, false, "Keep the working directory after the run")
}

// Execute runs the CLI with the provided context.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// loadOptions resolves flags, env and config for cmd and validates them.
func loadOptions(cmd *cobra.Command) (model.CLIOptions, error) {
	v, err := config.Load(cmd.Flags())
	if err != nil {
		return model.CLIOptions{}, fmt.Errorf("config: %w", err)
	}
	opts := config.Options(v)
	return opts, validate(opts)
}

func validate(o model.CLIOptions) error {
	switch {
	case o.Width <= 0:
		return fmt.Errorf("invalid --width %d: must be positive", o.Width)
	case o.Correction <= 0:
		return fmt.Errorf("invalid --correction %v: must be positive", o.Correction)
	case o.Workers < 0:
		return fmt.Errorf("invalid --workers %d", o.Workers)
	case o.MaxPending < 0:
		return fmt.Errorf("invalid --max-pending %d", o.MaxPending)
	case o.ResizeEvery < 0:
		return fmt.Errorf("invalid --resize-every %d", o.ResizeEvery)
	case o.Grace < 0 || o.Grace > time.Minute:
		return fmt.Errorf("invalid --grace %v: must be between 0 and 1m", o.Grace)
	}
	if _, err := ascii.NewRamp(o.Ramp); err != nil {
		return fmt.Errorf("invalid --ramp: %w", err)
	}
	return nil
}
