package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"asciimation/internal/util/deps"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "doctor",
		Short:         "Diagnose external dependencies (yt-dlp/youtube-dl, ffmpeg, ffprobe)",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := loadOptions(cmd)
			if err != nil {
				return cliError(err)
			}
			ok := color.New(color.FgGreen).SprintFunc()
			bad := color.New(color.FgRed).SprintFunc()
			out := cmd.OutOrStdout()

			checks := []struct {
				name string
				find func() (string, error)
			}{
				{"Downloader", func() (string, error) { return deps.FindDownloader(opts.DLBinary) }},
				{"FFmpeg", deps.FindFFmpeg},
				{"FFprobe", deps.FindFFprobe},
			}
			var firstErr error
			for _, c := range checks {
				p, err := c.find()
				if err != nil {
					fmt.Fprintf(out, "%-11s %s %v\n", c.name+":", bad("✗"), err)
					if firstErr == nil {
						firstErr = err
					}
					continue
				}
				fmt.Fprintf(out, "%-11s %s %s\n", c.name+":", ok("✓"), p)
			}
			if firstErr != nil {
				return &ExitError{Code: ExitMissingDep, Err: firstErr}
			}
			return nil
		},
	}
}
