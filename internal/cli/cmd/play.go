package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"asciimation/internal/dirs"
	"asciimation/internal/logging"
	"asciimation/internal/model"
	"asciimation/internal/pipeline"
	"asciimation/internal/progress"
	"asciimation/internal/terminal"
	"asciimation/internal/ui"
	"asciimation/internal/util"
	"asciimation/internal/util/deps"
)

var (
	errNoSource = errors.New("missing video: pass a URL, magnet link or file")

	// Replaced in tests.
	stdinIsTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	askSource       = promptSource
)

func newPlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "play [url]",
		Short:         "Fetch, convert and play a video",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE:          runPlay,
	}
	bindPlayFlags(cmd.Flags())
	return cmd
}

// tools are the external binaries a run needs.
type tools struct {
	downloader string
	ffmpeg     string
}

func runPlay(cmd *cobra.Command, args []string) error {
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

	workdir, err := util.MakeTempWorkdir(dirs.TempBaseDir(), dirs.AppName())
	if err != nil {
		return cliError(fmt.Errorf("create working directory: %w", err))
	}
	defer func() {
		if opts.KeepTemp {
			log.Info().Str("workdir", workdir).Msg("keeping working directory")
			return
		}
		if rerr := os.RemoveAll(workdir); rerr != nil {
			log.Warn().Err(rerr).Str("workdir", workdir).Msg("failed to remove working directory")
		}
	}()

	jobID := filepath.Base(workdir)
	log = log.With().Str("run", jobID).Logger()
	console := terminal.NewConsole(os.Stdout)
	newService := func(rep progress.Reporter) *pipeline.Service {
		return pipeline.NewService(
			pipeline.WithDownloaderPath(tl.downloader),
			pipeline.WithFFmpegPath(tl.ffmpeg),
			pipeline.WithCLIOptions(opts),
			pipeline.WithReporter(rep),
			pipeline.WithLogger(log),
			pipeline.WithOutput(os.Stdout),
			pipeline.WithWindow(console),
			pipeline.WithJobID(jobID),
		)
	}

	ctx := cmd.Context()
	var prepared *pipeline.Prepared
	prepare := func(ctx context.Context, rep progress.Reporter) error {
		p, err := newService(rep).Prepare(ctx, src, workdir)
		prepared = p
		return err
	}
	if !opts.NoUI && console.IsTerminal() {
		err = ui.Run(ctx, src.Raw, os.Stdout, prepare)
	} else {
		err = prepare(ctx, ui.NewPlain(cmd.ErrOrStderr(), opts.Verbose))
	}
	if err != nil {
		return exitError(err)
	}

	return exitError(play(ctx, newService(progress.Nop{}), console, prepared, log))
}

func play(ctx context.Context, svc *pipeline.Service, console *terminal.Console, p *pipeline.Prepared, log zerolog.Logger) error {
	if err := console.Prepare(); err != nil {
		log.Debug().Err(err).Msg("prepare terminal")
	}
	defer func() {
		if err := console.Restore(); err != nil {
			log.Debug().Err(err).Msg("restore terminal")
		}
	}()
	return svc.Play(ctx, p)
}

// resolveSource classifies the positional argument, prompting for it when
// it is missing and stdin is interactive.
func resolveSource(args []string) (model.Source, error) {
	var raw string
	if len(args) > 0 {
		raw = args[0]
	}
	if strings.TrimSpace(raw) == "" {
		if !stdinIsTerminal() {
			return model.Source{}, cliError(errNoSource)
		}
		var err error
		if raw, err = askSource(); err != nil {
			return model.Source{}, err
		}
	}
	src, err := util.DetectSource(raw)
	if err != nil {
		return model.Source{}, cliError(err)
	}
	return src, nil
}

func promptSource() (string, error) {
	var raw string
	q := &survey.Input{
		Message: "Video URL, magnet link or file:",
		Help:    "Anything yt-dlp understands, a magnet:? link, or a path to a local video.",
	}
	if err := survey.AskOne(q, &raw, survey.WithValidator(survey.Required)); err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

// findTools locates the downloader when src needs one. ffmpeg and ffprobe
// are always required since the frame decoder runs them too.
func findTools(src model.Source, opts model.CLIOptions) (tools, error) {
	var tl tools
	if src.Kind == model.SourceWeb {
		p, err := deps.FindDownloader(opts.DLBinary)
		if err != nil {
			return tl, err
		}
		tl.downloader = p
	}
	p, err := deps.FindFFmpeg()
	if err != nil {
		return tl, err
	}
	tl.ffmpeg = p
	if _, err := deps.FindFFprobe(); err != nil {
		return tl, err
	}
	return tl, nil
}
