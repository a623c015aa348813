package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	asciicmd "asciimation/internal/cli/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx))
}

func run(ctx context.Context) int {
	err := asciicmd.Execute(ctx)
	if err == nil {
		return asciicmd.ExitOK
	}
	red := color.New(color.FgRed).SprintFunc()
	var ee *asciicmd.ExitError
	if errors.As(err, &ee) {
		if ee.Err != nil {
			fmt.Fprintln(os.Stderr, red("error:"), ee.Err)
		}
		return ee.Code
	}
	fmt.Fprintln(os.Stderr, red("error:"), err)
	return asciicmd.ExitCLIError
}
