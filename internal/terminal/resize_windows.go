//go:build windows

package terminal

import (
	"io"
	"os"
	"os/exec"
	"strconv"
)

func resize(_ io.Writer, cols, rows int) error {
	cmd := exec.Command("cmd", "/c", "mode", "CON:", "cols="+strconv.Itoa(cols), "lines="+strconv.Itoa(rows))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
