//go:build !windows

package terminal

import (
	"fmt"
	"io"
)

// resize uses the xterm window-ops sequence; terminals that ignore it stay as they are.
func resize(out io.Writer, cols, rows int) error {
	_, err := fmt.Fprintf(out, "\x1b[8;%d;%dt", rows, cols)
	return err
}
