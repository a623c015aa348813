// Package terminal wraps the escape sequences and window calls used during playback.
package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"asciimation/internal/ascii"
)

const (
	CursorHome  = ascii.CursorHome
	ClearScreen = "\x1b[2J"
	HideCursor  = "\x1b[?25l"
	ShowCursor  = "\x1b[?25h"
)

// Window is the cosmetic side of the terminal. Failures are never fatal.
type Window interface {
	SetTitle(title string) error
	Resize(cols, rows int) error
}

// Console drives a real terminal. Everything is a no-op when out is not a TTY.
type Console struct {
	out io.Writer
	fd  int
	tty bool
}

// NewConsole wraps f, usually os.Stdout.
func NewConsole(f *os.File) *Console {
	fd := int(f.Fd())
	return &Console{out: f, fd: fd, tty: term.IsTerminal(fd)}
}

// IsTerminal reports whether the console is attached to a TTY.
func (c *Console) IsTerminal() bool { return c.tty }

// SetTitle writes an OSC 0 title sequence.
func (c *Console) SetTitle(title string) error {
	if !c.tty {
		return nil
	}
	title = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, title)
	_, err := fmt.Fprintf(c.out, "\x1b]0;%s\x07", title)
	return err
}

// Resize asks the terminal to show cols x rows cells.
func (c *Console) Resize(cols, rows int) error {
	if !c.tty {
		return nil
	}
	if cols <= 0 || rows <= 0 {
		return fmt.Errorf("invalid window size %dx%d", cols, rows)
	}
	return resize(c.out, cols, rows)
}

// Size returns the current window size in cells.
func (c *Console) Size() (cols, rows int, err error) {
	return term.GetSize(c.fd)
}

// Prepare clears the screen and hides the cursor.
func (c *Console) Prepare() error {
	if !c.tty {
		return nil
	}
	_, err := io.WriteString(c.out, ClearScreen+CursorHome+HideCursor)
	return err
}

// Restore shows the cursor again and moves below the last frame.
func (c *Console) Restore() error {
	if !c.tty {
		return nil
	}
	_, err := io.WriteString(c.out, ShowCursor+"\n")
	return err
}
