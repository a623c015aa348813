package terminal

import (
	"bytes"
	"testing"
)

func TestConsoleNoopWithoutTTY(t *testing.T) {
	var buf bytes.Buffer
	c := &Console{out: &buf, tty: false}
	if err := c.SetTitle("(0:01/0:10) 30/300"); err != nil {
		t.Fatal(err)
	}
	if err := c.Resize(180, 56); err != nil {
		t.Fatal(err)
	}
	if err := c.Prepare(); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %q to a non-terminal", buf.String())
	}
}

func TestConsoleSetTitle(t *testing.T) {
	var buf bytes.Buffer
	c := &Console{out: &buf, tty: true}
	if err := c.SetTitle("clip\x07 (0:01/0:10)"); err != nil {
		t.Fatal(err)
	}
	want := "\x1b]0;clip (0:01/0:10)\x07"
	if got := buf.String(); got != want {
		t.Errorf("SetTitle() wrote %q, want %q", got, want)
	}
}

func TestConsoleResizeRejectsZero(t *testing.T) {
	c := &Console{out: &bytes.Buffer{}, tty: true}
	if err := c.Resize(0, 10); err == nil {
		t.Error("Resize(0, 10) expected error")
	}
}
