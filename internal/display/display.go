// Package display previews images inline in terminals that speak the kitty
// graphics protocol.
package display

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"golang.org/x/term"
)

var (
	ErrNoData = errors.New("image has no data")
	ErrNotPNG = errors.New("inline preview supports PNG only")
)

type Displayer struct {
	out     io.Writer
	columns int
}

func New(out io.Writer) *Displayer {
	return &Displayer{out: out}
}

// WithColumns limits the preview width in terminal cells.
func (d *Displayer) WithColumns(n int) *Displayer {
	d.columns = n
	return d
}

func (d *Displayer) Display(data []byte) error {
	if len(data) == 0 {
		return ErrNoData
	}
	if http.DetectContentType(data) != "image/png" {
		return ErrNotPNG
	}

	enc := NewKittyEncoder(d.out).WithCellSize(d.columns, 0)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}

	fmt.Fprintln(d.out)
	return nil
}

// Supported reports whether out is a terminal that can show inline images.
func Supported(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return false
	}
	return IsTerminalSupported()
}

// IsTerminalSupported checks the environment for a kitty-protocol terminal.
func IsTerminalSupported() bool {
	termProgram := strings.ToLower(os.Getenv("TERM_PROGRAM"))
	supportedPrograms := []string{"kitty", "ghostty", "iterm.app", "wezterm"}

	for _, prog := range supportedPrograms {
		if termProgram == prog {
			return true
		}
	}

	if os.Getenv("KITTY_WINDOW_ID") != "" {
		return true
	}

	if os.Getenv("ITERM_SESSION_ID") != "" {
		return true
	}

	term := strings.ToLower(os.Getenv("TERM"))
	return strings.Contains(term, "kitty") || strings.Contains(term, "ghostty")
}
