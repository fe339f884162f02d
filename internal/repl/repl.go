// Package repl is a line-oriented front end to a gallery session.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sena168/satujam/internal/display"
	"github.com/sena168/satujam/internal/gallery"
	"github.com/sena168/satujam/internal/gateway"
)

type REPL struct {
	in        io.Reader
	out       io.Writer
	err       io.Writer
	session   *gallery.Session
	generator gateway.Generator
	displayer *display.Displayer
	now       func() time.Time
	commands  map[string]Command
	running   bool
}

type Config struct {
	In        io.Reader
	Out       io.Writer
	Err       io.Writer
	Session   *gallery.Session
	Generator gateway.Generator
	// Displayer previews images inline. Nil disables previews.
	Displayer *display.Displayer
	// Now defaults to time.Now and is used for relative ages in listings.
	Now func() time.Time
}

func New(cfg *Config) *REPL {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	r := &REPL{
		in:        cfg.In,
		out:       cfg.Out,
		err:       cfg.Err,
		session:   cfg.Session,
		generator: cfg.Generator,
		displayer: cfg.Displayer,
		now:       now,
		commands:  make(map[string]Command),
	}
	r.registerCommands()
	return r
}

// Run reads commands until quit or end of input, then tears the gallery
// down so every image handle is released.
func (r *REPL) Run(ctx context.Context) error {
	defer r.session.Manager().Teardown()

	r.running = true
	r.printWelcome()

	scanner := bufio.NewScanner(r.in)
	for r.running {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.printPrompt()
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if err := r.execute(ctx, line); err != nil {
			fmt.Fprintf(r.err, "Error: %v\n", err)
		}
	}

	return scanner.Err()
}

func (r *REPL) execute(ctx context.Context, line string) error {
	parts := parseCommand(line)
	if len(parts) == 0 {
		return nil
	}

	cmdName := strings.ToLower(parts[0])
	args := parts[1:]

	cmd, ok := r.commands[cmdName]
	if !ok {
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmdName)
	}

	return cmd.Execute(ctx, r, args)
}

func (r *REPL) Stop() {
	r.running = false
}

func (r *REPL) printWelcome() {
	fmt.Fprintln(r.out, "satujam interactive mode")
	fmt.Fprintln(r.out, "Type 'help' for available commands, 'quit' to exit.")
	fmt.Fprintln(r.out)
}

func (r *REPL) printPrompt() {
	m := r.session.Manager()
	if sel, ok := m.Selected(); ok {
		fmt.Fprintf(r.out, "satujam [%d/%d] (%s)> ", m.Len(), m.Capacity(), gallery.ShortID(sel.ID))
		return
	}
	fmt.Fprintf(r.out, "satujam [%d/%d]> ", m.Len(), m.Capacity())
}

func (r *REPL) printStatus() {
	st := r.session.Status()
	if st.Message == "" {
		return
	}
	if st.IsError() {
		fmt.Fprintf(r.err, "%s\n", st.Message)
		return
	}
	fmt.Fprintln(r.out, st.Message)
}

func (r *REPL) preview(data []byte) {
	if r.displayer == nil {
		return
	}
	if err := r.displayer.Display(data); err != nil {
		fmt.Fprintf(r.err, "Warning: failed to display: %v\n", err)
	}
}

func parseCommand(line string) []string {
	var parts []string
	var current strings.Builder
	inQuotes := false
	quoteChar := rune(0)

	for _, ch := range line {
		switch {
		case ch == '"' || ch == '\'':
			if inQuotes && ch == quoteChar {
				inQuotes = false
				quoteChar = 0
			} else if !inQuotes {
				inQuotes = true
				quoteChar = ch
			} else {
				current.WriteRune(ch)
			}
		case ch == ' ' && !inQuotes:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(ch)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}
