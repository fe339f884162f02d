package repl

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/sena168/satujam/internal/gallery"
)

var (
	errNothingSelected = errors.New("no image selected - use 'select <n>' first")
	errNoActive        = errors.New("no image yet - use 'generate' first")
)

type Command interface {
	Name() string
	Aliases() []string
	Description() string
	Usage() string
	Execute(ctx context.Context, r *REPL, args []string) error
}

func allCommands() []Command {
	return []Command{
		&GenerateCommand{},
		&HistoryCommand{},
		&SelectCommand{},
		&SaveCommand{},
		&DeleteCommand{},
		&DismissCommand{},
		&ShowCommand{},
		&HelpCommand{},
		&QuitCommand{},
	}
}

func (r *REPL) registerCommands() {
	for _, cmd := range allCommands() {
		r.commands[cmd.Name()] = cmd
		for _, alias := range cmd.Aliases() {
			r.commands[alias] = cmd
		}
	}
}

// GenerateCommand sends a prompt through the generator
type GenerateCommand struct{}

func (c *GenerateCommand) Name() string        { return "generate" }
func (c *GenerateCommand) Aliases() []string   { return []string{"gen", "g"} }
func (c *GenerateCommand) Description() string { return "Generate a new image from a prompt" }
func (c *GenerateCommand) Usage() string       { return "generate <prompt>" }

func (c *GenerateCommand) Execute(ctx context.Context, r *REPL, args []string) error {
	prompt := strings.TrimSpace(strings.Join(args, " "))

	if err := r.session.Begin(prompt); err != nil {
		if errors.Is(err, gallery.ErrEmptyPrompt) {
			r.printStatus()
			return nil
		}
		return err
	}
	r.printStatus()

	res, err := r.generator.Generate(ctx, prompt)
	item, err := r.session.Complete(prompt, res, err)
	r.printStatus()
	if err != nil {
		return nil
	}

	fmt.Fprintf(r.out, "%s\n", item.Meta())
	r.preview(r.session.Manager().Active().Data)
	return nil
}

// HistoryCommand lists the gallery newest first
type HistoryCommand struct{}

func (c *HistoryCommand) Name() string        { return "history" }
func (c *HistoryCommand) Aliases() []string   { return []string{"h", "ls"} }
func (c *HistoryCommand) Description() string { return "List generated images, newest first" }
func (c *HistoryCommand) Usage() string       { return "history" }

func (c *HistoryCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	m := r.session.Manager()
	history := m.History()
	if len(history) == 0 {
		fmt.Fprintln(r.out, "No images yet")
		return nil
	}

	selectedID := ""
	if sel, ok := m.Selected(); ok {
		selectedID = sel.ID
	}

	for i, item := range history {
		marker := "  "
		if item.ID == selectedID {
			marker = "> "
		}
		fmt.Fprintf(r.out, "%s[%d] %s  %s, %s\n",
			marker,
			i+1,
			item.Meta(),
			humanize.Bytes(uint64(item.Handle.Size())),
			humanize.RelTime(item.CreatedAt, r.now(), "ago", "from now"))
		fmt.Fprintf(r.out, "      %s\n", item.DisplayPrompt())
	}

	return nil
}

// SelectCommand opens the context menu on an item
type SelectCommand struct{}

func (c *SelectCommand) Name() string        { return "select" }
func (c *SelectCommand) Aliases() []string   { return []string{"sel"} }
func (c *SelectCommand) Description() string { return "Select an image by number or id prefix" }
func (c *SelectCommand) Usage() string       { return "select <n|#n|id>" }

func (c *SelectCommand) Execute(_ context.Context, r *REPL, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s", c.Usage())
	}

	m := r.session.Manager()
	index, item, err := resolveItem(m, args[0])
	if err != nil {
		return err
	}

	// A new selection always replaces the previous one.
	m.Dispatch(gallery.OutsideClick{}, gallery.ContextRequest{
		ID:  item.ID,
		Pos: gallery.Position{X: 0, Y: index},
	})
	fmt.Fprintf(r.out, "Selected %s. Use 'save' or 'delete'.\n", gallery.ShortID(item.ID))
	return nil
}

// SaveCommand downloads the selected image
type SaveCommand struct{}

func (c *SaveCommand) Name() string        { return "save" }
func (c *SaveCommand) Aliases() []string   { return []string{"s", "download"} }
func (c *SaveCommand) Description() string { return "Save the selected image as <id>.png" }
func (c *SaveCommand) Usage() string       { return "save" }

func (c *SaveCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	if _, ok := r.session.Manager().Selected(); !ok {
		return errNothingSelected
	}

	out := r.session.Manager().Dispatch(gallery.SaveAction{})
	if out.Err != nil {
		return fmt.Errorf("failed to save image: %w", out.Err)
	}
	fmt.Fprintf(r.out, "Saved: %s\n", out.SavedPath)
	return nil
}

// DeleteCommand removes the selected image
type DeleteCommand struct{}

func (c *DeleteCommand) Name() string        { return "delete" }
func (c *DeleteCommand) Aliases() []string   { return []string{"del", "rm"} }
func (c *DeleteCommand) Description() string { return "Remove the selected image from the gallery" }
func (c *DeleteCommand) Usage() string       { return "delete" }

func (c *DeleteCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	if _, ok := r.session.Manager().Selected(); !ok {
		return errNothingSelected
	}

	out := r.session.Manager().Dispatch(gallery.DeleteAction{})
	if out.DeletedID == "" {
		return errNothingSelected
	}
	fmt.Fprintf(r.out, "Deleted %s\n", gallery.ShortID(out.DeletedID))
	return nil
}

// DismissCommand closes the context menu
type DismissCommand struct{}

func (c *DismissCommand) Name() string        { return "dismiss" }
func (c *DismissCommand) Aliases() []string   { return []string{"esc"} }
func (c *DismissCommand) Description() string { return "Clear the current selection" }
func (c *DismissCommand) Usage() string       { return "dismiss" }

func (c *DismissCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	r.session.Manager().Dispatch(gallery.OutsideClick{})
	return nil
}

// ShowCommand previews the active image or a history item
type ShowCommand struct{}

func (c *ShowCommand) Name() string        { return "show" }
func (c *ShowCommand) Aliases() []string   { return []string{"display", "view"} }
func (c *ShowCommand) Description() string { return "Display the active image or a history item" }
func (c *ShowCommand) Usage() string       { return "show [n|#n|id]" }

func (c *ShowCommand) Execute(_ context.Context, r *REPL, args []string) error {
	m := r.session.Manager()

	if len(args) == 0 {
		active := m.Active()
		if active == nil {
			return errNoActive
		}
		fmt.Fprintf(r.out, "%s\n", gallery.TruncatePrompt(active.Prompt))
		r.preview(active.Data)
		return nil
	}

	_, item, err := resolveItem(m, args[0])
	if err != nil {
		return err
	}
	data, err := item.Handle.Bytes()
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	fmt.Fprintf(r.out, "%s\n", item.DisplayPrompt())
	r.preview(data)
	return nil
}

// HelpCommand shows available commands
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Aliases() []string   { return []string{"?"} }
func (c *HelpCommand) Description() string { return "Show available commands" }
func (c *HelpCommand) Usage() string       { return "help" }

func (c *HelpCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	fmt.Fprintln(r.out, "Available commands:")
	fmt.Fprintln(r.out)

	for _, cmd := range allCommands() {
		aliases := ""
		if len(cmd.Aliases()) > 0 {
			aliases = fmt.Sprintf(" (%s)", strings.Join(cmd.Aliases(), ", "))
		}
		fmt.Fprintf(r.out, "  %-20s%s\n", cmd.Name()+aliases, cmd.Description())
		fmt.Fprintf(r.out, "                      Usage: %s\n", cmd.Usage())
	}

	return nil
}

// QuitCommand exits the REPL
type QuitCommand struct{}

func (c *QuitCommand) Name() string        { return "quit" }
func (c *QuitCommand) Aliases() []string   { return []string{"exit", "q"} }
func (c *QuitCommand) Description() string { return "Exit interactive mode" }
func (c *QuitCommand) Usage() string       { return "quit" }

func (c *QuitCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	fmt.Fprintln(r.out, "Goodbye!")
	r.Stop()
	return nil
}

// resolveItem finds an item by id prefix or by 1-based position. "#n" is
// always a position. A bare number is tried as an id prefix first so that
// all-digit ids still resolve to the item they name.
func resolveItem(m *gallery.Manager, ref string) (int, *gallery.Item, error) {
	history := m.History()

	if pos, ok := strings.CutPrefix(ref, "#"); ok {
		n, err := strconv.Atoi(pos)
		if err != nil {
			return 0, nil, fmt.Errorf("invalid position %q", truncate(ref, 12))
		}
		return itemAt(history, n)
	}

	var (
		found *gallery.Item
		index int
	)
	for i, item := range history {
		if !strings.HasPrefix(item.ID, ref) {
			continue
		}
		if found != nil {
			return 0, nil, fmt.Errorf("id prefix %q is ambiguous", truncate(ref, 12))
		}
		found, index = item, i
	}
	if found != nil {
		return index, found, nil
	}

	if n, err := strconv.Atoi(ref); err == nil {
		return itemAt(history, n)
	}
	return 0, nil, fmt.Errorf("no image with id %q", truncate(ref, 12))
}

func itemAt(history []*gallery.Item, n int) (int, *gallery.Item, error) {
	if n < 1 || n > len(history) {
		return 0, nil, fmt.Errorf("no image #%d (have %d)", n, len(history))
	}
	return n - 1, history[n-1], nil
}

// truncate cuts s to at most maxLen runes, ending in "...".
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
