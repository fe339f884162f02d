// Package tui is a terminal gallery client built on bubbletea.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/sena168/satujam/internal/gallery"
	"github.com/sena168/satujam/internal/gateway"
)

const (
	saveLabel   = "[s] Save"
	deleteLabel = "[d] Delete"
	menuGap     = "  "
	menuIndent  = "    "

	// rows taken by the title, input, status, active line, blank and header
	headerRows = 6
	footerRows = 2
)

type generatedMsg struct {
	prompt string
	res    *gateway.Result
	err    error
}

type Options struct {
	// Endpoint names the upstream in the title and placeholder.
	Endpoint string
	Now      func() time.Time
}

type Model struct {
	ctx       context.Context
	session   *gallery.Session
	generator gateway.Generator
	endpoint  string
	now       func() time.Time

	input   textinput.Model
	spinner spinner.Model

	cursor   int
	offset   int
	width    int
	height   int
	quitting bool
}

func NewModel(ctx context.Context, session *gallery.Session, gen gateway.Generator, opts Options) Model {
	if opts.Endpoint == "" {
		opts.Endpoint = "FLUX"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ti := textinput.New()
	ti.Placeholder = "ultra-detailed cinematic shot of a cyberpunk Jakarta street market at night"
	ti.Prompt = "> "
	ti.CharLimit = 2000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = statusStyle.Copy().Bold(true)

	return Model{
		ctx:       ctx,
		session:   session,
		generator: gen,
		endpoint:  opts.Endpoint,
		now:       opts.Now,
		input:     ti,
		spinner:   sp,
		width:     100,
		height:    40,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, msg.Width-4)
		m.clampOffset()
		return m, nil

	case generatedMsg:
		if _, err := m.session.Complete(msg.prompt, msg.res, msg.err); err == nil {
			m.cursor = 0
			m.offset = 0
		}
		return m, nil

	case spinner.TickMsg:
		if !m.session.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		return m.updateMouse(msg)

	case tea.KeyMsg:
		if m.menuVisible() {
			return m.updateMenu(msg)
		}
		return m.updateInput(msg)
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "enter":
		return m.submit()

	case "up":
		if m.cursor > 0 {
			m.cursor--
			m.clampOffset()
		}
		return m, nil

	case "down":
		if m.cursor < m.session.Manager().Len()-1 {
			m.cursor++
			m.clampOffset()
		}
		return m, nil

	case "tab":
		history := m.session.Manager().History()
		if m.cursor < len(history) {
			m.apply(gallery.ContextRequest{ID: history[m.cursor].ID})
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "s":
		m.apply(gallery.SaveAction{})
	case "d":
		m.apply(gallery.DeleteAction{})
	case "esc":
		m.apply(gallery.OutsideClick{})
	}
	return m, nil
}

func (m Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	lay := m.layout()

	switch msg.Type {
	case tea.MouseRight:
		index, ok := lay.items[msg.Y]
		if !ok {
			m.apply(gallery.OutsideClick{})
			return m, nil
		}
		id := m.session.Manager().History()[index].ID
		m.cursor = index
		m.apply(gallery.OutsideClick{}, gallery.ContextRequest{
			ID:  id,
			Pos: gallery.Position{X: msg.X, Y: msg.Y},
		})

	case tea.MouseLeft:
		if lay.menuRow >= 0 && msg.Y == lay.menuRow {
			switch {
			case lay.save.contains(msg.X):
				m.apply(gallery.SaveAction{})
				return m, nil
			case lay.delete.contains(msg.X):
				m.apply(gallery.DeleteAction{})
				return m, nil
			}
		}
		m.apply(gallery.OutsideClick{})
		if index, ok := lay.items[msg.Y]; ok {
			m.cursor = index
		}
	}
	return m, nil
}

func (m *Model) submit() (tea.Model, tea.Cmd) {
	prompt := strings.TrimSpace(m.input.Value())
	if err := m.session.Begin(prompt); err != nil {
		return *m, nil
	}
	return *m, tea.Batch(m.spinner.Tick, generate(m.ctx, m.generator, prompt))
}

func generate(ctx context.Context, gen gateway.Generator, prompt string) tea.Cmd {
	return func() tea.Msg {
		res, err := gen.Generate(ctx, prompt)
		return generatedMsg{prompt: prompt, res: res, err: err}
	}
}

// apply dispatches one gesture and reports menu outcomes on the status line.
func (m *Model) apply(events ...gallery.Event) {
	mgr := m.session.Manager()
	out := mgr.Dispatch(events...)

	switch {
	case out.Err != nil:
		m.session.SetStatus(gallery.StatusError, "Save failed: "+out.Err.Error())
	case out.SavedPath != "":
		m.session.SetStatus(gallery.StatusSuccess, "Saved "+out.SavedPath)
	case out.DeletedID != "":
		m.session.SetStatus(gallery.StatusSuccess, "Deleted "+gallery.ShortID(out.DeletedID))
	}

	if m.cursor >= mgr.Len() {
		m.cursor = max(0, mgr.Len()-1)
	}
	m.clampOffset()
	if mgr.Context().Visible {
		m.input.Blur()
	} else {
		m.input.Focus()
	}
}

func (m Model) menuVisible() bool {
	_, ok := m.session.Manager().Selected()
	return ok
}

func (m Model) visibleItems() int {
	return max(1, (m.height-headerRows-footerRows-1)/2)
}

func (m *Model) clampOffset() {
	visible := m.visibleItems()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// Quitting reports whether the user asked to leave.
func (m Model) Quitting() bool {
	return m.quitting
}

type span struct{ from, to int }

func (s span) contains(x int) bool {
	return x >= s.from && x < s.to
}

type screen struct {
	lines   []string
	items   map[int]int
	menuRow int
	save    span
	delete  span
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return strings.Join(m.layout().lines, "\n")
}

// layout renders the screen and records which rows hold history items and
// where the menu buttons sit, so clicks can be mapped back to the gallery.
func (m Model) layout() screen {
	mgr := m.session.Manager()
	s := screen{items: make(map[int]int), menuRow: -1}

	s.lines = append(s.lines,
		titleStyle.Render("satujam · "+m.endpoint),
		m.input.View(),
		m.statusLine(),
		m.activeLine(),
		"",
		headerStyle.Render(fmt.Sprintf("History (%d/%d)", mgr.Len(), mgr.Capacity())),
	)

	history := mgr.History()
	if len(history) == 0 {
		s.lines = append(s.lines, dimStyle.Render("No images yet. Every new generation is automatically saved here."))
	}

	menu := mgr.Context()
	end := min(len(history), m.offset+m.visibleItems())
	for i := m.offset; i < end; i++ {
		item := history[i]
		row := len(s.lines)
		s.items[row] = i
		s.items[row+1] = i

		meta := item.Meta() + "  " + humanize.Bytes(uint64(item.Handle.Size())) +
			", " + humanize.RelTime(item.CreatedAt, m.now(), "ago", "from now")
		marker := "  "
		if i == m.cursor {
			marker = cursorStyle.Render("› ")
		}
		if menu.Visible && menu.SelectedID == item.ID {
			meta = selectedStyle.Render(meta)
		}
		s.lines = append(s.lines, marker+meta, menuIndent+item.DisplayPrompt())

		if menu.Visible && menu.SelectedID == item.ID {
			s.menuRow = len(s.lines)
			from := lipgloss.Width(menuIndent)
			s.save = span{from, from + lipgloss.Width(saveLabel)}
			from = s.save.to + lipgloss.Width(menuGap)
			s.delete = span{from, from + lipgloss.Width(deleteLabel)}
			s.lines = append(s.lines, menuIndent+menuStyle.Render(saveLabel)+menuGap+menuStyle.Render(deleteLabel))
		}
	}

	s.lines = append(s.lines, "", m.helpLine())
	return s
}

func (m Model) statusLine() string {
	st := m.session.Status()
	switch st.Kind {
	case gallery.StatusLoading:
		return m.spinner.View() + " " + statusStyle.Render(st.Message)
	case gallery.StatusError:
		return errorStyle.Render(st.Message)
	case gallery.StatusSuccess:
		return successStyle.Render(st.Message)
	}
	return dimStyle.Render("Enter to generate.")
}

func (m Model) activeLine() string {
	active := m.session.Manager().Active()
	if active == nil {
		return dimStyle.Render(fmt.Sprintf("Your %s image will appear here. Add a prompt and hit Enter.", m.endpoint))
	}
	return fmt.Sprintf("Showing %s  %s  (%s)",
		gallery.ShortID(active.ID),
		gallery.TruncatePrompt(active.Prompt),
		humanize.Bytes(uint64(len(active.Data))))
}

func (m Model) helpLine() string {
	if m.menuVisible() {
		return helpStyle.Render("s save · d delete · esc close")
	}
	return helpStyle.Render("enter generate · ↑/↓ move · tab or right-click actions · ctrl+c quit")
}
