// Package gallery manages the bounded, most-recent-first history of images
// generated during one client session, the positioned context menu used to
// act on a single item, and the save and delete actions behind it.
//
// A Manager is confined to one goroutine. Clients drive it from their event
// loop and never share it.
package gallery

import (
	"errors"
	"log/slog"
	"time"
	"unicode/utf8"
)

const (
	// MaxHistory is the number of items kept before the oldest is evicted.
	MaxHistory = 30

	// MaxPromptDisplay is the longest prompt shown untruncated.
	MaxPromptDisplay = 120

	shortIDLength = 8
)

var (
	ErrDuplicateID  = errors.New("item id already in history")
	ErrEmptyID      = errors.New("item id is empty")
	ErrNoDownloader = errors.New("no downloader configured")
	errEmptyImage   = errors.New("image data is empty")
)

type Position struct {
	X, Y int
}

// Item is one successful generation. Items are never mutated after insertion.
type Item struct {
	ID           string
	Prompt       string
	Handle       Handle
	CreatedLabel string
	CreatedAt    time.Time
}

// DisplayPrompt is the prompt as shown in listings.
func (i *Item) DisplayPrompt() string {
	return TruncatePrompt(i.Prompt)
}

// Meta is the secondary line shown under a history entry.
func (i *Item) Meta() string {
	return i.CreatedLabel + " · UUID: " + ShortID(i.ID)
}

// ActiveImage is what the main display shows. It keeps its own copy of the
// bytes so that deleting the matching history entry leaves it intact.
type ActiveImage struct {
	ID     string
	Prompt string
	Data   []byte
}

type ContextState struct {
	Visible    bool
	SelectedID string
	Position   Position
}

// Downloader writes an item's bytes somewhere local, named after its id.
type Downloader interface {
	Download(id string, data []byte) (string, error)
}

type Option func(*Manager)

func WithCapacity(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.capacity = n
		}
	}
}

func WithHandleStore(s HandleStore) Option {
	return func(m *Manager) {
		m.store = s
	}
}

func WithDownloader(d Downloader) Option {
	return func(m *Manager) {
		m.downloader = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

type Manager struct {
	history    []*Item
	active     *ActiveImage
	menu       ContextState
	capacity   int
	store      HandleStore
	downloader Downloader
	now        func() time.Time
	logger     *slog.Logger
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		capacity: MaxHistory,
		store:    MemoryStore{},
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.history = make([]*Item, 0, m.capacity)
	return m
}

// History returns a snapshot, most recent first.
func (m *Manager) History() []*Item {
	out := make([]*Item, len(m.history))
	copy(out, m.history)
	return out
}

func (m *Manager) Len() int {
	return len(m.history)
}

func (m *Manager) Capacity() int {
	return m.capacity
}

// Active returns the image on the main display, or nil.
func (m *Manager) Active() *ActiveImage {
	return m.active
}

func (m *Manager) Context() ContextState {
	return m.menu
}

func (m *Manager) Item(id string) (*Item, bool) {
	i := m.indexOf(id)
	if i < 0 {
		return nil, false
	}
	return m.history[i], true
}

// Selected returns the item the context menu is bound to.
func (m *Manager) Selected() (*Item, bool) {
	if !m.menu.Visible {
		return nil, false
	}
	return m.Item(m.menu.SelectedID)
}

// RecordSuccess stores a new generation at the front of the history,
// evicting and releasing the oldest item when over capacity, and makes it the
// active image.
func (m *Manager) RecordSuccess(id, prompt string, data []byte) (*Item, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	if m.indexOf(id) >= 0 {
		return nil, ErrDuplicateID
	}

	h, err := m.store.Create(data)
	if err != nil {
		return nil, err
	}

	now := m.now()
	item := &Item{
		ID:           id,
		Prompt:       prompt,
		Handle:       h,
		CreatedLabel: "Saved at " + now.Format("15:04"),
		CreatedAt:    now,
	}

	m.history = append(m.history, nil)
	copy(m.history[1:], m.history)
	m.history[0] = item

	for len(m.history) > m.capacity {
		last := len(m.history) - 1
		evicted := m.history[last]
		m.history[last] = nil
		m.history = m.history[:last]
		m.release(evicted, "evicted")
		if m.menu.SelectedID == evicted.ID {
			m.DismissContext()
		}
	}

	active := make([]byte, len(data))
	copy(active, data)
	m.active = &ActiveImage{ID: id, Prompt: prompt, Data: active}

	return item, nil
}

// SelectForContext opens the context menu for id at pos. Unknown ids are
// ignored and leave the menu state untouched.
func (m *Manager) SelectForContext(id string, pos Position) bool {
	if m.indexOf(id) < 0 {
		return false
	}
	m.menu = ContextState{Visible: true, SelectedID: id, Position: pos}
	return true
}

func (m *Manager) DismissContext() {
	m.menu = ContextState{}
}

// SaveSelected writes the selected item's bytes through the downloader as
// <id>.png and closes the menu. The bytes come from the item's handle, so
// nothing is fetched again. With no live selection it does nothing and
// returns an empty path.
func (m *Manager) SaveSelected() (string, error) {
	item, ok := m.Selected()
	defer m.DismissContext()
	if !ok {
		return "", nil
	}
	if m.downloader == nil {
		return "", ErrNoDownloader
	}

	data, err := item.Handle.Bytes()
	if err != nil {
		return "", err
	}
	path, err := m.downloader.Download(item.ID, data)
	if err != nil {
		return "", err
	}
	m.logger.Debug("item saved", "id", item.ID, "path", path)
	return path, nil
}

// DeleteSelected removes the selected item and releases its handle, then
// closes the menu. The active image is left as it is even when it shows the
// deleted item.
func (m *Manager) DeleteSelected() bool {
	id := m.menu.SelectedID
	visible := m.menu.Visible
	m.DismissContext()
	if !visible {
		return false
	}
	return m.remove(id)
}

// Teardown releases every remaining handle and clears all state.
func (m *Manager) Teardown() {
	for _, item := range m.history {
		m.release(item, "teardown")
	}
	m.history = m.history[:0]
	m.active = nil
	m.DismissContext()
}

func (m *Manager) remove(id string) bool {
	i := m.indexOf(id)
	if i < 0 {
		return false
	}
	item := m.history[i]
	copy(m.history[i:], m.history[i+1:])
	m.history[len(m.history)-1] = nil
	m.history = m.history[:len(m.history)-1]
	m.release(item, "deleted")
	return true
}

func (m *Manager) release(item *Item, reason string) {
	if err := item.Handle.Release(); err != nil {
		m.logger.Warn("failed to release image handle", "id", item.ID, "reason", reason, "error", err)
	}
}

func (m *Manager) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, item := range m.history {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// TruncatePrompt shortens prompts longer than MaxPromptDisplay runes to the
// first MaxPromptDisplay-3 runes plus an ellipsis.
func TruncatePrompt(prompt string) string {
	if utf8.RuneCountInString(prompt) <= MaxPromptDisplay {
		return prompt
	}
	runes := []rune(prompt)
	return string(runes[:MaxPromptDisplay-3]) + "…"
}

// ShortID is the id prefix shown next to each entry.
func ShortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}
