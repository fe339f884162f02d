package gallery

// Event is one input the Manager reacts to.
type Event interface {
	isEvent()
}

// OutsideClick is any click that does not land on the context menu.
type OutsideClick struct{}

// ContextRequest is a right-click or long-press on a history entry.
type ContextRequest struct {
	ID  string
	Pos Position
}

type SaveAction struct{}

type DeleteAction struct{}

func (OutsideClick) isEvent()   {}
func (ContextRequest) isEvent() {}
func (SaveAction) isEvent()     {}
func (DeleteAction) isEvent()   {}

// Outcome reports the side effects of a Dispatch.
type Outcome struct {
	SavedPath string
	DeletedID string
	Err       error
}

// Dispatch applies the events produced by a single user gesture. Outside
// clicks are handled before anything else, so a right-click on another entry
// that also counts as an outside click ends with the new entry selected.
func (m *Manager) Dispatch(events ...Event) Outcome {
	var out Outcome

	for _, ev := range events {
		if _, ok := ev.(OutsideClick); ok {
			m.DismissContext()
		}
	}

	for _, ev := range events {
		switch e := ev.(type) {
		case ContextRequest:
			m.SelectForContext(e.ID, e.Pos)
		case SaveAction:
			path, err := m.SaveSelected()
			if err != nil && out.Err == nil {
				out.Err = err
			}
			if path != "" {
				out.SavedPath = path
			}
		case DeleteAction:
			id := m.menu.SelectedID
			if m.DeleteSelected() {
				out.DeletedID = id
			}
		}
	}
	return out
}
