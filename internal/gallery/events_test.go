package gallery

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDispatch_OutsideClickBeforeSelection(t *testing.T) {
	m, _ := newTestManager()
	record(t, m, 3)
	m.SelectForContext("id-00", Position{X: 1, Y: 1})

	// A right-click on another entry also counts as a click outside the open
	// menu; the order the events arrive in must not matter.
	orders := map[string][]Event{
		"outside first":  {OutsideClick{}, ContextRequest{ID: "id-02", Pos: Position{X: 5, Y: 6}}},
		"outside second": {ContextRequest{ID: "id-02", Pos: Position{X: 5, Y: 6}}, OutsideClick{}},
	}

	for name, events := range orders {
		t.Run(name, func(t *testing.T) {
			m.SelectForContext("id-00", Position{X: 1, Y: 1})
			m.Dispatch(events...)

			want := ContextState{Visible: true, SelectedID: "id-02", Position: Position{X: 5, Y: 6}}
			if diff := cmp.Diff(want, m.Context()); diff != "" {
				t.Errorf("Context() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDispatch_OutsideClickDismisses(t *testing.T) {
	m, _ := newTestManager()
	record(t, m, 1)
	m.SelectForContext("id-00", Position{})

	m.Dispatch(OutsideClick{})
	if m.Context().Visible {
		t.Error("menu visible after outside click")
	}
}

func TestDispatch_ContextRequestUnknownID(t *testing.T) {
	m, _ := newTestManager()
	record(t, m, 1)

	m.Dispatch(OutsideClick{}, ContextRequest{ID: "gone"})
	if m.Context().Visible {
		t.Error("menu visible for unknown id")
	}
}

func TestDispatch_Delete(t *testing.T) {
	m, store := newTestManager()
	record(t, m, 2)

	m.Dispatch(ContextRequest{ID: "id-00"})
	out := m.Dispatch(DeleteAction{})

	if out.DeletedID != "id-00" {
		t.Errorf("DeletedID = %q, want id-00", out.DeletedID)
	}
	if diff := cmp.Diff([]string{"id-01"}, ids(m.History())); diff != "" {
		t.Errorf("History mismatch (-want +got):\n%s", diff)
	}
	if store.handles[0].releases != 1 {
		t.Errorf("handle released %d times, want 1", store.handles[0].releases)
	}

	again := m.Dispatch(DeleteAction{})
	if again.DeletedID != "" {
		t.Errorf("second DeleteAction deleted %q", again.DeletedID)
	}
}

func TestDispatch_Save(t *testing.T) {
	d := &recordingDownloader{}
	m, _ := newTestManager(WithDownloader(d))
	record(t, m, 1)

	out := m.Dispatch(ContextRequest{ID: "id-00"}, SaveAction{})
	if out.Err != nil {
		t.Fatalf("Dispatch() error = %v", out.Err)
	}
	if out.SavedPath != "id-00.png" {
		t.Errorf("SavedPath = %q, want id-00.png", out.SavedPath)
	}
	if diff := cmp.Diff([]string{"id-00"}, d.ids); diff != "" {
		t.Errorf("downloaded ids mismatch (-want +got):\n%s", diff)
	}
	if string(d.data[0]) != "id-00" {
		t.Errorf("downloaded bytes = %q, want the stored bytes", d.data[0])
	}
	if m.Context().Visible {
		t.Error("menu visible after save")
	}
}

func TestDispatch_SaveError(t *testing.T) {
	failure := errors.New("read-only")
	m, _ := newTestManager(WithDownloader(&recordingDownloader{err: failure}))
	record(t, m, 1)

	out := m.Dispatch(ContextRequest{ID: "id-00"}, SaveAction{})
	if !errors.Is(out.Err, failure) {
		t.Errorf("Dispatch() error = %v, want %v", out.Err, failure)
	}
}
