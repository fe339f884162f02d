package display

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestDisplayer_Display(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf).WithColumns(32).Display(pngHeader); err != nil {
		t.Fatalf("Display() error = %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, escapeStart+"a=T,f=100,q=2,c=32;") {
		t.Errorf("Display() = %q, want kitty header with c=32", out)
	}
	if !strings.HasSuffix(out, escapeEnd+"\n") {
		t.Errorf("Display() should end with a newline after the image")
	}
}

func TestDisplayer_Display_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty", nil, ErrNoData},
		{"jpeg", []byte("\xff\xd8\xff\xe0\x00\x10JFIF"), ErrNotPNG},
		{"text", []byte("not an image"), ErrNotPNG},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := New(&buf).Display(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Display() error = %v, want %v", err, tt.wantErr)
			}
			if buf.Len() != 0 {
				t.Errorf("rejected image still wrote %d bytes", buf.Len())
			}
		})
	}
}

func TestSupported_NonTerminal(t *testing.T) {
	t.Setenv("TERM_PROGRAM", "kitty")

	var buf bytes.Buffer
	if Supported(&buf) {
		t.Error("Supported(buffer) = true, want false")
	}

	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if Supported(f) {
		t.Error("Supported(regular file) = true, want false")
	}
}

func TestIsTerminalSupported(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		want    bool
	}{
		{"kitty", map[string]string{"TERM_PROGRAM": "kitty"}, true},
		{"ghostty", map[string]string{"TERM_PROGRAM": "ghostty"}, true},
		{"iTerm2", map[string]string{"TERM_PROGRAM": "iTerm.app"}, true},
		{"WezTerm", map[string]string{"TERM_PROGRAM": "WezTerm"}, true},
		{"kitty window id", map[string]string{"KITTY_WINDOW_ID": "1"}, true},
		{"iterm session id", map[string]string{"ITERM_SESSION_ID": "w0t0p0"}, true},
		{"term contains kitty", map[string]string{"TERM": "xterm-kitty"}, true},
		{"unsupported terminal", map[string]string{"TERM_PROGRAM": "gnome-terminal", "TERM": "xterm-256color"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"TERM_PROGRAM", "KITTY_WINDOW_ID", "ITERM_SESSION_ID", "TERM"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			if got := IsTerminalSupported(); got != tt.want {
				t.Errorf("IsTerminalSupported() = %v, want %v", got, tt.want)
			}
		})
	}
}
