package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestKittyEncoder_Encode_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewKittyEncoder(&buf).Encode(nil); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Encode(nil) wrote %q", buf.String())
	}
}

func TestKittyEncoder_Encode_Small(t *testing.T) {
	var buf bytes.Buffer
	if err := NewKittyEncoder(&buf).Encode([]byte("test")); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	want := "\x1b_Ga=T,f=100,q=2;dGVzdA==\x1b\\"
	if got := buf.String(); got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestKittyEncoder_WithCellSize(t *testing.T) {
	tests := []struct {
		name    string
		columns int
		rows    int
		want    string
	}{
		{"native", 0, 0, "a=T,f=100,q=2;"},
		{"columns only", 40, 0, "a=T,f=100,q=2,c=40;"},
		{"both", 40, 12, "a=T,f=100,q=2,c=40,r=12;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			enc := NewKittyEncoder(&buf).WithCellSize(tt.columns, tt.rows)
			if err := enc.Encode([]byte("x")); err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if !strings.HasPrefix(buf.String(), escapeStart+tt.want) {
				t.Errorf("Encode() = %q, want prefix %q", buf.String(), escapeStart+tt.want)
			}
		})
	}
}

func TestKittyEncoder_Encode_Chunked(t *testing.T) {
	var buf bytes.Buffer
	enc := NewKittyEncoder(&buf).WithCellSize(20, 0)

	data := make([]byte, 5000)
	for i := range data {
		data[i] = byte(i % 256)
	}
	if err := enc.Encode(data); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	output := buf.String()
	if n := strings.Count(output, escapeStart); n != 2 {
		t.Fatalf("escape sequences = %d, want 2", n)
	}
	if strings.Count(output, "c=20") != 1 {
		t.Error("sizing should only be sent with the first chunk")
	}
	if !strings.Contains(output, "m=1;") || !strings.Contains(output, escapeStart+"m=0;") {
		t.Errorf("missing continuation flags in %q", output[:64])
	}
}

func TestKittyEncoder_Encode_SingleChunkBoundary(t *testing.T) {
	var buf bytes.Buffer
	data := make([]byte, (chunkSize*3)/4)

	if err := NewKittyEncoder(&buf).Encode(data); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if n := strings.Count(buf.String(), escapeStart); n != 1 {
		t.Errorf("escape sequences = %d, want 1", n)
	}
	if strings.Contains(buf.String(), "m=") {
		t.Error("single chunk should not carry a continuation flag")
	}
}

func TestSplitIntoChunks(t *testing.T) {
	tests := []struct {
		name  string
		input string
		size  int
		want  []string
	}{
		{"empty string", "", 10, nil},
		{"smaller than chunk", "hello", 10, []string{"hello"}},
		{"exact chunk size", "hello", 5, []string{"hello"}},
		{"multiple chunks", "hello world", 5, []string{"hello", " worl", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, splitIntoChunks(tt.input, tt.size)); diff != "" {
				t.Errorf("splitIntoChunks() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestKittyEncoder_WriteError(t *testing.T) {
	enc := NewKittyEncoder(&errorWriter{err: bytes.ErrTooLarge})
	if err := enc.Encode([]byte("test")); err == nil {
		t.Error("expected error from failing writer")
	}
}

type errorWriter struct {
	err error
}

func (w *errorWriter) Write(p []byte) (int, error) {
	return 0, w.err
}
