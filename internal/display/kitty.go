package display

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

const (
	escapeStart = "\x1b_G"
	escapeEnd   = "\x1b\\"
	chunkSize   = 4096
)

// KittyEncoder writes PNG data using the kitty graphics protocol.
type KittyEncoder struct {
	out     io.Writer
	columns int
	rows    int
}

func NewKittyEncoder(out io.Writer) *KittyEncoder {
	return &KittyEncoder{out: out}
}

// WithCellSize scales the image to the given terminal cell box. Zero keeps
// the native size for that axis.
func (e *KittyEncoder) WithCellSize(columns, rows int) *KittyEncoder {
	e.columns = columns
	e.rows = rows
	return e
}

func (e *KittyEncoder) Encode(data []byte) error {
	if len(data) == 0 {
		return nil
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	chunks := splitIntoChunks(encoded, chunkSize)

	for i, chunk := range chunks {
		var params []string
		if i == 0 {
			params = e.transmitParams()
		}
		if len(chunks) > 1 {
			more := 1
			if i == len(chunks)-1 {
				more = 0
			}
			params = append(params, fmt.Sprintf("m=%d", more))
		}

		if _, err := fmt.Fprintf(e.out, "%s%s;%s%s", escapeStart, strings.Join(params, ","), chunk, escapeEnd); err != nil {
			return err
		}
	}
	return nil
}

func (e *KittyEncoder) transmitParams() []string {
	params := []string{"a=T", "f=100", "q=2"}
	if e.columns > 0 {
		params = append(params, fmt.Sprintf("c=%d", e.columns))
	}
	if e.rows > 0 {
		params = append(params, fmt.Sprintf("r=%d", e.rows))
	}
	return params
}

func splitIntoChunks(s string, size int) []string {
	var chunks []string
	for len(s) > 0 {
		if len(s) < size {
			size = len(s)
		}
		chunks = append(chunks, s[:size])
		s = s[size:]
	}
	return chunks
}
