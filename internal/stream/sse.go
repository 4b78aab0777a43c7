// internal/stream/sse.go
package stream

import (
	"bufio"
	"io"
	"strings"
)

// wireEvent is one raw server-sent event before normalization.
type wireEvent struct {
	name string
	data string
}

// sseReader parses text/event-stream framing: "data:" lines accumulate
// until a blank line dispatches the event, "event:" names it, and ":"
// lines are comments. "id:" and "retry:" are accepted and ignored.
type sseReader struct {
	scanner *bufio.Scanner
}

func newSSEReader(r io.Reader) *sseReader {
	sc := bufio.NewScanner(r)
	// A single token payload can carry a full paragraph.
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &sseReader{scanner: sc}
}

// next returns the next complete event, or io.EOF at end of stream. A
// trailing event not terminated by a blank line is still delivered.
func (r *sseReader) next() (wireEvent, error) {
	var ev wireEvent
	var data []string
	seen := false

	for r.scanner.Scan() {
		line := r.scanner.Text()

		if line == "" {
			if !seen {
				continue
			}
			ev.data = strings.Join(data, "\n")
			return ev, nil
		}

		if strings.HasPrefix(line, ":") {
			// Comment, often used as a keep-alive.
			continue
		}

		field := line
		value := ""
		if i := strings.Index(line, ":"); i >= 0 {
			field = line[:i]
			value = strings.TrimPrefix(line[i+1:], " ")
		}

		switch field {
		case "event":
			ev.name = value
			seen = true
		case "data":
			data = append(data, value)
			seen = true
		}
	}

	if err := r.scanner.Err(); err != nil {
		return wireEvent{}, err
	}
	if seen {
		ev.data = strings.Join(data, "\n")
		return ev, nil
	}
	return wireEvent{}, io.EOF
}
