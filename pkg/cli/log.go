package cli

import (
	"strings"
	"sync"
)

// LogWriter is an io.Writer that keeps the most recent log lines for the TUI
// log pane and signals arrivals on a channel. Writes never block.
type LogWriter struct {
	mu    sync.Mutex
	lines []string
	start int
	count int

	ch chan struct{}
}

// NewLogWriter creates a writer retaining up to maxLines lines.
func NewLogWriter(maxLines int) *LogWriter {
	if maxLines < 1 {
		maxLines = 1
	}
	return &LogWriter{
		lines: make([]string, maxLines),
		ch:    make(chan struct{}, 1),
	}
}

// Write splits the input on newlines and appends each line, evicting the
// oldest when full.
func (w *LogWriter) Write(p []byte) (int, error) {
	text := strings.TrimRight(string(p), "\n")

	w.mu.Lock()
	for _, line := range strings.Split(text, "\n") {
		if w.count == len(w.lines) {
			w.lines[w.start] = line
			w.start = (w.start + 1) % len(w.lines)
		} else {
			w.lines[(w.start+w.count)%len(w.lines)] = line
			w.count++
		}
	}
	w.mu.Unlock()

	select {
	case w.ch <- struct{}{}:
	default:
	}
	return len(p), nil
}

// Lines returns the retained lines, oldest first.
func (w *LogWriter) Lines() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, w.count)
	for i := 0; i < w.count; i++ {
		out = append(out, w.lines[(w.start+i)%len(w.lines)])
	}
	return out
}

// Changes returns the notification channel. Notifications coalesce.
func (w *LogWriter) Changes() <-chan struct{} {
	return w.ch
}
