package hud

import (
	"time"

	"github.com/google/uuid"
)

// Source identifies which side of the conversation a transcript entry
// belongs to.
type Source string

const (
	SourceUser      Source = "user"
	SourceAssistant Source = "assistant"
)

// Entry is one transcript line.
type Entry struct {
	ID        string    `json:"id"`
	Source    Source    `json:"source"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Transcript is an append-only sequence of entries. Fragments from the same
// source arriving within the merge window extend the previous entry instead
// of starting a new one, which keeps streaming partial transcripts readable.
// Merging assumes fragments arrive in order; the transport preserves message
// order so this is not re-verified here.
type Transcript struct {
	window  time.Duration
	entries []Entry

	now func() time.Time
}

// NewTranscript creates an empty transcript with the given merge window.
func NewTranscript(window time.Duration) *Transcript {
	return &Transcript{window: window, now: time.Now}
}

// Append adds text from a source, coalescing with the previous entry when it
// has the same source and is within the merge window. The merged entry's
// timestamp advances so that a continuous stream keeps merging.
func (t *Transcript) Append(src Source, text string) {
	if text == "" {
		return
	}
	now := t.now()
	if n := len(t.entries); n > 0 {
		last := &t.entries[n-1]
		if last.Source == src && now.Sub(last.Timestamp) <= t.window {
			last.Text += text
			last.Timestamp = now
			return
		}
	}
	t.entries = append(t.entries, Entry{
		ID:        uuid.NewString(),
		Source:    src,
		Text:      text,
		Timestamp: now,
	})
}

// Entries returns a copy of the transcript.
func (t *Transcript) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	return len(t.entries)
}

// Reset discards all entries.
func (t *Transcript) Reset() {
	t.entries = nil
}
