// Package playback schedules decoded PCM payloads for gapless playout.
//
// Incoming audio arrives as base64 PCM chunks of arbitrary length. The
// Scheduler decodes each chunk and schedules it on a monotonic timeline:
// every chunk starts at max(clock now, end of the previous chunk), so chunks
// play back-to-back with no gaps or overlaps regardless of arrival jitter.
// Scheduling order follows enqueue order (FIFO).
package playback

import (
	"fmt"
	"sync"
	"time"

	"github.com/tablesight/tablesight/pkg/audio/pcm"
)

// Sink receives PCM bytes for immediate playout. Resume wakes a suspended
// output device; it is called and awaited before any chunk is scheduled so
// scheduling order is preserved.
type Sink interface {
	Write(p []byte) (int, error)
	Resume() error
}

// Clock is a monotonic time source. The zero point is arbitrary; only
// differences matter.
type Clock interface {
	Now() time.Duration
}

type wallClock struct{ start time.Time }

func (c wallClock) Now() time.Duration { return time.Since(c.start) }

// unit is one scheduled chunk, tracked from scheduling until its natural
// end. Tracking exists only so StopAll can cancel in bulk.
type unit struct {
	start *time.Timer
	end   *time.Timer
}

// Scheduler owns the playback timeline for one connection.
type Scheduler struct {
	sink   Sink
	format pcm.Format

	// test seams; default to the real clock and time.AfterFunc
	clock     Clock
	afterFunc func(d time.Duration, f func()) *time.Timer

	mu        sync.Mutex
	nextStart time.Duration
	scheduled map[uint64]*unit
	seq       uint64
}

// NewScheduler creates a Scheduler writing chunks of the given format to sink.
func NewScheduler(sink Sink, format pcm.Format) *Scheduler {
	return &Scheduler{
		sink:      sink,
		format:    format,
		clock:     wallClock{start: time.Now()},
		afterFunc: time.AfterFunc,
		scheduled: make(map[uint64]*unit),
	}
}

// Enqueue decodes a base64 PCM payload and schedules it on the timeline.
func (s *Scheduler) Enqueue(data string) error {
	raw, err := pcm.DecodeBase64(data)
	if err != nil {
		return fmt.Errorf("playback: %w", err)
	}
	return s.EnqueueBytes(raw)
}

// EnqueueBytes schedules raw PCM bytes on the timeline.
func (s *Scheduler) EnqueueBytes(raw []byte) error {
	if len(raw) == 0 {
		return nil
	}
	// Wake the sink before taking a slot on the timeline; a fire-and-forget
	// resume could reorder chunks behind a slow wake-up.
	if err := s.sink.Resume(); err != nil {
		return fmt.Errorf("playback: resume sink: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	start := max(now, s.nextStart)
	dur := s.format.Duration(int64(len(raw)))
	s.nextStart = start + dur

	id := s.seq
	s.seq++
	u := &unit{}
	u.start = s.afterFunc(start-now, func() {
		s.sink.Write(raw)
		s.mu.Lock()
		defer s.mu.Unlock()
		if cur, ok := s.scheduled[id]; ok {
			cur.end = s.afterFunc(dur, func() { s.remove(id) })
		}
	})
	s.scheduled[id] = u
	return nil
}

func (s *Scheduler) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scheduled, id)
}

// StopAll cancels every tracked unit and resets the timeline to zero. It is
// idempotent; stopping an already-fired unit is a no-op. Call only on a
// connect/disconnect boundary: a mid-stream reset makes playback stutter.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.scheduled {
		u.start.Stop()
		if u.end != nil {
			u.end.Stop()
		}
		delete(s.scheduled, id)
	}
	s.nextStart = 0
}

// Pending reports how many units are currently tracked.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scheduled)
}
