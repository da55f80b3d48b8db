package frame

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/kbinani/screenshot"
)

// ErrScreenEnded is returned by ScreenSource.Grab once the source has been
// closed, either explicitly or because the display went away. Callers treat
// it the same way as the user stopping the share.
var ErrScreenEnded = errors.New("frame: screen capture ended")

// ScreenSource grabs frames from a local display.
type ScreenSource struct {
	display int

	mu     sync.Mutex
	closed bool
}

// OpenScreen opens display capture for the given display index.
func OpenScreen(display int) (*ScreenSource, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, errors.New("frame: no active displays")
	}
	if display < 0 || display >= n {
		return nil, fmt.Errorf("frame: display %d out of range (have %d)", display, n)
	}
	return &ScreenSource{display: display}, nil
}

// Grab captures the current display contents.
func (s *ScreenSource) Grab() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrScreenEnded
	}
	img, err := screenshot.CaptureDisplay(s.display)
	if err != nil {
		// A failing display (disconnected, locked session) behaves like
		// an externally ended share.
		return nil, fmt.Errorf("%w: %v", ErrScreenEnded, err)
	}
	return img, nil
}

// Close marks the source ended. Subsequent Grab calls return ErrScreenEnded.
func (s *ScreenSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
