// Package device provides microphone capture and speaker playback backed by
// miniaudio (via malgo).
//
// Capture exposes the microphone as an io.Reader of little-endian mono
// 16-bit PCM. Playback implements the playback.Sink contract: bytes written
// are queued for the device callback, and Resume starts a suspended device.
// The miniaudio callback runs on a realtime thread; both directions cross
// into Go land through a lock-free-enough byte ring that never blocks the
// callback.
package device

import (
	"fmt"

	"github.com/gen2brain/malgo"
)

// Info describes one audio device.
type Info struct {
	Name      string `json:"name"`
	IsDefault bool   `json:"isDefault"`
}

// Devices lists capture and playback devices.
func Devices() (captures, playbacks []Info, err error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("device: init context: %w", err)
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	caps, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, nil, fmt.Errorf("device: list capture: %w", err)
	}
	for _, d := range caps {
		captures = append(captures, Info{Name: d.Name(), IsDefault: d.IsDefault != 0})
	}

	plays, err := ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, nil, fmt.Errorf("device: list playback: %w", err)
	}
	for _, d := range plays {
		playbacks = append(playbacks, Info{Name: d.Name(), IsDefault: d.IsDefault != 0})
	}
	return captures, playbacks, nil
}
