package device

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
)

// Capture reads little-endian mono 16-bit PCM from the default microphone.
// It implements io.ReadCloser; reads block until audio is available.
type Capture struct {
	ctx  *malgo.AllocatedContext
	dev  *malgo.Device
	ring *ring
	rate int

	mu     sync.Mutex
	closed bool
}

// OpenCapture opens the default microphone at the given sample rate and
// starts capturing. The ring holds one second of audio; if the reader stalls
// longer than that, the oldest audio is overwritten.
func OpenCapture(rate int) (*Capture, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("device: init context: %w", err)
	}

	c := &Capture{
		ctx:  ctx,
		ring: newRing(rate * 2), // 1s of mono 16-bit
		rate: rate,
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatS16
	cfg.Capture.Channels = 1
	cfg.SampleRate = uint32(rate)
	cfg.Alsa.NoMMap = 1

	dev, err := malgo.InitDevice(ctx.Context, cfg, malgo.DeviceCallbacks{
		Data: func(_, in []byte, _ uint32) {
			c.ring.write(in)
		},
	})
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("device: open microphone: %w", err)
	}
	c.dev = dev

	if err := dev.Start(); err != nil {
		dev.Uninit()
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("device: start microphone: %w", err)
	}
	return c, nil
}

// SampleRate returns the capture rate in Hz.
func (c *Capture) SampleRate() int { return c.rate }

// Read blocks until microphone audio is available.
func (c *Capture) Read(p []byte) (int, error) {
	return c.ring.read(p)
}

// Close stops the microphone and releases the device. Pending reads unblock
// with io.ErrClosedPipe. Idempotent.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	_ = c.dev.Stop()
	c.dev.Uninit()
	c.ring.closeWithError(io.ErrClosedPipe)
	err := c.ctx.Uninit()
	// Free after a short grace so a callback mid-flight is not pulled out
	// from under the C side.
	time.AfterFunc(100*time.Millisecond, c.ctx.Free)
	return err
}
