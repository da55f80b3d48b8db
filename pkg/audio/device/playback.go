package device

import (
	"fmt"
	"io"
	"sync"

	"github.com/gen2brain/malgo"
)

// Playback writes little-endian mono 16-bit PCM to the default output
// device. It satisfies the playback.Sink contract: the device starts
// suspended and Resume starts it on first use.
type Playback struct {
	ctx  *malgo.AllocatedContext
	dev  *malgo.Device
	ring *ring
	rate int

	mu      sync.Mutex
	started bool
	closed  bool
}

// OpenPlayback opens the default output device at the given sample rate.
// The device is initialized but not started; Resume starts it.
func OpenPlayback(rate int) (*Playback, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("device: init context: %w", err)
	}

	p := &Playback{
		ctx:  ctx,
		ring: newRing(rate * 2 * 5), // 5s of queued audio
		rate: rate,
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatS16
	cfg.Playback.Channels = 1
	cfg.SampleRate = uint32(rate)
	cfg.Alsa.NoMMap = 1

	dev, err := malgo.InitDevice(ctx.Context, cfg, malgo.DeviceCallbacks{
		Data: func(out, _ []byte, _ uint32) {
			// Zero-fills when the queue runs dry: silence, not blocking.
			p.ring.readNoWait(out)
		},
	})
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("device: open output: %w", err)
	}
	p.dev = dev
	return p, nil
}

// Resume starts the output device if it is not running. The call returns
// only after the device is started, so callers can order scheduling after it.
func (p *Playback) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return io.ErrClosedPipe
	}
	if p.started {
		return nil
	}
	if err := p.dev.Start(); err != nil {
		return fmt.Errorf("device: start output: %w", err)
	}
	p.started = true
	return nil
}

// Write queues PCM bytes for playout. Never blocks; if the queue overflows,
// the oldest queued audio is overwritten.
func (p *Playback) Write(b []byte) (int, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return 0, io.ErrClosedPipe
	}
	p.ring.write(b)
	return len(b), nil
}

// Close stops the device and releases it. Idempotent.
func (p *Playback) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	if p.started {
		_ = p.dev.Stop()
	}
	p.dev.Uninit()
	p.ring.closeWithError(io.ErrClosedPipe)
	err := p.ctx.Uninit()
	p.ctx.Free()
	return err
}
