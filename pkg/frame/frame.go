// Package frame captures still frames from a video source and serializes
// them into compressed, base64-encoded JPEG payloads for transport over a
// realtime session.
//
// A Capturer scales each grabbed frame onto a single reusable raster surface
// at a quality-dependent target width, preserving the source aspect ratio.
// The surface is shared across calls and is not safe for concurrent use:
// callers must serialize Capture calls.
package frame

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"

	"github.com/tablesight/tablesight/pkg/audio/pcm"
)

// Quality selects a capture preset.
type Quality int

const (
	// QualityLow is used by the periodic frame tick.
	QualityLow Quality = iota
	// QualityHigh is used by on-demand scans and deep analysis.
	QualityHigh
)

// Preset configures one capture quality level.
type Preset struct {
	// Width is the target raster width in pixels. Height is derived from
	// the source aspect ratio.
	Width int
	// JPEGQuality is the JPEG compression level, 1..100.
	JPEGQuality int
}

// Config holds the two capture presets.
type Config struct {
	Low  Preset
	High Preset
}

// DefaultConfig mirrors the assistant's stock presets: small cheap frames on
// the periodic tick, larger frames for explicit scans.
var DefaultConfig = Config{
	Low:  Preset{Width: 640, JPEGQuality: 60},
	High: Preset{Width: 1280, JPEGQuality: 85},
}

// Image is a serialized frame ready to send as a realtime input unit.
type Image struct {
	MIMEType string
	Data     string // base64
	Width    int
	Height   int
}

// Source produces raw frames. Grab returns (nil, nil) when no frame is
// available yet; that is a soft condition, not an error.
type Source interface {
	Grab() (image.Image, error)
	Close() error
}

// Capturer serializes frames from a Source.
//
// The zero value is not usable; use New.
type Capturer struct {
	src Source
	cfg Config

	// surface is the single reusable raster target. Its dimensions change
	// on every call that needs a different size.
	surface *image.RGBA
}

// New creates a Capturer reading from src with the given presets.
func New(src Source, cfg Config) *Capturer {
	if cfg.Low.Width == 0 {
		cfg.Low = DefaultConfig.Low
	}
	if cfg.High.Width == 0 {
		cfg.High = DefaultConfig.High
	}
	return &Capturer{src: src, cfg: cfg}
}

// Capture grabs the current frame, scales it to the preset width and encodes
// it as base64 JPEG. It returns (nil, nil) when the source has no frame to
// offer yet.
func (c *Capturer) Capture(q Quality) (*Image, error) {
	src, err := c.src.Grab()
	if err != nil {
		return nil, fmt.Errorf("frame: grab: %w", err)
	}
	if src == nil {
		return nil, nil
	}

	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, nil
	}

	preset := c.cfg.Low
	if q == QualityHigh {
		preset = c.cfg.High
	}

	w := preset.Width
	h := b.Dy() * w / b.Dx()
	if h < 1 {
		h = 1
	}

	if c.surface == nil || c.surface.Bounds().Dx() != w || c.surface.Bounds().Dy() != h {
		c.surface = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	draw.ApproxBiLinear.Scale(c.surface, c.surface.Bounds(), src, b, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, c.surface, &jpeg.Options{Quality: preset.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("frame: jpeg encode: %w", err)
	}

	return &Image{
		MIMEType: "image/jpeg",
		Data:     pcm.EncodeBase64(buf.Bytes()),
		Width:    w,
		Height:   h,
	}, nil
}

// Close releases the underlying source.
func (c *Capturer) Close() error {
	return c.src.Close()
}
