// Package resample converts mono 16-bit PCM audio between sample rates.
//
// A Reader wraps an io.Reader of little-endian PCM bytes at a source rate and
// yields PCM bytes at a destination rate. It is used to bring microphone
// audio captured at the device's native rate down to the session input rate.
package resample

import (
	"fmt"
	"io"
	"sync"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Reader resamples mono 16-bit PCM from srcRate to dstRate.
type Reader struct {
	src     io.Reader
	srcRate int
	dstRate int

	mu       sync.Mutex
	rs       resampling.Resampler
	readBuf  []byte
	leftover []byte
	closeErr error
}

// New creates a Reader converting from srcRate to dstRate. Equal rates yield
// a passthrough reader.
func New(src io.Reader, srcRate, dstRate int) (*Reader, error) {
	r := &Reader{src: src, srcRate: srcRate, dstRate: dstRate}
	if srcRate != dstRate {
		rs, err := resampling.New(&resampling.Config{
			InputRate:  float64(srcRate),
			OutputRate: float64(dstRate),
			Channels:   1,
			Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
		})
		if err != nil {
			return nil, fmt.Errorf("resample: %w", err)
		}
		r.rs = rs
	}
	return r, nil
}

// Read fills p with resampled PCM bytes. It reads as much source audio as the
// requested output needs, converts, and carries any excess over to the next
// call. Not safe for concurrent use.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) < 2 {
		return 0, io.ErrShortBuffer
	}
	p = p[:len(p)/2*2]

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.leftover) > 0 {
		n := copy(p, r.leftover)
		r.leftover = r.leftover[n:]
		return n, nil
	}
	if r.closeErr != nil {
		return 0, r.closeErr
	}
	if r.rs == nil {
		return r.src.Read(p)
	}

	// Estimate the source bytes needed for len(p) output bytes, padded a
	// few samples to keep the internal filter fed.
	need := len(p)*r.srcRate/r.dstRate + 8
	need = need / 2 * 2
	if cap(r.readBuf) < need {
		r.readBuf = make([]byte, need)
	}

	rn, readErr := r.src.Read(r.readBuf[:need])
	if rn == 0 {
		if readErr != nil {
			return 0, readErr
		}
		return 0, io.EOF
	}

	in := make([]float64, rn/2)
	for i := range in {
		s := int16(r.readBuf[i*2]) | int16(r.readBuf[i*2+1])<<8
		in[i] = float64(s) / 32768.0
	}

	out, err := r.rs.Process(in)
	if err != nil {
		return 0, fmt.Errorf("resample: %w", err)
	}

	outBytes := make([]byte, len(out)*2)
	for i, s := range out {
		var v int16
		switch {
		case s >= 1.0:
			v = 32767
		case s <= -1.0:
			v = -32768
		default:
			v = int16(s * 32767.0)
		}
		outBytes[i*2] = byte(v)
		outBytes[i*2+1] = byte(v >> 8)
	}

	n := copy(p, outBytes)
	if len(outBytes) > n {
		r.leftover = append(r.leftover, outBytes[n:]...)
	}
	return n, readErr
}

// Close marks the reader closed. Subsequent reads return io.ErrClosedPipe
// once buffered output is drained.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closeErr == nil {
		r.closeErr = fmt.Errorf("resample: %w", io.ErrClosedPipe)
	}
	r.rs = nil
	return nil
}
