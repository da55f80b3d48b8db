// Package capture accumulates microphone audio into fixed-size sample blocks.
//
// A Blocker runs on its own goroutine, isolated from the orchestration
// loop: it fills a fixed-size buffer from the
// device reader and emits each full block exactly once on an outbound
// channel. The block size is a hard memory and latency bound. Emission never
// blocks the capture side: when the consumer lags, the oldest pending block
// is dropped and counted.
package capture

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/tablesight/tablesight/pkg/audio/pcm"
)

// DefaultBlockSize is the stock block size in samples.
const DefaultBlockSize = 4096

// Blocker reads little-endian mono 16-bit PCM from a source and emits
// normalized float32 blocks of a fixed sample count.
type Blocker struct {
	src   io.Reader
	size  int
	out   chan []float32
	drops atomic.Uint64

	mu  sync.Mutex
	err error
}

// NewBlocker starts a Blocker reading from src. blockSize is in samples;
// queue is the emission channel capacity. Zero values select defaults.
// The caller stops the Blocker by closing the source: the read loop exits on
// the first read error and closes the block channel.
func NewBlocker(src io.Reader, blockSize, queue int) *Blocker {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	if queue <= 0 {
		queue = 8
	}
	b := &Blocker{
		src:  src,
		size: blockSize,
		out:  make(chan []float32, queue),
	}
	go b.loop()
	return b
}

// Blocks returns the channel of full sample blocks. It is closed when the
// source ends.
func (b *Blocker) Blocks() <-chan []float32 {
	return b.out
}

// Dropped reports how many full blocks were discarded because the consumer
// was not keeping up.
func (b *Blocker) Dropped() uint64 {
	return b.drops.Load()
}

// Err returns the error that ended the read loop, or nil for a clean EOF.
func (b *Blocker) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

func (b *Blocker) loop() {
	defer close(b.out)

	// One fixed buffer per fill; the emitted block is a fresh copy so the
	// consumer never shares memory with the capture loop.
	buf := make([]byte, b.size*2)
	for {
		if _, err := io.ReadFull(b.src, buf); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) &&
				!errors.Is(err, io.ErrClosedPipe) {
				b.mu.Lock()
				b.err = err
				b.mu.Unlock()
			}
			return
		}

		block := pcm.BytesToFloat32(buf)
		select {
		case b.out <- block:
		default:
			// Drop the oldest pending block to make room; the freshest
			// audio wins.
			select {
			case <-b.out:
				b.drops.Add(1)
			default:
			}
			select {
			case b.out <- block:
			default:
				b.drops.Add(1)
			}
		}
	}
}
