package device

import (
	"io"
	"sync"
)

// ring is a fixed-size byte ring shared between the miniaudio callback
// thread and a Go reader. Writes never block: when the ring is full the
// oldest bytes are overwritten so the freshest audio survives. Reads block
// until data arrives or the ring is closed.
type ring struct {
	mu   sync.Mutex
	cond *sync.Cond

	buf        []byte
	head, tail int64
	closeErr   error
}

func newRing(size int) *ring {
	r := &ring{buf: make([]byte, size)}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// write copies p into the ring, overwriting the oldest data when full.
func (r *ring) write(p []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closeErr != nil {
		return
	}

	size := int64(len(r.buf))
	if int64(len(p)) >= size {
		// Only the tail of p fits; everything older is gone anyway.
		p = p[int64(len(p))-size:]
		r.head, r.tail = 0, 0
	}

	for _, b := range p {
		r.buf[r.tail%size] = b
		r.tail++
	}
	if r.tail-r.head > size {
		r.head = r.tail - size
	}
	r.cond.Broadcast()
}

// read blocks until at least one byte is available, then copies up to len(p).
func (r *ring) read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for r.head == r.tail {
		if r.closeErr != nil {
			return 0, r.closeErr
		}
		r.cond.Wait()
	}

	size := int64(len(r.buf))
	n := 0
	for n < len(p) && r.head < r.tail {
		p[n] = r.buf[r.head%size]
		r.head++
		n++
	}
	return n, nil
}

// readNoWait copies available bytes into p and zero-fills the remainder.
// Safe to call from the realtime callback.
func (r *ring) readNoWait(p []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := int64(len(r.buf))
	n := 0
	for n < len(p) && r.head < r.tail {
		p[n] = r.buf[r.head%size]
		r.head++
		n++
	}
	for ; n < len(p); n++ {
		p[n] = 0
	}
}

func (r *ring) closeWithError(err error) {
	if err == nil {
		err = io.ErrClosedPipe
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closeErr == nil {
		r.closeErr = err
	}
	r.cond.Broadcast()
}
