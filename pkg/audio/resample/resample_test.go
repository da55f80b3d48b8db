package resample

import (
	"bytes"
	"io"
	"math"
	"testing"
)

func sineBytes(rate int, d float64, freq float64) []byte {
	n := int(float64(rate) * d)
	out := make([]byte, n*2)
	for i := 0; i < n; i++ {
		v := int16(math.Sin(2*math.Pi*freq*float64(i)/float64(rate)) * 16000)
		out[i*2] = byte(v)
		out[i*2+1] = byte(uint16(v) >> 8)
	}
	return out
}

func TestPassthrough(t *testing.T) {
	src := sineBytes(16000, 0.1, 440)
	r, err := New(bytes.NewReader(src), 16000, 16000)
	if err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, src) {
		t.Fatal("passthrough altered data")
	}
}

func TestDownsampleRatio(t *testing.T) {
	src := sineBytes(48000, 0.5, 440)
	r, err := New(bytes.NewReader(src), 48000, 16000)
	if err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}

	want := len(src) / 3
	// The filter may hold back or emit a few edge samples.
	if got := len(got); got < want*9/10 || got > want*11/10 {
		t.Fatalf("output %d bytes, want ~%d", got, want)
	}
}

func TestShortBuffer(t *testing.T) {
	r, err := New(bytes.NewReader(nil), 48000, 16000)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Read(make([]byte, 1)); err != io.ErrShortBuffer {
		t.Fatalf("err = %v, want ErrShortBuffer", err)
	}
}

func TestReadAfterClose(t *testing.T) {
	r, err := New(bytes.NewReader(sineBytes(48000, 0.1, 440)), 48000, 16000)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Read(make([]byte, 512)); err == nil {
		t.Fatal("expected error after close")
	}
}
