package pcm

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"
)

// base64ChunkSize bounds how much raw data is fed to the base64 encoder per
// step. Large payloads (screen frames, long audio buffers) are processed in
// fixed-size chunks so memory use stays proportional to the chunk, not the
// payload.
const base64ChunkSize = 32 * 1024

// Payload is a wire-ready media payload: base64 data plus a MIME tag.
type Payload struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Encode converts normalized float32 samples in [-1, 1] to a wire payload:
// little-endian signed 16-bit PCM, base64 encoded, tagged with the sample
// rate. Out-of-range samples are clamped before conversion.
//
// The scaling is asymmetric to match the signed 16-bit range: negative
// samples scale by 32768, non-negative by 32767.
func Encode(samples []float32, rate int) Payload {
	raw := make([]byte, len(samples)*2)
	for i, s := range samples {
		raw[i*2], raw[i*2+1] = sampleToBytes(s)
	}
	return Payload{
		MIMEType: fmt.Sprintf("audio/pcm;rate=%d", rate),
		Data:     EncodeBase64(raw),
	}
}

func sampleToBytes(s float32) (lo, hi byte) {
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	var v int16
	if s < 0 {
		v = int16(s * 32768)
	} else {
		v = int16(s * 32767)
	}
	return byte(v), byte(uint16(v) >> 8)
}

// EncodeBase64 base64-encodes raw bytes, processing the input in bounded
// chunks. Chunk boundaries are multiples of 3 bytes so concatenated output
// is a single valid base64 string with no intermediate padding.
func EncodeBase64(raw []byte) string {
	// Round down to a multiple of 3 to keep chunk outputs padding-free.
	const chunk = base64ChunkSize / 3 * 3

	var sb strings.Builder
	sb.Grow(base64.StdEncoding.EncodedLen(len(raw)))
	for len(raw) > chunk {
		sb.WriteString(base64.StdEncoding.EncodeToString(raw[:chunk]))
		raw = raw[chunk:]
	}
	sb.WriteString(base64.StdEncoding.EncodeToString(raw))
	return sb.String()
}

// DecodeBase64 is the inverse of EncodeBase64. It fails if the input is not
// valid base64.
func DecodeBase64(data string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("pcm: decode base64: %w", err)
	}
	return raw, nil
}

// ToFloat32 reinterprets raw bytes as little-endian signed 16-bit samples and
// converts them back to normalized float32, distributing samples round-robin
// across channels: sample i*channels+c lands in channel c, frame i. Frame
// count is the total sample count divided by the channel count; a trailing
// remainder is truncated.
func ToFloat32(raw []byte, channels int) [][]float32 {
	if channels < 1 {
		channels = 1
	}
	total := len(raw) / 2
	frames := total / channels

	out := make([][]float32, channels)
	for c := range out {
		out[c] = make([]float32, frames)
	}
	for i := 0; i < frames*channels; i++ {
		v := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		out[i%channels][i/channels] = float32(v) / 32768
	}
	return out
}

// BytesToFloat32 converts little-endian mono 16-bit PCM bytes to normalized
// float32 samples. A trailing odd byte is truncated.
func BytesToFloat32(raw []byte) []float32 {
	out := make([]float32, len(raw)/2)
	for i := range out {
		out[i] = float32(int16(binary.LittleEndian.Uint16(raw[i*2:]))) / 32768
	}
	return out
}
