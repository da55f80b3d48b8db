// Package pcm provides types and utilities for working with PCM (Pulse Code
// Modulation) audio data.
//
// The package defines audio formats for common configurations (16-bit mono at
// various sample rates), arithmetic helpers for converting between byte
// counts, sample counts and durations, and the sample codec used on the wire:
// normalized float32 samples to little-endian int16, chunked base64, and a
// MIME tag carrying the sample rate.
//
// Example usage:
//
//	// Create a 16kHz mono format
//	format := pcm.L16Mono16K
//
//	// Calculate bytes needed for 20ms of audio
//	bytes := format.BytesInDuration(20 * time.Millisecond)
//
//	// Encode a block of microphone samples for transport
//	payload := pcm.Encode(samples, format.SampleRate())
package pcm
