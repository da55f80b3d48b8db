// Package audio is an umbrella for the audio sub-packages:
//
//   - pcm: PCM format arithmetic and the base64 sample codec
//   - device: microphone capture and speaker playback (miniaudio)
//   - resample: sample-rate conversion for mismatched devices
//   - capture: fixed-size block pipeline feeding the realtime session
package audio
