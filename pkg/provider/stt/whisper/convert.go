package whisper

import "encoding/binary"

// pcmToFloat32Mono converts 16-bit signed little-endian PCM audio to mono
// float32 samples normalised to [-1.0, 1.0], down-mixing multi-channel input
// by averaging all channels per frame. Any trailing bytes that do not form a
// complete frame are silently ignored.
func pcmToFloat32Mono(pcm []byte, channels int) []float32 {
	if channels < 1 {
		channels = 1
	}
	frames := len(pcm) / (2 * channels)
	mono := make([]float32, frames)
	for i := range frames {
		var sum float32
		for ch := range channels {
			idx := (i*channels + ch) * 2
			sample := int16(binary.LittleEndian.Uint16(pcm[idx : idx+2]))
			sum += float32(sample) / 32768.0
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}
