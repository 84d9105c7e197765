package audio

import (
	"encoding/binary"
	"math"
	"testing"
)

func pcm16(samples ...int16) []byte {
	b := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(b[2*i:], uint16(s))
	}
	return b
}

func TestRMS_Silence(t *testing.T) {
	t.Parallel()

	if got := RMS(pcm16(0, 0, 0, 0)); got != 0 {
		t.Errorf("RMS of silence = %v, want 0", got)
	}
}

func TestRMS_Empty(t *testing.T) {
	t.Parallel()

	if got := RMS(nil); got != 0 {
		t.Errorf("RMS(nil) = %v, want 0", got)
	}
	// Odd-length input drops the trailing byte.
	if got := RMS([]byte{0x01}); got != 0 {
		t.Errorf("RMS of 1 byte = %v, want 0", got)
	}
}

func TestRMS_ConstantAmplitude(t *testing.T) {
	t.Parallel()

	got := RMS(pcm16(1000, -1000, 1000, -1000))
	if math.Abs(got-1000) > 1e-9 {
		t.Errorf("RMS = %v, want 1000", got)
	}
}

func TestRMS_Monotonic(t *testing.T) {
	t.Parallel()

	quiet := RMS(pcm16(100, -100, 100, -100))
	loud := RMS(pcm16(5000, -5000, 5000, -5000))
	if quiet >= loud {
		t.Errorf("RMS not monotonic in amplitude: quiet=%v loud=%v", quiet, loud)
	}
}
