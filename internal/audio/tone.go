package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"time"

	"daybell/internal/ports"
)

// DefaultBeep is the fallback alarm tone: an 800Hz sine with a half-second
// exponential decay, the tier of last resort when every other source fails.
func DefaultBeep() ports.ToneSpec {
	return ports.ToneSpec{
		FrequencyHz: 800,
		Duration:    500 * time.Millisecond,
		SampleRate:  16000,
	}
}

// SynthesizeTone renders the tone as a 16-bit mono PCM WAV, entirely in
// memory so the fallback beep depends on no external asset.
func SynthesizeTone(spec ports.ToneSpec) []byte {
	if spec.FrequencyHz <= 0 {
		spec.FrequencyHz = 800
	}
	if spec.Duration <= 0 {
		spec.Duration = 500 * time.Millisecond
	}
	if spec.SampleRate <= 0 {
		spec.SampleRate = 16000
	}

	seconds := spec.Duration.Seconds()
	sampleCount := int(float64(spec.SampleRate) * seconds)
	samples := make([]int16, sampleCount)

	const amplitude = 0.6 * math.MaxInt16
	for i := range samples {
		t := float64(i) / float64(spec.SampleRate)
		envelope := math.Exp(-5 * t / seconds)
		samples[i] = int16(amplitude * envelope * math.Sin(2*math.Pi*spec.FrequencyHz*t))
	}

	return encodeWAV(samples, spec.SampleRate)
}

// encodeWAV frames PCM16 mono samples as a RIFF/WAVE byte stream.
func encodeWAV(samples []int16, sampleRate int) []byte {
	dataLen := len(samples) * 2

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2)) // byte rate
	binary.Write(&buf, binary.LittleEndian, uint16(2))            // block align
	binary.Write(&buf, binary.LittleEndian, uint16(16))           // bits per sample

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	binary.Write(&buf, binary.LittleEndian, samples)

	return buf.Bytes()
}
