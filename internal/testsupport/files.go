package testsupport

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"scribe/internal/audio"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	data := make([]byte, size)
	for i := range data {
		data[i] = 0x42
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Span is a stretch of synthetic audio. A zero Amplitude produces digital
// silence; otherwise a sine wave at Freq Hz with the given fraction of full
// scale is generated.
type Span struct {
	MS        int
	Amplitude float64
	Freq      float64
}

// Tone returns a span of audible sine wave.
func Tone(ms int) Span { return Span{MS: ms, Amplitude: 0.8, Freq: 440} }

// Silence returns a span of digital silence.
func Silence(ms int) Span { return Span{MS: ms} }

// BuildPCM concatenates spans into mono audio at sampleRate.
func BuildPCM(sampleRate int, spans ...Span) *audio.PCM {
	var samples []int
	for _, span := range spans {
		frames := span.MS * sampleRate / 1000
		for i := 0; i < frames; i++ {
			if span.Amplitude == 0 {
				samples = append(samples, 0)
				continue
			}
			v := span.Amplitude * 32767 * math.Sin(2*math.Pi*span.Freq*float64(i)/float64(sampleRate))
			samples = append(samples, int(v))
		}
	}
	return &audio.PCM{SampleRate: sampleRate, Channels: 1, Samples: samples}
}

// WriteWAV writes synthetic audio built from spans to path.
func WriteWAV(t testing.TB, path string, sampleRate int, spans ...Span) *audio.PCM {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	pcm := BuildPCM(sampleRate, spans...)
	if err := pcm.WriteWAV(path); err != nil {
		t.Fatalf("write wav %s: %v", path, err)
	}
	return pcm
}
