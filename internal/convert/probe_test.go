package convert

import (
	"math"
	"testing"
)

func TestParseProbe(t *testing.T) {
	result, err := parseProbe([]byte(`{
		"streams": [
			{"index": 0, "codec_name": "mp3", "codec_type": "audio", "sample_rate": "44100", "channels": 2},
			{"index": 1, "codec_name": "mjpeg", "codec_type": "video"}
		],
		"format": {"duration": "61.250000", "size": "980000", "format_name": "mp3"}
	}`))
	if err != nil {
		t.Fatalf("parseProbe returned error: %v", err)
	}
	if result.AudioStreamCount() != 1 {
		t.Fatalf("expected 1 audio stream, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 61.25 {
		t.Fatalf("unexpected duration %v", result.DurationSeconds())
	}
}

func TestProbeDurationHandlesMissingAndInvalid(t *testing.T) {
	if d := (ProbeResult{}).DurationSeconds(); d != 0 {
		t.Fatalf("expected 0 for missing duration, got %v", d)
	}
	if d := (ProbeResult{Format: ProbeFormat{Duration: "N/A"}}).DurationSeconds(); d != 0 {
		t.Fatalf("expected 0 for N/A duration, got %v", d)
	}
	if d := (ProbeResult{Format: ProbeFormat{Duration: "1:02.5"}}).DurationSeconds(); !math.IsNaN(d) {
		t.Fatalf("expected NaN for invalid duration, got %v", d)
	}
}

func TestParseProbeRejectsGarbage(t *testing.T) {
	if _, err := parseProbe([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}
