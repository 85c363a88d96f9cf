package audio_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"scribe/internal/audio"
	"scribe/internal/testsupport"
)

func TestWAVRoundTripPreservesSamples(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.wav")
	want := testsupport.WriteWAV(t, path, 16000, testsupport.Tone(250), testsupport.Silence(250))

	got, err := audio.Load(context.Background(), "", path, 16000, 1)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got.SampleRate != 16000 || got.Channels != 1 {
		t.Fatalf("unexpected format: rate=%d channels=%d", got.SampleRate, got.Channels)
	}
	if got.Frames() != want.Frames() {
		t.Fatalf("frames = %d, want %d", got.Frames(), want.Frames())
	}
	for i := range want.Samples {
		if got.Samples[i] != want.Samples[i] {
			t.Fatalf("sample %d = %d, want %d", i, got.Samples[i], want.Samples[i])
		}
	}
	if got.DurationMS() != 500 {
		t.Fatalf("duration = %d ms, want 500", got.DurationMS())
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	testsupport.WriteFile(t, path, 512)
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := audio.DecodeWAV(f); err == nil {
		t.Fatal("expected error decoding non-wav data")
	}
}

func TestSliceClampsAndSharesStorage(t *testing.T) {
	pcm := testsupport.BuildPCM(1000, testsupport.Tone(100))

	mid := pcm.Slice(20, 50)
	if mid.Frames() != 30 {
		t.Fatalf("frames = %d, want 30", mid.Frames())
	}
	mid.Samples[0] = 12345
	if pcm.Samples[20] != 12345 {
		t.Fatal("expected slice to share storage with source")
	}

	tail := pcm.Slice(90, 1000)
	if tail.Frames() != 10 {
		t.Fatalf("frames = %d, want 10", tail.Frames())
	}
	empty := pcm.Slice(80, 40)
	if empty.Frames() != 0 {
		t.Fatalf("frames = %d, want 0", empty.Frames())
	}
}

func TestSegmentWriteWAV(t *testing.T) {
	pcm := testsupport.BuildPCM(16000, testsupport.Tone(1000))
	seg := audio.NewSegment(3, 200, 700, pcm)
	if seg.DurationMS() != 500 {
		t.Fatalf("duration = %d", seg.DurationMS())
	}

	path := filepath.Join(t.TempDir(), "seg.wav")
	if err := seg.WriteWAV(path); err != nil {
		t.Fatalf("WriteWAV returned error: %v", err)
	}
	got, err := audio.Load(context.Background(), "", path, 16000, 1)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got.Frames() != 8000 {
		t.Fatalf("frames = %d, want 8000", got.Frames())
	}
	if got.Samples[0] != pcm.Samples[3200] {
		t.Fatalf("first sample = %d, want %d", got.Samples[0], pcm.Samples[3200])
	}
}
