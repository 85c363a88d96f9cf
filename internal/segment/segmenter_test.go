package segment_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"scribe/internal/audio"
	"scribe/internal/logging"
	"scribe/internal/segment"
	"scribe/internal/services"
	"scribe/internal/testsupport"
)

const rate = 16000

func ranges(segs []audio.Segment) []segment.Range {
	out := make([]segment.Range, len(segs))
	for i, s := range segs {
		out[i] = segment.Range{StartMS: s.StartMS, EndMS: s.EndMS}
	}
	return out
}

func equalRanges(a, b []segment.Range) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDetectSilenceFindsGap(t *testing.T) {
	pcm := testsupport.BuildPCM(rate, testsupport.Tone(1000), testsupport.Silence(1000), testsupport.Tone(1000))

	got := segment.DetectSilence(pcm, segment.DefaultOptions())
	want := []segment.Range{{StartMS: 1000, EndMS: 2000}}
	if !equalRanges(got, want) {
		t.Fatalf("DetectSilence = %v, want %v", got, want)
	}

	speech := segment.DetectNonsilent(pcm, segment.DefaultOptions())
	wantSpeech := []segment.Range{{StartMS: 0, EndMS: 1000}, {StartMS: 2000, EndMS: 3000}}
	if !equalRanges(speech, wantSpeech) {
		t.Fatalf("DetectNonsilent = %v, want %v", speech, wantSpeech)
	}
}

func TestSplitPadsAndClamps(t *testing.T) {
	pcm := testsupport.BuildPCM(rate, testsupport.Tone(1000), testsupport.Silence(1000), testsupport.Tone(1000))

	segs := segment.Split(pcm, segment.DefaultOptions())
	want := []segment.Range{{StartMS: 0, EndMS: 1500}, {StartMS: 1500, EndMS: 3000}}
	if got := ranges(segs); !equalRanges(got, want) {
		t.Fatalf("Split = %v, want %v", got, want)
	}
	for i, s := range segs {
		if s.Index != i {
			t.Fatalf("segment %d has index %d", i, s.Index)
		}
	}
}

func TestSplitResolvesPaddingOverlapAtMidpoint(t *testing.T) {
	pcm := testsupport.BuildPCM(rate, testsupport.Tone(1000), testsupport.Silence(400), testsupport.Tone(1000))

	segs := segment.Split(pcm, segment.DefaultOptions())
	want := []segment.Range{{StartMS: 0, EndMS: 1200}, {StartMS: 1200, EndMS: 2400}}
	if got := ranges(segs); !equalRanges(got, want) {
		t.Fatalf("Split = %v, want %v", got, want)
	}
}

func TestSplitSegmentsAreOrderedAndDisjoint(t *testing.T) {
	pcm := testsupport.BuildPCM(rate,
		testsupport.Silence(700),
		testsupport.Tone(600), testsupport.Silence(900),
		testsupport.Tone(300), testsupport.Silence(350),
		testsupport.Tone(1200), testsupport.Silence(2000),
		testsupport.Tone(500),
	)

	segs := segment.Split(pcm, segment.DefaultOptions())
	if len(segs) != 4 {
		t.Fatalf("expected 4 segments, got %d: %v", len(segs), ranges(segs))
	}
	prevEnd := 0
	for i, s := range segs {
		if s.StartMS < prevEnd {
			t.Fatalf("segment %d starts at %d before previous end %d", i, s.StartMS, prevEnd)
		}
		if s.EndMS <= s.StartMS {
			t.Fatalf("segment %d is empty: %+v", i, s)
		}
		prevEnd = s.EndMS
	}
	if last := segs[len(segs)-1]; last.EndMS != pcm.DurationMS() {
		t.Fatalf("last segment should clamp to %d, got %d", pcm.DurationMS(), last.EndMS)
	}
}

func TestStricterThresholdYieldsFewerSegments(t *testing.T) {
	quiet := testsupport.Span{MS: 800, Amplitude: 0.01, Freq: 200}
	pcm := testsupport.BuildPCM(rate, testsupport.Tone(1000), quiet, testsupport.Tone(1000), quiet, testsupport.Tone(1000))

	loose := segment.DefaultOptions()
	strict := segment.DefaultOptions()
	strict.SilenceThresh = -60

	looseSegs := segment.Split(pcm, loose)
	strictSegs := segment.Split(pcm, strict)
	if len(looseSegs) != 3 {
		t.Fatalf("expected quiet passages to split at -35 dBFS, got %d segments", len(looseSegs))
	}
	if len(strictSegs) >= len(looseSegs) {
		t.Fatalf("expected fewer segments at -60 dBFS, got %d vs %d", len(strictSegs), len(looseSegs))
	}

	longer := segment.DefaultOptions()
	longer.MinSilenceLen = 1000
	if got := segment.Split(pcm, longer); len(got) >= len(looseSegs) {
		t.Fatalf("expected fewer segments with a longer silence window, got %d", len(got))
	}
}

func TestSeekStepCoversTrailingWindow(t *testing.T) {
	pcm := testsupport.BuildPCM(rate, testsupport.Tone(1000), testsupport.Silence(1005))
	opts := segment.DefaultOptions()
	opts.SeekStep = 10

	silent := segment.DetectSilence(pcm, opts)
	if len(silent) != 1 || silent[0].EndMS != pcm.DurationMS() {
		t.Fatalf("expected trailing silence to reach the end, got %v", silent)
	}
}

func TestSegmentReturnsNoSegmentsErrorForContinuousTone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.wav")
	testsupport.WriteWAV(t, path, rate, testsupport.Tone(3000))

	s := segment.NewWithOptions(segment.DefaultOptions(), logging.NewNop())
	segs, err := s.Segment(context.Background(), path)
	if len(segs) != 0 {
		t.Fatalf("expected zero segments, got %d", len(segs))
	}
	var nse *segment.NoSegmentsError
	if !errors.As(err, &nse) {
		t.Fatalf("expected NoSegmentsError, got %v", err)
	}
	if !errors.Is(err, services.ErrNoSegments) {
		t.Fatal("expected NoSegmentsError to match services.ErrNoSegments")
	}
	if nse.Silent {
		t.Fatal("continuous tone should not be reported as silent")
	}
}

func TestSegmentReturnsNoSegmentsErrorForSilence(t *testing.T) {
	pcm := testsupport.BuildPCM(rate, testsupport.Silence(2000))

	s := segment.NewWithOptions(segment.DefaultOptions(), logging.NewNop())
	_, err := s.SegmentPCM(context.Background(), "quiet.wav", pcm)
	var nse *segment.NoSegmentsError
	if !errors.As(err, &nse) || !nse.Silent {
		t.Fatalf("expected silent NoSegmentsError, got %v", err)
	}
}

func TestSegmentRejectsUndecodableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.wav")
	testsupport.WriteFile(t, path, 128)

	s := segment.NewWithOptions(segment.DefaultOptions(), logging.NewNop())
	if _, err := s.Segment(context.Background(), path); !errors.Is(err, services.ErrConversion) {
		t.Fatalf("expected conversion error, got %v", err)
	}
}
