package transcribe_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"scribe/internal/audio"
	"scribe/internal/logging"
	"scribe/internal/services"
	"scribe/internal/testsupport"
	"scribe/internal/transcribe"
)

func makeSegments(n int) []audio.Segment {
	spans := make([]testsupport.Span, n)
	for i := range spans {
		spans[i] = testsupport.Tone(100)
	}
	pcm := testsupport.BuildPCM(16000, spans...)
	segments := make([]audio.Segment, n)
	for i := range segments {
		segments[i] = audio.NewSegment(i, i*100, (i+1)*100, pcm)
	}
	return segments
}

func segmentIndex(t *testing.T, path string) int {
	t.Helper()
	name := strings.TrimPrefix(filepath.Base(path), "segment_")
	idx, err := strconv.Atoi(name[:strings.Index(name, "_")])
	if err != nil {
		t.Errorf("parse segment index from %q: %v", path, err)
	}
	return idx
}

func newTranscriber(t *testing.T, workers int, timeout time.Duration, fn transcribe.RecognizerFunc) (*transcribe.Transcriber, string) {
	t.Helper()
	tmp := t.TempDir()
	opts := transcribe.Options{Workers: workers, SegmentTimeout: timeout, TempDir: tmp}
	return transcribe.NewWithOptions(opts, fn, logging.NewNop()), tmp
}

func TestTranscribePreservesOrderWithWorkers(t *testing.T) {
	segments := makeSegments(8)
	tr, _ := newTranscriber(t, 4, time.Second, func(_ context.Context, path string) (string, error) {
		idx := segmentIndex(t, path)
		time.Sleep(time.Duration(8-idx) * time.Millisecond)
		return fmt.Sprintf("word%d", idx), nil
	})

	transcript, err := tr.Transcribe(context.Background(), segments)
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if transcript.Len() != len(segments) {
		t.Fatalf("expected %d fragments, got %d", len(segments), transcript.Len())
	}
	for i, frag := range transcript.Fragments {
		if frag.Index != i || frag.Text != fmt.Sprintf("word%d", i) || frag.Status != transcribe.StatusRecognized {
			t.Fatalf("fragment %d out of place: %+v", i, frag)
		}
	}
	if got := transcript.Text(); got != "word0 word1 word2 word3 word4 word5 word6 word7" {
		t.Fatalf("unexpected joined text %q", got)
	}
}

func TestTranscribeClassifiesFailuresPerSegment(t *testing.T) {
	segments := makeSegments(6)
	tr, _ := newTranscriber(t, 2, time.Second, func(_ context.Context, path string) (string, error) {
		switch idx := segmentIndex(t, path); idx {
		case 1:
			return "", services.ErrUnrecognized
		case 2:
			return "", services.Wrap(services.ErrService, "stt", "recognize", "quota exceeded", nil)
		case 3:
			panic("backend exploded")
		case 4:
			return "", errors.New("malformed segment")
		default:
			return fmt.Sprintf("w%d", idx), nil
		}
	})

	transcript, err := tr.Transcribe(context.Background(), segments)
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	want := []struct {
		status transcribe.Status
		text   string
	}{
		{transcribe.StatusRecognized, "w0"},
		{transcribe.StatusUnintelligible, transcribe.DefaultMarker},
		{transcribe.StatusFailed, ""},
		{transcribe.StatusFailed, ""},
		{transcribe.StatusFailed, ""},
		{transcribe.StatusRecognized, "w5"},
	}
	if transcript.Len() != len(want) {
		t.Fatalf("expected %d fragments, got %d", len(want), transcript.Len())
	}
	for i, w := range want {
		frag := transcript.Fragments[i]
		if frag.Status != w.status || frag.Text != w.text {
			t.Fatalf("fragment %d: got %s %q, want %s %q", i, frag.Status, frag.Text, w.status, w.text)
		}
	}
	if !errors.Is(transcript.Fragments[2].Err, services.ErrService) {
		t.Fatalf("expected service error on fragment 2, got %v", transcript.Fragments[2].Err)
	}
	if got := transcript.Text(); got != "w0 ...    w5" {
		t.Fatalf("unexpected joined text %q", got)
	}
	recognized, unintelligible, failed := transcript.Counts()
	if recognized != 2 || unintelligible != 1 || failed != 3 {
		t.Fatalf("unexpected counts %d/%d/%d", recognized, unintelligible, failed)
	}
}

func TestTranscribeEmptyTextUsesMarker(t *testing.T) {
	tr := transcribe.NewWithOptions(
		transcribe.Options{TempDir: t.TempDir(), Marker: "[Unintelligible]"},
		transcribe.RecognizerFunc(func(context.Context, string) (string, error) { return "  ", nil }),
		logging.NewNop(),
	)
	transcript, err := tr.Transcribe(context.Background(), makeSegments(1))
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if frag := transcript.Fragments[0]; frag.Status != transcribe.StatusUnintelligible || frag.Text != "[Unintelligible]" {
		t.Fatalf("unexpected fragment %+v", frag)
	}
}

func TestTranscribeRemovesTemporaryFiles(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]bool{}
	tr, tmp := newTranscriber(t, 3, time.Second, func(_ context.Context, path string) (string, error) {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("segment file missing during recognition: %v", err)
		}
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		if _, err := audio.DecodeWAV(f); err != nil {
			t.Errorf("segment file is not a valid wav: %v", err)
		}
		mu.Lock()
		seen[path] = true
		mu.Unlock()
		if segmentIndex(t, path) == 2 {
			return "", errors.New("boom")
		}
		return "ok", nil
	})

	if _, err := tr.Transcribe(context.Background(), makeSegments(5)); err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if len(seen) != 5 {
		t.Fatalf("expected 5 unique segment files, got %d", len(seen))
	}
	for path := range seen {
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("segment file %s still exists", path)
		}
	}
	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected scratch directory to be removed, found %d entries", len(entries))
	}
}

func TestTranscribeTimeoutIsServiceError(t *testing.T) {
	tr, _ := newTranscriber(t, 1, 20*time.Millisecond, func(ctx context.Context, path string) (string, error) {
		if segmentIndex(t, path) == 0 {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "fine", nil
	})
	transcript, err := tr.Transcribe(context.Background(), makeSegments(2))
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	first := transcript.Fragments[0]
	if first.Status != transcribe.StatusFailed || !errors.Is(first.Err, services.ErrService) {
		t.Fatalf("expected timed out segment to be a service failure, got %+v", first)
	}
	if transcript.Fragments[1].Text != "fine" {
		t.Fatalf("expected second segment unaffected, got %+v", transcript.Fragments[1])
	}
}

func TestTranscribeCancelledContextKeepsAlignment(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tr, _ := newTranscriber(t, 2, time.Second, func(context.Context, string) (string, error) {
		return "never", nil
	})
	transcript, err := tr.Transcribe(ctx, makeSegments(4))
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if transcript.Len() != 4 {
		t.Fatalf("expected 4 fragments, got %d", transcript.Len())
	}
	for i, frag := range transcript.Fragments {
		if frag.Index != i {
			t.Fatalf("fragment %d has index %d", i, frag.Index)
		}
	}
}

func TestTranscribeScratchDirFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing", "deeper")
	tr := transcribe.NewWithOptions(
		transcribe.Options{TempDir: missing},
		transcribe.RecognizerFunc(func(context.Context, string) (string, error) { return "x", nil }),
		logging.NewNop(),
	)
	transcript, err := tr.Transcribe(context.Background(), makeSegments(3))
	if err == nil {
		t.Fatal("expected scratch dir error")
	}
	if transcript.Len() != 3 {
		t.Fatalf("expected aligned fragments, got %d", transcript.Len())
	}
	for _, frag := range transcript.Fragments {
		if frag.Status != transcribe.StatusFailed {
			t.Fatalf("expected failed fragment, got %+v", frag)
		}
	}
}
