package audio

// Segment is a contiguous, time-ordered slice of canonical audio. Index is
// 0-based and matches the position of the segment's transcript fragment.
type Segment struct {
	Index   int
	StartMS int
	EndMS   int
	source  *PCM
}

// NewSegment describes the [startMS, endMS) window of source.
func NewSegment(index, startMS, endMS int, source *PCM) Segment {
	return Segment{Index: index, StartMS: startMS, EndMS: endMS, source: source}
}

// DurationMS returns the segment length in milliseconds.
func (s Segment) DurationMS() int {
	return s.EndMS - s.StartMS
}

// Audio returns the segment's samples.
func (s Segment) Audio() *PCM {
	if s.source == nil {
		return &PCM{}
	}
	return s.source.Slice(s.StartMS, s.EndMS)
}

// WriteWAV materializes the segment as a standalone WAV file.
func (s Segment) WriteWAV(path string) error {
	return s.Audio().WriteWAV(path)
}
