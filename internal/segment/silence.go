package segment

import (
	"math"

	"scribe/internal/audio"
)

// Range is a half-open [StartMS, EndMS) interval in milliseconds.
type Range struct {
	StartMS int
	EndMS   int
}

// DetectSilence returns the silent ranges of pcm in chronological order.
func DetectSilence(pcm *audio.PCM, opts Options) []Range {
	opts = opts.withDefaults()
	length := pcm.DurationMS()
	if length < opts.MinSilenceLen {
		return nil
	}

	threshold := math.Pow(10, opts.SilenceThresh/20) * pcm.MaxAmplitude()
	energy := newEnergyIndex(pcm, length)

	var starts []int
	lastStart := length - opts.MinSilenceLen
	for i := 0; i <= lastStart; i += opts.SeekStep {
		if energy.rms(i, i+opts.MinSilenceLen) <= threshold {
			starts = append(starts, i)
		}
	}
	if lastStart%opts.SeekStep != 0 {
		if energy.rms(lastStart, length) <= threshold {
			starts = append(starts, lastStart)
		}
	}
	if len(starts) == 0 {
		return nil
	}

	var ranges []Range
	prev := starts[0]
	current := prev
	for _, start := range starts[1:] {
		continuous := start == prev+opts.SeekStep
		hasGap := start > prev+opts.MinSilenceLen
		if !continuous && hasGap {
			ranges = append(ranges, Range{StartMS: current, EndMS: prev + opts.MinSilenceLen})
			current = start
		}
		prev = start
	}
	return append(ranges, Range{StartMS: current, EndMS: prev + opts.MinSilenceLen})
}

// DetectNonsilent returns the speech ranges of pcm: the complement of the
// silent ranges. Audio without any silent range, and audio that is silent
// throughout, both produce no ranges.
func DetectNonsilent(pcm *audio.PCM, opts Options) []Range {
	silent := DetectSilence(pcm, opts)
	length := pcm.DurationMS()
	if len(silent) == 0 {
		return nil
	}
	if silent[0].StartMS == 0 && silent[0].EndMS >= length {
		return nil
	}

	var ranges []Range
	prevEnd := 0
	for _, r := range silent {
		if r.StartMS > prevEnd {
			ranges = append(ranges, Range{StartMS: prevEnd, EndMS: r.StartMS})
		}
		prevEnd = r.EndMS
	}
	if prevEnd < length {
		ranges = append(ranges, Range{StartMS: prevEnd, EndMS: length})
	}
	return ranges
}

// Split cuts pcm into padded speech segments indexed from 0.
func Split(pcm *audio.PCM, opts Options) []audio.Segment {
	opts = opts.withDefaults()
	speech := DetectNonsilent(pcm, opts)
	if len(speech) == 0 {
		return nil
	}

	padded := make([]Range, len(speech))
	for i, r := range speech {
		padded[i] = Range{StartMS: r.StartMS - opts.KeepSilence, EndMS: r.EndMS + opts.KeepSilence}
	}
	for i := 0; i+1 < len(padded); i++ {
		if next := padded[i+1].StartMS; next < padded[i].EndMS {
			mid := (padded[i].EndMS + next) / 2
			padded[i].EndMS = mid
			padded[i+1].StartMS = mid
		}
	}

	length := pcm.DurationMS()
	segments := make([]audio.Segment, 0, len(padded))
	for i, r := range padded {
		segments = append(segments, audio.NewSegment(i, max(r.StartMS, 0), min(r.EndMS, length), pcm))
	}
	return segments
}

// energyIndex answers window RMS queries in constant time using prefix sums of
// squared samples at millisecond granularity.
type energyIndex struct {
	pcm    *audio.PCM
	prefix []int64
}

func newEnergyIndex(pcm *audio.PCM, length int) energyIndex {
	prefix := make([]int64, length+1)
	var sum int64
	frame := 0
	for ms := 1; ms <= length; ms++ {
		end := pcm.FrameAt(ms)
		for ; frame < end; frame++ {
			base := frame * pcm.Channels
			for c := 0; c < pcm.Channels; c++ {
				s := int64(pcm.Samples[base+c])
				sum += s * s
			}
		}
		prefix[ms] = sum
	}
	return energyIndex{pcm: pcm, prefix: prefix}
}

func (e energyIndex) rms(startMS, endMS int) float64 {
	if endMS > len(e.prefix)-1 {
		endMS = len(e.prefix) - 1
	}
	count := (e.pcm.FrameAt(endMS) - e.pcm.FrameAt(startMS)) * e.pcm.Channels
	if count <= 0 {
		return 0
	}
	return math.Sqrt(float64(e.prefix[endMS]-e.prefix[startMS]) / float64(count))
}
