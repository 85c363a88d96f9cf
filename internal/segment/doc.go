// Package segment splits canonical audio into speech-bearing segments at
// silence boundaries.
//
// A window of MinSilenceLen milliseconds is slid across the recording in
// SeekStep increments; windows whose RMS is at or below SilenceThresh dBFS are
// silent. Adjacent silent windows merge into silent ranges, the complement is
// speech, and each speech range is padded by KeepSilence milliseconds on both
// sides. Where padding makes two neighbours overlap, the overlap is split at
// its midpoint so segments never share audio.
//
// A recording with no silence boundary at all, or one that is silent from end
// to end, yields zero segments and a NoSegmentsError.
package segment
