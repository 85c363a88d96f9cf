// Package audio holds decoded canonical audio and the segments cut from it.
//
// PCM is interleaved signed 16-bit audio at a fixed sample rate and channel
// count. WAV files are decoded and encoded with go-audio; any other canonical
// container is decoded by piping it through ffmpeg as raw s16le.
//
// Segment is a millisecond window onto a shared PCM buffer. Segments never
// copy samples until they are materialized to disk with WriteWAV.
package audio
