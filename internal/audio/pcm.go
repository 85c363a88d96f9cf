package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const bitDepth = 16

// wavFormatPCM is the RIFF audio format tag for uncompressed integer PCM.
const wavFormatPCM = 1

// PCM is decoded signed 16-bit audio with interleaved channels.
type PCM struct {
	SampleRate int
	Channels   int
	Samples    []int
}

// Frames returns the number of sample frames (samples per channel).
func (p *PCM) Frames() int {
	if p == nil || p.Channels <= 0 {
		return 0
	}
	return len(p.Samples) / p.Channels
}

// DurationMS returns the length in whole milliseconds, rounded to nearest.
func (p *PCM) DurationMS() int {
	if p == nil || p.SampleRate <= 0 {
		return 0
	}
	frames := int64(p.Frames())
	rate := int64(p.SampleRate)
	return int((frames*1000 + rate/2) / rate)
}

// MaxAmplitude is the largest magnitude a sample can take (full scale).
func (p *PCM) MaxAmplitude() float64 {
	return float64(int(1) << (bitDepth - 1))
}

// FrameAt converts a millisecond offset to a frame index clamped to the buffer.
func (p *PCM) FrameAt(ms int) int {
	if ms <= 0 {
		return 0
	}
	frame := int(int64(ms) * int64(p.SampleRate) / 1000)
	if n := p.Frames(); frame > n {
		return n
	}
	return frame
}

// Slice returns the audio between two millisecond offsets. The result shares
// the underlying sample storage.
func (p *PCM) Slice(startMS, endMS int) *PCM {
	start := p.FrameAt(startMS)
	end := p.FrameAt(endMS)
	if end < start {
		end = start
	}
	return &PCM{
		SampleRate: p.SampleRate,
		Channels:   p.Channels,
		Samples:    p.Samples[start*p.Channels : end*p.Channels],
	}
}

// WriteWAV encodes the buffer as a 16-bit PCM WAV file at path.
func (p *PCM) WriteWAV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	enc := wav.NewEncoder(f, p.SampleRate, bitDepth, p.Channels, wavFormatPCM)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: p.Channels, SampleRate: p.SampleRate},
		Data:           p.Samples,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("finalize wav: %w", err)
	}
	return f.Close()
}

// DecodeWAV reads a 16-bit PCM WAV stream.
func DecodeWAV(r io.ReadSeeker) (*PCM, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("not a valid wav file")
	}
	if dec.BitDepth != bitDepth {
		return nil, fmt.Errorf("unsupported wav bit depth %d (want %d)", dec.BitDepth, bitDepth)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels <= 0 || buf.Format.SampleRate <= 0 {
		return nil, errors.New("decode wav: missing format information")
	}
	return &PCM{
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
		Samples:    buf.Data,
	}, nil
}

// Load decodes a canonical audio file. WAV files are decoded in-process; any
// other container is converted to raw PCM by ffmpeg at the requested rate and
// channel count.
func Load(ctx context.Context, ffmpegBinary, path string, sampleRate, channels int) (*PCM, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return DecodeWAV(f)
	}
	raw, err := extractPCM(ctx, ffmpegBinary, path, sampleRate, channels)
	if err != nil {
		return nil, err
	}
	return fromS16LE(raw, sampleRate, channels), nil
}

func extractPCM(ctx context.Context, ffmpegBinary, path string, sampleRate, channels int) ([]byte, error) {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", path,
		"-vn",
		"-ac", strconv.Itoa(channels),
		"-ar", strconv.Itoa(sampleRate),
		"-f", "s16le",
		"-",
	}
	cmd := exec.CommandContext(ctx, ffmpegBinary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg pcm extract: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

func fromS16LE(raw []byte, sampleRate, channels int) *PCM {
	samples := make([]int, len(raw)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(raw[i*2:])))
	}
	// Drop a trailing partial frame.
	samples = samples[:len(samples)-len(samples)%channels]
	return &PCM{SampleRate: sampleRate, Channels: channels, Samples: samples}
}
