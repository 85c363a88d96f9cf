package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateSilence(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAudio() error {
	for _, r := range c.Audio.TargetFormat {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return fmt.Errorf("audio.target_format %q must be a bare file extension", c.Audio.TargetFormat)
		}
	}
	if c.Audio.InputExtension == "."+c.Audio.TargetFormat {
		return errors.New("audio.target_format must differ from audio.input_extension")
	}
	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 192000 {
		return fmt.Errorf("audio.sample_rate %d out of range (8000-192000)", c.Audio.SampleRate)
	}
	if c.Audio.Channels > 8 {
		return fmt.Errorf("audio.channels %d out of range (1-8)", c.Audio.Channels)
	}
	switch c.Audio.CacheMode {
	case CacheModePath, CacheModeMtime, CacheModeHash:
	default:
		return fmt.Errorf("audio.cache_mode must be one of %q, %q, %q", CacheModePath, CacheModeMtime, CacheModeHash)
	}
	return nil
}

func (c *Config) validateSilence() error {
	if c.Silence.SilenceThreshDB >= 0 {
		return errors.New("silence.silence_thresh_db must be negative (dBFS)")
	}
	if c.Silence.SeekStepMS > c.Silence.MinSilenceLenMS {
		return errors.New("silence.seek_step_ms must not exceed silence.min_silence_len_ms")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.Backend {
	case BackendOpenAI:
	case BackendWhisperX:
		switch c.WhisperX.VADMethod {
		case "silero", "pyannote":
		default:
			return fmt.Errorf("whisperx.vad_method must be silero or pyannote, got %q", c.WhisperX.VADMethod)
		}
		if c.WhisperX.VADMethod == "pyannote" && c.WhisperX.HFToken == "" {
			return errors.New("whisperx.hf_token is required when whisperx.vad_method is pyannote")
		}
	default:
		return fmt.Errorf("transcription.backend must be %q or %q, got %q", BackendOpenAI, BackendWhisperX, c.Transcription.Backend)
	}
	if c.Transcription.Workers > 32 {
		return fmt.Errorf("transcription.workers %d out of range (1-32)", c.Transcription.Workers)
	}
	return nil
}

func (c *Config) validateLLM() error {
	if !strings.HasPrefix(c.LLM.BaseURL, "http://") && !strings.HasPrefix(c.LLM.BaseURL, "https://") {
		return fmt.Errorf("llm.base_url must be an http(s) URL, got %q", c.LLM.BaseURL)
	}
	return nil
}
