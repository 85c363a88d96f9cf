package config

const (
	defaultAudioDir              = "audio_files"
	defaultConvertedDir          = "wav_files"
	defaultTranscriptDir         = "transcribed_text_files"
	defaultStateDir              = "~/.local/share/scribe"
	defaultInputExtension        = ".mp3"
	defaultTargetFormat          = "wav"
	defaultSampleRate            = 16000
	defaultChannels              = 1
	defaultCacheMode             = CacheModeMtime
	defaultMinSilenceLenMS       = 300
	defaultSilenceThreshDB       = -35.0
	defaultKeepSilenceMS         = 500
	defaultSeekStepMS            = 1
	defaultBackend               = BackendOpenAI
	defaultWorkers               = 1
	defaultSegmentTimeoutSeconds = 120
	defaultLanguage              = "en"
	defaultUnintelligibleMarker  = "..."
	defaultOpenAIModel           = "whisper-1"
	defaultWhisperXModel         = "large-v3-turbo"
	defaultWhisperXVADMethod     = "silero"
	defaultLLMBaseURL            = "https://openrouter.ai/api/v1"
	defaultLLMModel              = "openai/gpt-4o-mini"
	defaultLLMReferer            = "https://github.com/scribe-audio/scribe"
	defaultLLMTitle              = "Scribe Summarizer"
	defaultLLMTimeoutSeconds     = 60
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultWatchDebounceMS       = 2000
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			AudioDir:      defaultAudioDir,
			ConvertedDir:  defaultConvertedDir,
			TranscriptDir: defaultTranscriptDir,
			StateDir:      defaultStateDir,
		},
		Audio: Audio{
			InputExtension: defaultInputExtension,
			TargetFormat:   defaultTargetFormat,
			SampleRate:     defaultSampleRate,
			Channels:       defaultChannels,
			CacheMode:      defaultCacheMode,
			ProbeSource:    true,
		},
		Silence: Silence{
			MinSilenceLenMS: defaultMinSilenceLenMS,
			SilenceThreshDB: defaultSilenceThreshDB,
			KeepSilenceMS:   defaultKeepSilenceMS,
			SeekStepMS:      defaultSeekStepMS,
		},
		Transcription: Transcription{
			Backend:               defaultBackend,
			Workers:               defaultWorkers,
			SegmentTimeoutSeconds: defaultSegmentTimeoutSeconds,
			Language:              defaultLanguage,
			UnintelligibleMarker:  defaultUnintelligibleMarker,
		},
		OpenAI: OpenAI{
			Model: defaultOpenAIModel,
		},
		WhisperX: WhisperX{
			Model:     defaultWhisperXModel,
			VADMethod: defaultWhisperXVADMethod,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		History: History{
			Enabled: true,
		},
		Watch: Watch{
			DebounceMS: defaultWatchDebounceMS,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
