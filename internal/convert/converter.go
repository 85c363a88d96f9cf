package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"scribe/internal/config"
	"scribe/internal/fileutil"
	"scribe/internal/history"
	"scribe/internal/logging"
	"scribe/internal/services"
)

const lockRetryDelay = 100 * time.Millisecond

// Cache records which source state produced each canonical file.
// *history.Store satisfies it.
type Cache interface {
	LookupConversion(ctx context.Context, canonicalPath string) (history.Conversion, bool, error)
	PutConversion(ctx context.Context, c history.Conversion) error
	DeleteConversion(ctx context.Context, canonicalPath string) error
}

// Options controls how sources are re-encoded.
type Options struct {
	FFmpegBinary  string
	FFprobeBinary string
	SampleRate    int
	Channels      int
	CacheMode     string
	ProbeSource   bool
}

// OptionsFromConfig extracts the audio settings of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		FFmpegBinary:  cfg.FFmpegBinary(),
		FFprobeBinary: cfg.FFprobeBinary(),
		SampleRate:    cfg.Audio.SampleRate,
		Channels:      cfg.Audio.Channels,
		CacheMode:     cfg.Audio.CacheMode,
		ProbeSource:   cfg.Audio.ProbeSource,
	}
}

// Converter produces canonical audio files.
type Converter struct {
	opts   Options
	cache  Cache
	logger *slog.Logger

	commandRunner func(ctx context.Context, name string, args ...string) error
	prober        func(ctx context.Context, binary, path string) (ProbeResult, error)
}

// New builds a converter. cache may be nil, in which case mtime and hash
// modes fall back to comparing file modification times.
func New(cfg *config.Config, cache Cache, logger *slog.Logger) *Converter {
	return NewWithOptions(OptionsFromConfig(cfg), cache, logger)
}

// NewWithOptions builds a converter with explicit options.
func NewWithOptions(opts Options, cache Cache, logger *slog.Logger) *Converter {
	if opts.FFmpegBinary == "" {
		opts.FFmpegBinary = "ffmpeg"
	}
	if opts.FFprobeBinary == "" {
		opts.FFprobeBinary = "ffprobe"
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = 16000
	}
	if opts.Channels <= 0 {
		opts.Channels = 1
	}
	if opts.CacheMode == "" {
		opts.CacheMode = config.CacheModeMtime
	}
	return &Converter{
		opts:   opts,
		cache:  cache,
		logger: logging.NewComponentLogger(logger, "convert"),
		prober: Inspect,
	}
}

// WithCommandRunner replaces ffmpeg execution (for testing).
func (c *Converter) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	c.commandRunner = runner
}

// WithProber replaces ffprobe execution (for testing).
func (c *Converter) WithProber(prober func(ctx context.Context, binary, path string) (ProbeResult, error)) {
	c.prober = prober
}

// CanonicalPath returns where the canonical file for inputPath lives.
func CanonicalPath(inputPath, outputDir, targetFormat string) string {
	return filepath.Join(outputDir, fileutil.Stem(inputPath)+"."+strings.TrimPrefix(targetFormat, "."))
}

// Normalize returns the canonical file for inputPath, converting it when no
// valid cached copy exists. Failures are *ConversionError.
func (c *Converter) Normalize(ctx context.Context, inputPath, outputDir, targetFormat string) (string, error) {
	targetFormat = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(targetFormat), "."))
	if targetFormat == "" {
		return "", &ConversionError{Source: inputPath, Err: errors.New("target format required")}
	}
	logger := logging.WithContext(ctx, c.logger)

	srcInfo, err := os.Stat(inputPath)
	if err != nil {
		return "", &ConversionError{Source: inputPath, Err: err}
	}
	if srcInfo.IsDir() {
		return "", &ConversionError{Source: inputPath, Err: errors.New("source is a directory")}
	}

	canonical := CanonicalPath(inputPath, outputDir, targetFormat)
	if samePath(inputPath, canonical) {
		logger.Debug("source already canonical", logging.String("path", canonical))
		return canonical, nil
	}
	if hit, _ := c.cacheHit(ctx, inputPath, srcInfo, canonical); hit {
		logger.Debug("canonical cache hit", logging.String("path", canonical), logging.String("cache_mode", c.opts.CacheMode))
		return canonical, nil
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", &ConversionError{Source: inputPath, Err: fmt.Errorf("create output dir: %w", err)}
	}

	lock := flock.New(lockPath(canonical))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		if err == nil {
			err = errors.New("conversion lock not acquired")
		}
		return "", &ConversionError{Source: inputPath, Err: fmt.Errorf("lock %s: %w", filepath.Base(canonical), err)}
	}
	defer func() { _ = lock.Unlock() }()

	// Another worker may have finished the same conversion while we waited.
	hit, hash := c.cacheHit(ctx, inputPath, srcInfo, canonical)
	if hit {
		logger.Debug("canonical cache hit after lock", logging.String("path", canonical))
		return canonical, nil
	}

	start := time.Now()
	duration, err := c.convert(ctx, inputPath, canonical, targetFormat)
	if err != nil {
		c.forget(ctx, logger, canonical)
		return "", &ConversionError{Source: inputPath, Err: err}
	}
	c.record(ctx, logger, inputPath, srcInfo, canonical, targetFormat, hash)

	attrs := []logging.Attr{
		logging.String("source", filepath.Base(inputPath)),
		logging.String("canonical", canonical),
		logging.Duration("elapsed", time.Since(start)),
	}
	if duration > 0 {
		attrs = append(attrs, logging.Float64("duration_seconds", duration))
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "audio converted", attrs...)
	return canonical, nil
}

// cacheHit reports whether canonical is reusable. In hash mode the computed
// source hash is returned so a subsequent conversion can record it.
func (c *Converter) cacheHit(ctx context.Context, inputPath string, srcInfo os.FileInfo, canonical string) (bool, string) {
	canonInfo, err := os.Stat(canonical)
	if err != nil || canonInfo.IsDir() || canonInfo.Size() == 0 {
		return false, ""
	}
	if c.opts.CacheMode == config.CacheModePath {
		return true, ""
	}

	var hash string
	if c.opts.CacheMode == config.CacheModeHash {
		hash, err = fileutil.HashFile(inputPath)
		if err != nil {
			return false, ""
		}
	}

	if c.cache != nil {
		entry, found, err := c.cache.LookupConversion(ctx, canonical)
		if err != nil {
			c.logger.Debug("conversion ledger lookup failed", logging.Error(err))
		} else if found {
			if c.opts.CacheMode == config.CacheModeHash {
				return entry.ContentHash != "" && entry.ContentHash == hash, hash
			}
			return entry.SourcePath == absPath(inputPath) &&
				entry.SourceSize == srcInfo.Size() &&
				entry.SourceModTime.Equal(srcInfo.ModTime()), hash
		}
	}
	return !canonInfo.ModTime().Before(srcInfo.ModTime()), hash
}

func (c *Converter) record(ctx context.Context, logger *slog.Logger, inputPath string, srcInfo os.FileInfo, canonical, targetFormat, hash string) {
	if c.cache == nil {
		return
	}
	if c.opts.CacheMode == config.CacheModeHash && hash == "" {
		var err error
		if hash, err = fileutil.HashFile(inputPath); err != nil {
			logger.Debug("source hash failed", logging.Error(err))
		}
	}
	entry := history.Conversion{
		CanonicalPath: canonical,
		SourcePath:    absPath(inputPath),
		SourceSize:    srcInfo.Size(),
		SourceModTime: srcInfo.ModTime(),
		ContentHash:   hash,
		TargetFormat:  targetFormat,
	}
	if err := c.cache.PutConversion(ctx, entry); err != nil {
		logging.WarnWithContext(ctx, logger, "conversion ledger update failed", "conversion_ledger_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "next run may re-encode this file"),
		)
	}
}

// forget drops the ledger entry for a canonical file that no longer exists,
// so a failed conversion leaves no row pointing at a missing file.
func (c *Converter) forget(ctx context.Context, logger *slog.Logger, canonical string) {
	if c.cache == nil {
		return
	}
	if _, err := os.Stat(canonical); !errors.Is(err, os.ErrNotExist) {
		return
	}
	if err := c.cache.DeleteConversion(ctx, canonical); err != nil {
		logger.Debug("conversion ledger cleanup failed", logging.Error(err))
	}
}

// convert encodes inputPath into canonical. When sources are inspected first
// it returns the probed duration in seconds, otherwise zero.
func (c *Converter) convert(ctx context.Context, inputPath, canonical, targetFormat string) (float64, error) {
	var duration float64
	if c.opts.ProbeSource {
		probe, err := c.prober(ctx, c.opts.FFprobeBinary, inputPath)
		if err != nil {
			return 0, services.Wrap(services.ErrExternalTool, "", "", "probe source", err)
		}
		if probe.AudioStreamCount() == 0 {
			return 0, errors.New("source has no audio stream")
		}
		duration = probe.DurationSeconds()
		// An unknown duration is tolerated; a reported one must be positive.
		if probe.DurationKnown() && (math.IsNaN(duration) || duration <= 0) {
			return 0, fmt.Errorf("source reports unusable duration %q", probe.Format.Duration)
		}
	}

	partial := canonical + ".part"
	_ = os.Remove(partial)
	if err := c.run(ctx, c.opts.FFmpegBinary, c.buildArgs(inputPath, partial, targetFormat)...); err != nil {
		_ = os.Remove(partial)
		return 0, services.Wrap(services.ErrExternalTool, "", "", "encode failed", err)
	}
	info, err := os.Stat(partial)
	if err != nil {
		return 0, fmt.Errorf("ffmpeg produced no output: %w", err)
	}
	if info.Size() == 0 {
		_ = os.Remove(partial)
		return 0, errors.New("ffmpeg produced an empty file")
	}
	if err := os.Rename(partial, canonical); err != nil {
		_ = os.Remove(partial)
		return 0, fmt.Errorf("finalize canonical file: %w", err)
	}
	return duration, nil
}

func (c *Converter) buildArgs(inputPath, dest, targetFormat string) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", inputPath,
		"-vn",
		"-sn",
		"-dn",
		"-ac", strconv.Itoa(c.opts.Channels),
		"-ar", strconv.Itoa(c.opts.SampleRate),
	}
	if targetFormat == "wav" {
		args = append(args, "-c:a", "pcm_s16le")
	}
	return append(args, "-f", targetFormat, dest)
}

func (c *Converter) run(ctx context.Context, name string, args ...string) error {
	if c.commandRunner != nil {
		return c.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func lockPath(canonical string) string {
	return filepath.Join(filepath.Dir(canonical), "."+filepath.Base(canonical)+".lock")
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func samePath(a, b string) bool {
	return absPath(a) == absPath(b)
}
