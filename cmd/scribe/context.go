package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/history"
	"scribe/internal/logging"
	"scribe/internal/pipeline"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	jsonFlag     *bool

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(configFlag, logLevelFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		jsonFlag:     jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// openHistory returns nil when history is disabled or cannot be opened; runs
// then proceed without a ledger.
func (c *commandContext) openHistory(ctx context.Context, cfg *config.Config, logger *slog.Logger) *history.Store {
	if !cfg.History.Enabled {
		return nil
	}
	store, err := history.Open(cfg)
	if err != nil {
		logging.WarnWithContext(ctx, logger, "run history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String("path", cfg.HistoryPath()),
			logging.String(logging.FieldImpact, "results will not be persisted and conversions will not be cached by key"),
		)
		return nil
	}
	return store
}

// withPipeline builds the pipeline for cfg and releases its resources once fn
// returns. cfg may be a copy of the loaded config with command overrides.
func (c *commandContext) withPipeline(ctx context.Context, cfg *config.Config, needRecognizer bool, fn func(*pipeline.Pipeline, *slog.Logger) error) error {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	store := c.openHistory(ctx, cfg, logger)
	if store != nil {
		defer store.Close()
	}
	p, err := pipeline.Build(cfg, store, logger, needRecognizer)
	if err != nil {
		return err
	}
	return fn(p, logger)
}

// acquireRunLock takes the process-level lock for runs that write transcripts.
func acquireRunLock(cfg *config.Config) (*flock.Flock, error) {
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another scribe process is running (lock %s)", cfg.LockPath())
	}
	return lock, nil
}

// configWithOverrides returns a copy of the loaded config with non-empty
// directory flags applied.
func (c *commandContext) configWithOverrides(input, output string) (*config.Config, error) {
	loaded, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	cfg := *loaded
	if strings.TrimSpace(input) != "" {
		expanded, err := config.ExpandPath(strings.TrimSpace(input))
		if err != nil {
			return nil, err
		}
		cfg.Paths.AudioDir = expanded
	}
	if strings.TrimSpace(output) != "" {
		expanded, err := config.ExpandPath(strings.TrimSpace(output))
		if err != nil {
			return nil, err
		}
		cfg.Paths.TranscriptDir = expanded
		if err := cfg.EnsureDirectories(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
