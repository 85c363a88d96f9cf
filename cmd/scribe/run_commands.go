package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/history"
	"scribe/internal/logging"
	"scribe/internal/pipeline"
	"scribe/internal/preflight"
	"scribe/internal/watch"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Transcribe every recording in the input directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.configWithOverrides(input, output)
			if err != nil {
				return err
			}
			if err := checkReady(cfg); err != nil {
				return err
			}
			lock, err := acquireRunLock(cfg)
			if err != nil {
				return err
			}
			defer lock.Unlock()

			return ctx.withPipeline(cmd.Context(), cfg, true, func(p *pipeline.Pipeline, _ *slog.Logger) error {
				report, err := p.RunBatch(cmd.Context(), cfg.Paths.AudioDir, cfg.Paths.TranscriptDir)
				if err != nil {
					return err
				}
				return finishReport(cmd, ctx, report)
			})
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Directory of recordings (default paths.audio_dir)")
	cmd.Flags().StringVar(&output, "output", "", "Directory for transcripts (default paths.transcript_dir)")
	return cmd
}

func newFileCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "file <path>",
		Short: "Transcribe a single recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			info, err := os.Stat(source)
			if err != nil {
				return fmt.Errorf("inspect %q: %w", source, err)
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory; use scribe run --input", source)
			}
			cfg, err := ctx.configWithOverrides(filepath.Dir(source), output)
			if err != nil {
				return err
			}
			if err := checkReady(cfg); err != nil {
				return err
			}
			lock, err := acquireRunLock(cfg)
			if err != nil {
				return err
			}
			defer lock.Unlock()

			return ctx.withPipeline(cmd.Context(), cfg, true, func(p *pipeline.Pipeline, _ *slog.Logger) error {
				session := p.BeginSession(cmd.Context(), pipeline.KindFile, cfg.Paths.AudioDir, cfg.Paths.TranscriptDir)
				session.Process(cmd.Context(), source)
				return finishReport(cmd, ctx, session.Close(cmd.Context()))
			})
		},
	}

	cmd.Flags().StringVar(&output, "output", "", "Directory for the transcript (default paths.transcript_dir)")
	return cmd
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var input, output string
	var existing bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Transcribe recordings as they appear in the input directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.configWithOverrides(input, output)
			if err != nil {
				return err
			}
			if err := checkReady(cfg); err != nil {
				return err
			}
			lock, err := acquireRunLock(cfg)
			if err != nil {
				return err
			}
			defer lock.Unlock()

			return ctx.withPipeline(cmd.Context(), cfg, true, func(p *pipeline.Pipeline, logger *slog.Logger) error {
				runCtx := cmd.Context()
				session := p.BeginSession(runCtx, pipeline.KindWatch, cfg.Paths.AudioDir, cfg.Paths.TranscriptDir)
				w := watch.New(watch.Options{
					Dir:       cfg.Paths.AudioDir,
					Extension: cfg.Audio.InputExtension,
					Debounce:  cfg.WatchDebounce(),
					Existing:  existing,
				}, func(ctx context.Context, path string) {
					result := session.Process(ctx, path)
					if result.Status == history.FileStatusOK {
						logger.Info("transcript written",
							logging.String(logging.FieldFile, result.Source),
							logging.String("output", result.OutputPath),
						)
					}
				}, logger)
				fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (Ctrl+C to stop)\n", cfg.Paths.AudioDir)
				err := w.Run(runCtx)
				report := session.Close(runCtx)
				if err != nil {
					return err
				}
				return finishReport(cmd, ctx, report)
			})
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Directory to watch (default paths.audio_dir)")
	cmd.Flags().StringVar(&output, "output", "", "Directory for transcripts (default paths.transcript_dir)")
	cmd.Flags().BoolVar(&existing, "existing", false, "Also process recordings already in the directory")
	return cmd
}

// checkReady runs the transcription preflight and folds failures into one error.
func checkReady(cfg *config.Config) error {
	results := preflight.ForTranscription(cfg)
	if len(preflight.Failed(results)) == 0 {
		return nil
	}
	return errors.New("preflight failed: " + preflight.Summary(results))
}
