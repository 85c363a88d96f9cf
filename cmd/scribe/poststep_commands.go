package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"scribe/internal/pipeline"
)

func newPreprocessCommand(ctx *commandContext) *cobra.Command {
	var dir string
	var force bool

	cmd := &cobra.Command{
		Use:   "preprocess",
		Short: "Append normalized text to each transcript",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.configWithOverrides("", dir)
			if err != nil {
				return err
			}
			return ctx.withPipeline(cmd.Context(), cfg, false, func(p *pipeline.Pipeline, _ *slog.Logger) error {
				report, err := p.Preprocess(cmd.Context(), cfg.Paths.TranscriptDir, force)
				if err != nil {
					return err
				}
				return finishReport(cmd, ctx, report)
			})
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Transcript directory (default paths.transcript_dir)")
	cmd.Flags().BoolVar(&force, "force", false, "Rewrite the section even if present")
	return cmd
}

func newSummarizeCommand(ctx *commandContext) *cobra.Command {
	var dir string
	var force bool

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Append an LLM summary to each transcript",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.configWithOverrides("", dir)
			if err != nil {
				return err
			}
			return ctx.withPipeline(cmd.Context(), cfg, false, func(p *pipeline.Pipeline, _ *slog.Logger) error {
				report, err := p.Summarize(cmd.Context(), cfg.Paths.TranscriptDir, force)
				if err != nil {
					return err
				}
				return finishReport(cmd, ctx, report)
			})
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Transcript directory (default paths.transcript_dir)")
	cmd.Flags().BoolVar(&force, "force", false, "Rewrite the summary even if present")
	return cmd
}
