package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scribe/internal/preflight"
)

type checkView struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

type dependencyView struct {
	Name      string `json:"name"`
	Command   string `json:"command"`
	Optional  bool   `json:"optional"`
	Available bool   `json:"available"`
	Detail    string `json:"detail,omitempty"`
}

type statusView struct {
	ConfigPath    string           `json:"config_path"`
	ConfigFound   bool             `json:"config_found"`
	Ready         bool             `json:"ready"`
	FFmpegVersion string           `json:"ffmpeg_version,omitempty"`
	Checks        []checkView      `json:"checks"`
	Dependencies  []dependencyView `json:"dependencies"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report binaries, directories, and service readiness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			snap := preflight.Collect(cmd.Context(), cfg)

			view := statusView{
				ConfigPath:    ctx.configPath,
				ConfigFound:   ctx.configExists,
				Ready:         snap.Ready(),
				FFmpegVersion: snap.FFmpegVersion,
			}
			for _, c := range snap.Checks {
				view.Checks = append(view.Checks, checkView(c))
			}
			for _, d := range snap.Dependencies {
				view.Dependencies = append(view.Dependencies, dependencyView{
					Name:      d.Name,
					Command:   d.Command,
					Optional:  d.Optional,
					Available: d.Available,
					Detail:    d.Detail,
				})
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, view)
			}
			printStatus(cmd, view)
			return nil
		},
	}
}

func printStatus(cmd *cobra.Command, view statusView) {
	out := cmd.OutOrStdout()
	p := &statusPrinter{colorize: isTerminal(out)}

	p.section("Configuration")
	if view.ConfigFound {
		p.line("Config file", statusOK, view.ConfigPath)
	} else {
		p.line("Config file", statusWarn, view.ConfigPath+" (not found, using defaults)")
	}

	p.section("Dependencies")
	for _, d := range view.Dependencies {
		switch {
		case d.Available && d.Name == "FFmpeg" && view.FFmpegVersion != "":
			p.line(d.Name, statusOK, d.Command+" "+view.FFmpegVersion)
		case d.Available:
			p.line(d.Name, statusOK, d.Command)
		case d.Optional:
			p.line(d.Name, statusWarn, d.Detail)
		default:
			p.line(d.Name, statusError, d.Detail)
		}
	}

	p.section("Checks")
	for _, c := range view.Checks {
		kind := statusOK
		if !c.Passed {
			kind = statusError
		}
		p.line(c.Name, kind, c.Detail)
	}

	verdict := "Not ready"
	if view.Ready {
		verdict = "Ready"
	}
	fmt.Fprintf(out, "%s\n\n%s\n", p, verdict)
}
