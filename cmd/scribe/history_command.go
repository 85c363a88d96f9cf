package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"scribe/internal/history"
)

type runView struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	InputDir    string     `json:"input_dir"`
	OutputDir   string     `json:"output_dir,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	FilesTotal  int        `json:"files_total"`
	FilesFailed int        `json:"files_failed"`
}

type runDetailView struct {
	runView
	Files []historyFileView `json:"files"`
}

type historyFileView struct {
	File                    string `json:"file"`
	Status                  string `json:"status"`
	ErrorKind               string `json:"error_kind,omitempty"`
	Error                   string `json:"error,omitempty"`
	Segments                int    `json:"segments"`
	FragmentsUnintelligible int    `json:"fragments_unintelligible"`
	FragmentsFailed         int    `json:"fragments_failed"`
	Output                  string `json:"output,omitempty"`
	ElapsedMS               int64  `json:"elapsed_ms"`
}

func newRunView(r history.Run) runView {
	view := runView{
		ID:          r.ID,
		Kind:        r.Kind,
		InputDir:    r.InputDir,
		OutputDir:   r.OutputDir,
		StartedAt:   r.StartedAt,
		FilesTotal:  r.FilesTotal,
		FilesFailed: r.FilesFailed,
	}
	if r.Finished() {
		finished := r.FinishedAt
		view.FinishedAt = &finished
	}
	return view
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs or the files of one run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return errors.New("run history is disabled (history.enabled = false)")
			}
			store, err := history.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if runID != "" {
				run, err := store.GetRun(cmd.Context(), runID)
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("no run matches %q", runID)
				}
				files, err := store.ListFiles(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				return printRunDetail(cmd, ctx, *run, files)
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printRuns(cmd, ctx, runs)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to list")
	cmd.Flags().StringVar(&runID, "run", "", "Show file results for a run id or unique prefix")
	return cmd
}

func printRuns(cmd *cobra.Command, ctx *commandContext, runs []history.Run) error {
	views := make([]runView, 0, len(runs))
	for _, r := range runs {
		views = append(views, newRunView(r))
	}
	if ctx.jsonOutput() {
		return writeJSON(cmd, views)
	}
	out := cmd.OutOrStdout()
	if len(views) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		finished := "running"
		if v.FinishedAt != nil {
			finished = v.FinishedAt.Sub(v.StartedAt).Round(time.Second).String()
		}
		rows = append(rows, []string{
			shortID(v.ID),
			v.Kind,
			v.StartedAt.Local().Format("2006-01-02 15:04:05"),
			finished,
			strconv.Itoa(v.FilesTotal),
			strconv.Itoa(v.FilesFailed),
			v.InputDir,
		})
	}
	fmt.Fprintln(out, renderTable(out,
		[]string{"Run", "Kind", "Started", "Duration", "Files", "Failed", "Input"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))
	return nil
}

func printRunDetail(cmd *cobra.Command, ctx *commandContext, run history.Run, files []history.FileResult) error {
	detail := runDetailView{runView: newRunView(run), Files: make([]historyFileView, 0, len(files))}
	for _, f := range files {
		detail.Files = append(detail.Files, historyFileView{
			File:                    f.FileName,
			Status:                  string(f.Status),
			ErrorKind:               f.ErrorKind,
			Error:                   f.ErrorMessage,
			Segments:                f.Segments,
			FragmentsUnintelligible: f.FragmentsUnintelligible,
			FragmentsFailed:         f.FragmentsFailed,
			Output:                  f.OutputPath,
			ElapsedMS:               f.Elapsed.Milliseconds(),
		})
	}
	if ctx.jsonOutput() {
		return writeJSON(cmd, detail)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s (%s) started %s\n", run.ID, run.Kind, run.StartedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(out, "Input: %s\n", run.InputDir)
	if run.OutputDir != "" {
		fmt.Fprintf(out, "Output: %s\n", run.OutputDir)
	}
	rows := make([][]string, 0, len(detail.Files))
	for _, f := range detail.Files {
		msg := f.Error
		if f.ErrorKind != "" {
			msg = f.ErrorKind + ": " + msg
		}
		rows = append(rows, []string{
			f.File,
			f.Status,
			strconv.Itoa(f.Segments),
			strconv.Itoa(f.FragmentsUnintelligible),
			strconv.Itoa(f.FragmentsFailed),
			msg,
		})
	}
	fmt.Fprintln(out, renderTable(out,
		[]string{"File", "Status", "Segments", "Unintelligible", "Failed", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
