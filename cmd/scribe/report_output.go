package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"scribe/internal/history"
	"scribe/internal/pipeline"
)

type fileView struct {
	File            string `json:"file"`
	Status          string `json:"status"`
	Output          string `json:"output,omitempty"`
	ErrorKind       string `json:"error_kind,omitempty"`
	Error           string `json:"error,omitempty"`
	Segments        int    `json:"segments"`
	Recognized      int    `json:"recognized"`
	Unintelligible  int    `json:"unintelligible"`
	FragmentsFailed int    `json:"fragments_failed"`
	ElapsedMS       int64  `json:"elapsed_ms"`
}

type reportView struct {
	RunID     string     `json:"run_id"`
	Kind      string     `json:"kind"`
	InputDir  string     `json:"input_dir"`
	OutputDir string     `json:"output_dir,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	ElapsedMS int64      `json:"elapsed_ms"`
	Total     int        `json:"total"`
	OK        int        `json:"ok"`
	Failed    int        `json:"failed"`
	Skipped   int        `json:"skipped"`
	Files     []fileView `json:"files"`
}

func newReportView(r pipeline.Report) reportView {
	view := reportView{
		RunID:     r.RunID,
		Kind:      r.Kind,
		InputDir:  r.InputDir,
		OutputDir: r.OutputDir,
		StartedAt: r.StartedAt.UTC(),
		ElapsedMS: r.Elapsed.Milliseconds(),
		Total:     len(r.Files),
		OK:        r.Count(history.FileStatusOK),
		Failed:    r.Count(history.FileStatusFailed),
		Skipped:   r.Count(history.FileStatusSkipped),
		Files:     make([]fileView, 0, len(r.Files)),
	}
	for _, f := range r.Files {
		fv := fileView{
			File:            f.Source,
			Status:          string(f.Status),
			Output:          f.OutputPath,
			ErrorKind:       f.ErrorKind(),
			Segments:        f.Segments,
			Recognized:      f.Recognized,
			Unintelligible:  f.Unintelligible,
			FragmentsFailed: f.FragmentFailed,
			ElapsedMS:       f.Elapsed.Milliseconds(),
		}
		switch {
		case f.Err != nil:
			fv.Error = f.Err.Error()
		case f.Reason != "":
			fv.Error = f.Reason
		}
		view.Files = append(view.Files, fv)
	}
	return view
}

// finishReport prints the report and turns per-file failures into the
// command's error so the process exits non-zero after all files ran.
func finishReport(cmd *cobra.Command, ctx *commandContext, report pipeline.Report) error {
	view := newReportView(report)
	if ctx.jsonOutput() {
		if err := writeJSON(cmd, view); err != nil {
			return err
		}
	} else {
		printReport(cmd, view)
	}
	if view.Failed > 0 {
		return fmt.Errorf("%d of %d files failed (run %s)", view.Failed, view.Total, view.RunID)
	}
	return nil
}

func printReport(cmd *cobra.Command, view reportView) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s (%s): %d files, %d ok, %d failed, %d skipped in %s\n",
		view.RunID, view.Kind, view.Total, view.OK, view.Failed, view.Skipped,
		(time.Duration(view.ElapsedMS) * time.Millisecond).String())
	if view.Total == 0 {
		return
	}
	rows := make([][]string, 0, len(view.Files))
	for _, f := range view.Files {
		detail := f.Error
		if f.ErrorKind != "" {
			detail = f.ErrorKind + ": " + detail
		}
		rows = append(rows, []string{
			f.File,
			f.Status,
			strconv.Itoa(f.Segments),
			strconv.Itoa(f.Unintelligible),
			strconv.Itoa(f.FragmentsFailed),
			detail,
		})
	}
	fmt.Fprintln(out, renderTable(out,
		[]string{"File", "Status", "Segments", "Unintelligible", "Failed", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))
}
