package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"quark/internal/config"
	"quark/internal/history"
	"quark/internal/pipeline"
)

func renderReport(report *pipeline.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run %s on %s", report.RunID, report.TargetPath)
	if !report.Finished.IsZero() && !report.Started.IsZero() {
		fmt.Fprintf(&b, " (%s)", report.Finished.Sub(report.Started).Round(time.Second))
	}
	b.WriteString("\n")

	if report.NothingToDo {
		fmt.Fprintf(&b, "No archives found in %s; nothing to do.\n", report.TargetPath)
		return strings.TrimRight(b.String(), "\n")
	}

	fmt.Fprintf(&b, "Archives discovered: %d\n\n", report.Archives)

	rows := make([][]string, 0, len(report.Stages))
	for _, stage := range report.Stages {
		if !stage.Ran {
			rows = append(rows, []string{stage.Name, "skipped", "-", "-"})
			continue
		}
		rows = append(rows, []string{
			stage.Name,
			strconv.Itoa(stage.Attempted),
			strconv.Itoa(stage.Succeeded),
			strconv.Itoa(stage.Failed),
		})
	}
	b.WriteString(renderTable(
		[]string{"Stage", "Attempted", "Succeeded", "Failed"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
	))
	b.WriteString("\n")

	if len(report.Skipped) > 0 {
		b.WriteString("\nSkipped (extracted folder not found):\n")
		for _, name := range report.Skipped {
			fmt.Fprintf(&b, "  - %s\n", name)
		}
	}

	if len(report.Failures) > 0 {
		b.WriteString("\nUnrecovered failures:\n")
		failureRows := make([][]string, 0, len(report.Failures))
		for _, failure := range report.Failures {
			failureRows = append(failureRows, []string{failure.Stage, failure.Item, failure.Reason})
		}
		b.WriteString(renderTable(
			[]string{"Stage", "Item", "Reason"},
			failureRows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft},
		))
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func recordRun(ctx context.Context, cfg *config.Config, report *pipeline.Report, deleteSources bool) error {
	store, err := history.Open(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return store.RecordRun(ctx, report, deleteSources)
}
