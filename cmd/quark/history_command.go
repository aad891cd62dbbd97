package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"quark/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var failuresFor string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent pipeline runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := history.Open(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			out := cmd.OutOrStdout()
			runCtx := cmd.Context()

			if failuresFor != "" {
				failures, err := store.FailuresForRun(runCtx, failuresFor)
				if err != nil {
					return err
				}
				if len(failures) == 0 {
					fmt.Fprintf(out, "no recorded failures for run %s\n", failuresFor)
					return nil
				}
				rows := make([][]string, 0, len(failures))
				for _, failure := range failures {
					rows = append(rows, []string{failure.Stage, failure.Item, failure.Reason})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Stage", "Item", "Reason"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft},
				))
				return nil
			}

			runs, err := store.RecentRuns(runCtx, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "no recorded runs")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.RunID,
					run.TargetPath,
					run.Started.Local().Format("2006-01-02 15:04"),
					runResult(run),
					strconv.Itoa(run.Archives),
					strconv.Itoa(run.Extracted),
					strconv.Itoa(run.Organized),
					strconv.Itoa(run.Failures),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Target", "Started", "Result", "Archives", "Extracted", "Organized", "Failures"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")
	cmd.Flags().StringVar(&failuresFor, "failures", "", "Show the recorded failures for a run ID")
	return cmd
}

func runResult(run history.Run) string {
	switch {
	case run.NothingToDo:
		return "nothing-to-do"
	case run.Failures > 0:
		return "partial"
	default:
		return "ok"
	}
}
