package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"quark/internal/drive"
	"quark/internal/logging"
	"quark/internal/pipeline"
)

func newUnzipCommand(ctx *commandContext) *cobra.Command {
	var deleteSources bool

	cmd := &cobra.Command{
		Use:   "unzip [path]",
		Short: "Extract every archive in a remote directory and flatten the results",
		Long: `Extract every recognized archive (zip, rar, 7z, tar, gz) in the target
directory, move the extracted contents up into that directory, delete the
emptied folders, and optionally delete the original archives.

The target path defaults to pipeline.target_directory from the configuration.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			target := cfg.Pipeline.TargetDirectory
			if len(args) == 1 {
				target = args[0]
			}
			removeSources := cfg.Pipeline.DeleteSourceFiles
			if cmd.Flags().Changed("delete-sources") {
				removeSources = deleteSources
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}

			// One authenticated session, one run at a time.
			lock := flock.New(cfg.LockFilePath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire run lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another quark run is already in progress (lock: %s)", cfg.LockFilePath())
			}
			defer func() { _ = lock.Unlock() }()

			client, err := drive.NewClient(cfg, logger)
			if err != nil {
				return err
			}

			observer := newConsoleObserver(cmd.OutOrStdout(), logger)
			pipe := pipeline.New(client, pipeline.Timing{
				ItemDelay:  cfg.ItemDelay(),
				RetryDelay: cfg.RetryDelay(),
				SettleWait: cfg.SettleWait(),
			}, logger, observer)

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			report, err := pipe.Run(runCtx, pipeline.RunConfig{
				TargetPath:    target,
				DeleteSources: removeSources,
			})
			if err != nil {
				return err
			}

			if cfg.History.Enabled {
				if recordErr := recordRun(runCtx, cfg, report, removeSources); recordErr != nil {
					logger.Warn("failed to record run history", logging.Error(recordErr))
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderReport(report))
			if report.HasFailures() {
				return fmt.Errorf("completed with %d unrecovered failures", len(report.Failures))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&deleteSources, "delete-sources", false, "Delete the original archives after successful extraction")
	return cmd
}
