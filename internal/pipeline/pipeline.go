package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"quark/internal/drive"
	"quark/internal/logging"
	"quark/internal/services"
	"quark/internal/stagerun"
)

// Stage names, in execution order.
const (
	StageExtract        = "extract"
	StageOrganize       = "organize"
	StageCleanupFolders = "cleanup-folders"
	StageCleanupSources = "cleanup-sources"
)

// Timing holds the run's delay configuration. ItemDelay paces first passes,
// RetryDelay paces retry passes, SettleWait separates extraction from
// organization so the service can materialize extracted folders.
type Timing struct {
	ItemDelay  time.Duration
	RetryDelay time.Duration
	SettleWait time.Duration
}

// RunConfig is the immutable per-run configuration.
type RunConfig struct {
	TargetPath    string
	DeleteSources bool
}

// Pipeline drives the four-stage extraction sequence. Execution is strictly
// sequential: one remote call in flight at a time.
type Pipeline struct {
	fs       RemoteFS
	timing   Timing
	logger   *slog.Logger
	observer stagerun.Observer
}

// New constructs a pipeline over the given remote filesystem.
func New(fs RemoteFS, timing Timing, logger *slog.Logger, observer stagerun.Observer) *Pipeline {
	if observer == nil {
		observer = stagerun.NopObserver{}
	}
	return &Pipeline{
		fs:       fs,
		timing:   timing,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
		observer: observer,
	}
}

// Run executes one pipeline run to completion. Fatal errors (unresolvable
// path, failed discovery listing) abort the run and are returned; per-item
// failures are collected into the report instead.
func (p *Pipeline) Run(ctx context.Context, cfg RunConfig) (*Report, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, p.logger)

	report := &Report{
		RunID:      runID,
		TargetPath: cfg.TargetPath,
		Started:    time.Now().UTC(),
	}
	defer func() { report.Finished = time.Now().UTC() }()

	logger.Info("run started", logging.String("target", cfg.TargetPath), logging.Bool("delete_sources", cfg.DeleteSources))

	targetID, err := ResolvePath(ctx, p.fs, cfg.TargetPath)
	if err != nil {
		return nil, err
	}
	report.TargetID = targetID
	logger.Info("path resolved", logging.String("target", cfg.TargetPath), logging.String("node_id", targetID))

	listing, err := p.fs.List(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("list target directory: %w", err)
	}
	archives := drive.FilterArchives(listing)
	report.Archives = len(archives)
	if len(archives) == 0 {
		report.NothingToDo = true
		logger.Info("no supported archives found, nothing to do")
		return report, nil
	}
	logger.Info("archives discovered", logging.Int("count", len(archives)))

	extract := p.runStage(ctx, StageExtract, archives, func(context.Context) stagerun.Operation {
		return func(ctx context.Context, archive drive.Node) error {
			return p.fs.Extract(ctx, archive.ID, targetID)
		}
	})
	p.recordStage(report, StageExtract, len(archives), extract)

	extracted := extract.succeeded
	if len(extracted) == 0 {
		logger.Warn("no archives were extracted, ending run")
		return report, nil
	}

	// Let the service finish materializing the extracted folders before
	// looking for them.
	p.pause(ctx, p.timing.SettleWait)

	var organized []drive.Node
	organize := p.runStage(ctx, StageOrganize, extracted, func(ctx context.Context) stagerun.Operation {
		return p.organizeOperation(ctx, targetID, &organized, report)
	})
	p.recordStage(report, StageOrganize, len(extracted), organize)

	if len(organized) > 0 {
		cleanup := p.runStage(ctx, StageCleanupFolders, organized, func(context.Context) stagerun.Operation {
			return func(ctx context.Context, folder drive.Node) error {
				return p.fs.Delete(ctx, []string{folder.ID})
			}
		})
		p.recordStage(report, StageCleanupFolders, len(organized), cleanup)
	} else {
		report.Stages = append(report.Stages, StageReport{Name: StageCleanupFolders})
	}

	if cfg.DeleteSources {
		sources := p.runStage(ctx, StageCleanupSources, extracted, func(context.Context) stagerun.Operation {
			return func(ctx context.Context, archive drive.Node) error {
				return p.fs.Delete(ctx, []string{archive.ID})
			}
		})
		p.recordStage(report, StageCleanupSources, len(extracted), sources)
	} else {
		report.Stages = append(report.Stages, StageReport{Name: StageCleanupSources})
	}

	logger.Info(
		"run finished",
		logging.Int("archives", report.Archives),
		logging.Int("failures", len(report.Failures)),
		logging.Int("skipped", len(report.Skipped)),
	)
	return report, nil
}

// organizeOperation captures one refreshed listing of the target directory
// and returns the per-archive organize action. Each pass (first and retry)
// performs its own refresh.
func (p *Pipeline) organizeOperation(ctx context.Context, targetID string, organized *[]drive.Node, report *Report) stagerun.Operation {
	logger := logging.WithContext(ctx, p.logger)
	logger.Info("refreshing target directory for extracted folders")

	listing, listErr := p.fs.List(ctx, targetID)
	if listErr != nil {
		return func(context.Context, drive.Node) error {
			return fmt.Errorf("refresh target listing: %w", listErr)
		}
	}

	return func(ctx context.Context, archive drive.Node) error {
		itemLogger := logging.WithContext(ctx, p.logger)
		folderName := drive.FolderName(archive.Name)

		var folder *drive.Node
		for i := range listing {
			// First match in listing order wins when duplicates exist.
			if listing[i].Dir && listing[i].Name == folderName {
				folder = &listing[i]
				break
			}
		}
		if folder == nil {
			itemLogger.Warn(
				"no matching extracted folder, skipping move",
				logging.String("expected_folder", folderName),
			)
			report.Skipped = append(report.Skipped, archive.Name)
			return nil
		}

		children, err := p.fs.List(ctx, folder.ID)
		if err != nil {
			return fmt.Errorf("list extracted folder %q: %w", folder.Name, err)
		}
		if len(children) > 0 {
			ids := make([]string, 0, len(children))
			for _, child := range children {
				ids = append(ids, child.ID)
			}
			if err := p.fs.Move(ctx, ids, targetID); err != nil {
				return fmt.Errorf("move contents of %q: %w", folder.Name, err)
			}
			itemLogger.Info("folder contents moved", logging.String("folder", folder.Name), logging.Int("children", len(children)))
		} else {
			itemLogger.Info("extracted folder is empty, no move needed", logging.String("folder", folder.Name))
		}
		*organized = append(*organized, *folder)
		return nil
	}
}

// stageResult merges a stage's first and retry passes. succeeded combines
// both passes; failed and errors come from the retry pass alone and are
// terminal.
type stageResult struct {
	succeeded []drive.Node
	failed    []drive.Node
	errors    []stagerun.ItemError
}

// runStage executes one stage with the single-retry policy: a first pass over
// all items at the nominal delay, then, if anything failed, exactly one more
// pass over that failed subset at the retry delay. prepare is invoked once
// per pass so stages can refresh remote state between passes.
func (p *Pipeline) runStage(ctx context.Context, stage string, items []drive.Node, prepare func(ctx context.Context) stagerun.Operation) stageResult {
	stageCtx := services.WithStage(ctx, stage)
	stageLogger := logging.WithContext(stageCtx, p.logger)

	first := stagerun.Run(stageCtx, items, prepare(stageCtx), stagerun.Options{
		Stage:    stage,
		Delay:    p.timing.ItemDelay,
		Logger:   stageLogger,
		Observer: p.observer,
	})
	result := stageResult{succeeded: first.Succeeded}
	if len(first.Failed) == 0 {
		return result
	}

	stageLogger.Warn("retrying failed items", logging.Int("count", len(first.Failed)))
	retry := stagerun.Run(stageCtx, first.Failed, prepare(stageCtx), stagerun.Options{
		Stage:    stage + " (retry)",
		Delay:    p.timing.RetryDelay,
		Logger:   stageLogger,
		Observer: p.observer,
	})

	result.succeeded = append(result.succeeded, retry.Succeeded...)
	result.failed = retry.Failed
	result.errors = retry.Errors
	return result
}

func (p *Pipeline) recordStage(report *Report, stage string, attempted int, result stageResult) {
	report.Stages = append(report.Stages, StageReport{
		Name:      stage,
		Ran:       true,
		Attempted: attempted,
		Succeeded: len(result.succeeded),
		Failed:    len(result.failed),
	})
	for _, itemErr := range result.errors {
		report.Failures = append(report.Failures, Failure{
			Stage:  stage,
			Item:   itemErr.Node.Name,
			Reason: itemErr.Err.Error(),
		})
	}
}

func (p *Pipeline) pause(ctx context.Context, wait time.Duration) {
	if wait <= 0 {
		return
	}
	logging.WithContext(ctx, p.logger).Info("waiting for the service to settle", logging.Duration("wait", wait))
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
