package stagerun

import (
	"context"
	"log/slog"
	"time"

	"quark/internal/drive"
	"quark/internal/logging"
	"quark/internal/services"
)

// Operation is the per-item remote action a stage applies.
type Operation func(ctx context.Context, node drive.Node) error

// ItemError records which item failed and why.
type ItemError struct {
	Node drive.Node
	Err  error
}

// Outcome partitions a pass's input: every input node lands in exactly one of
// Succeeded or Failed, relative order preserved.
type Outcome struct {
	Succeeded []drive.Node
	Failed    []drive.Node
	Errors    []ItemError
}

// Options controls a single stage pass.
type Options struct {
	Stage    string
	Delay    time.Duration
	Logger   *slog.Logger
	Observer Observer
}

// Run applies op to each node in input order. A failure is recorded and the
// pass moves on; it never aborts the remaining items. After every item,
// success or failure, the runner pauses for the configured delay as a
// rate-limit courtesy to the remote service.
func Run(ctx context.Context, items []drive.Node, op Operation, opts Options) Outcome {
	observer := opts.Observer
	if observer == nil {
		observer = NopObserver{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	observer.StageStarted(opts.Stage, len(items))
	logger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.Int("items", len(items)),
	)

	outcome := Outcome{}
	for _, item := range items {
		itemCtx := services.WithItem(ctx, item.Name)
		itemLogger := logging.WithContext(itemCtx, logger)

		observer.ItemStarted(opts.Stage, item.Name)
		if err := op(itemCtx, item); err != nil {
			outcome.Failed = append(outcome.Failed, item)
			outcome.Errors = append(outcome.Errors, ItemError{Node: item, Err: err})
			observer.ItemFailed(opts.Stage, item.Name, err)
			itemLogger.Warn("item failed", logging.Error(err))
		} else {
			outcome.Succeeded = append(outcome.Succeeded, item)
			observer.ItemSucceeded(opts.Stage, item.Name)
			itemLogger.Debug("item succeeded")
		}

		pause(ctx, opts.Delay)
	}

	observer.StageFinished(opts.Stage, len(outcome.Succeeded), len(outcome.Failed))
	logger.Info(
		"stage finished",
		logging.String(logging.FieldEventType, "stage_finish"),
		logging.Int("succeeded", len(outcome.Succeeded)),
		logging.Int("failed", len(outcome.Failed)),
	)
	return outcome
}

func pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
