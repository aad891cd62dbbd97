package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"quark/internal/logging"
)

// consoleObserver renders stage progress. On a terminal it drives a
// go-pretty progress tracker per stage; otherwise it falls back to plain log
// lines so piped output stays readable.
type consoleObserver struct {
	out         io.Writer
	logger      *slog.Logger
	interactive bool

	writer  progress.Writer
	tracker *progress.Tracker
}

func newConsoleObserver(out io.Writer, logger *slog.Logger) *consoleObserver {
	interactive := false
	if file, ok := out.(*os.File); ok {
		interactive = isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
	}
	return &consoleObserver{
		out:         out,
		logger:      logging.NewComponentLogger(logger, "observer"),
		interactive: interactive,
	}
}

func (o *consoleObserver) StageStarted(stage string, itemCount int) {
	if !o.interactive {
		o.logger.Info("stage started", logging.String("stage", stage), logging.Int("items", itemCount))
		return
	}

	fmt.Fprintln(o.out, text.FgCyan.Sprintf("==> %s (%d items)", stage, itemCount))

	writer := progress.NewWriter()
	writer.SetOutputWriter(o.out)
	writer.SetAutoStop(true)
	writer.SetTrackerLength(25)
	writer.SetUpdateFrequency(100 * time.Millisecond)
	writer.Style().Visibility.ETA = false

	tracker := &progress.Tracker{Message: stage, Total: int64(itemCount)}
	writer.AppendTracker(tracker)

	o.writer = writer
	o.tracker = tracker
	go writer.Render()
}

func (o *consoleObserver) ItemStarted(stage, name string) {
	if !o.interactive {
		o.logger.Info("processing item", logging.String("stage", stage), logging.String("item", name))
	}
}

func (o *consoleObserver) ItemSucceeded(stage, name string) {
	if o.interactive {
		if o.tracker != nil {
			o.tracker.Increment(1)
		}
		return
	}
	o.logger.Info("item succeeded", logging.String("stage", stage), logging.String("item", name))
}

func (o *consoleObserver) ItemFailed(stage, name string, err error) {
	if o.interactive {
		if o.tracker != nil {
			o.tracker.IncrementWithError(1)
		}
		fmt.Fprintln(o.out, text.FgRed.Sprintf("  failed: %s (%v)", name, err))
		return
	}
	o.logger.Warn("item failed", logging.String("stage", stage), logging.String("item", name), logging.Error(err))
}

func (o *consoleObserver) StageFinished(stage string, succeeded, failed int) {
	if o.interactive {
		if o.tracker != nil {
			o.tracker.MarkAsDone()
			o.tracker = nil
		}
		if o.writer != nil {
			o.writer.Stop()
			o.writer = nil
		}
		color := text.FgGreen
		if failed > 0 {
			color = text.FgYellow
		}
		fmt.Fprintln(o.out, color.Sprintf("<== %s: %d succeeded, %d failed", stage, succeeded, failed))
		return
	}
	o.logger.Info("stage finished", logging.String("stage", stage), logging.Int("succeeded", succeeded), logging.Int("failed", failed))
}
