package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tunegrab/internal/logging"
	"tunegrab/internal/model"
	"tunegrab/internal/pipeline"
	"tunegrab/internal/progress"
)

func main() {
	opts, err := parseArgs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}

	if err := opts.cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stderr, opts.cfg.Verbose)

	job, err := loadJobFile(opts.jobPath)
	if err != nil {
		logger.Error("cannot load job", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch, err := pipeline.Build(opts.cfg, logger)
	if err != nil {
		logger.Error("setup failed", "err", err)
		os.Exit(1)
	}

	if err := run(ctx, orch, job, opts.cfg.Verbose); err != nil {
		logger.Error("job failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, orch *pipeline.Orchestrator, job model.Job, verbose bool) error {
	var bar *progress.Bar
	if !verbose && len(job.Tracks) > 0 {
		bar = progress.New(len(job.Tracks))
	}

	var aborted model.Status
	for ev := range orch.Run(ctx, job) {
		if bar != nil {
			bar.Set(ev.Completed)
		}

		switch ev.Status {
		case model.StatusSuspended, model.StatusLimitReached:
			aborted = ev.Status
		case model.StatusDone:
			if ev.Detail != "" {
				fmt.Println()
				fmt.Println(ev.Detail)
			}
		}
	}

	if bar != nil {
		bar.Finish()
	}

	if ctx.Err() != nil {
		return fmt.Errorf("interrupted")
	}
	if aborted != "" {
		return fmt.Errorf("job aborted: %s", aborted)
	}
	return nil
}
