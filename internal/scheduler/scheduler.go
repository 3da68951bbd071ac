// Package scheduler runs the due-sweep on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work, normally *notification.Sweeper.
type Job interface {
	Tick(ctx context.Context)
}

// Start registers job under spec in the named timezone and starts the cron.
// An unknown timezone falls back to UTC. A tick still running when the next
// one fires is skipped.
func Start(ctx context.Context, spec, timezone string, job Job) (*cron.Cron, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		slog.Error("invalid timezone, using UTC", "timezone", timezone, "err", err)
		loc = time.UTC
	}
	logger := cron.VerbosePrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelDebug))
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(spec, func() { job.Tick(ctx) }); err != nil {
		return nil, fmt.Errorf("add sweep job %q: %w", spec, err)
	}
	c.Start()
	slog.Info("sweep scheduled", "schedule", spec, "timezone", loc.String())
	return c, nil
}

// Stop waits for a running tick to finish or ctx to expire.
func Stop(ctx context.Context, c *cron.Cron) {
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		slog.Warn("sweep still running at shutdown")
	}
}
