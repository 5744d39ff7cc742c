// Package watch runs recurring harvests on a fixed interval.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Runner schedules and runs recurring jobs until its context is canceled.
type Runner struct {
	scheduler gocron.Scheduler
	log       *slog.Logger
}

// New builds an idle runner.
func New(log *slog.Logger) (*Runner, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Runner{
		scheduler: s,
		log:       log.With("component", "watch"),
	}, nil
}

// Every registers job to run at the given interval. The first run happens
// after one interval has elapsed.
func (r *Runner) Every(interval time.Duration, name string, job func(ctx context.Context)) error {
	_, err := r.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(job),
		gocron.WithName(name),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	r.log.Info("job scheduled", "job", name, "interval", interval)
	return nil
}

// Run starts the scheduler and blocks until ctx is canceled, then shuts the
// scheduler down.
func (r *Runner) Run(ctx context.Context) error {
	r.scheduler.Start()
	<-ctx.Done()
	if err := r.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to shut down scheduler: %w", err)
	}
	r.log.Info("scheduler stopped")
	return nil
}
