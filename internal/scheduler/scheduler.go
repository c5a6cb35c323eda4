// Package scheduler runs the optional periodic list jobs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iyhunko/shopping-list/internal/engine"
	"github.com/robfig/cron/v3"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// List is the part of the engine the jobs drive.
type List interface {
	Refresh(ctx context.Context) error
	ResetMonth(ctx context.Context, confirm engine.Confirmer) (int, error)
}

// Scheduler wraps a cron runner. Jobs with an empty schedule are not registered.
type Scheduler struct {
	cron *cron.Cron
	list List
	ctx  context.Context
}

// New registers the reset and refresh jobs. ctx is passed to every job run.
func New(ctx context.Context, list List, resetSchedule, refreshSchedule string) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(cron.WithParser(cronParser)),
		list: list,
		ctx:  ctx,
	}

	if resetSchedule != "" {
		if _, err := s.cron.AddFunc(resetSchedule, s.resetMonth); err != nil {
			return nil, fmt.Errorf("invalid reset schedule %q: %w", resetSchedule, err)
		}
		slog.Info("Scheduled month reset", slog.String("schedule", resetSchedule))
	}
	if refreshSchedule != "" {
		if _, err := s.cron.AddFunc(refreshSchedule, s.refresh); err != nil {
			return nil, fmt.Errorf("invalid refresh schedule %q: %w", refreshSchedule, err)
		}
		slog.Info("Scheduled refresh", slog.String("schedule", refreshSchedule))
	}
	return s, nil
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the runner and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) resetMonth() {
	n, err := s.list.ResetMonth(s.ctx, engine.Confirmed)
	if err != nil {
		slog.Error("Scheduled month reset failed", slog.Any("err", err))
		return
	}
	slog.Info("Scheduled month reset", slog.Int("products", n))
}

func (s *Scheduler) refresh() {
	if err := s.list.Refresh(s.ctx); err != nil {
		slog.Error("Scheduled refresh failed", slog.Any("err", err))
	}
}
