// Package cron triggers report runs on a cron schedule.
package cron

import (
	"context"
	"fmt"
	"time"

	scheduler "github.com/robfig/cron"
	log "github.com/sirupsen/logrus"
)

// TriggerFunc starts a report run.
type TriggerFunc func(ctx context.Context) error

// Scheduler runs a TriggerFunc at the times given by a standard five field
// cron expression, evaluated in UTC.
type Scheduler struct {
	spec     string
	schedule scheduler.Schedule
	cron     *scheduler.Cron
	trigger  TriggerFunc
	logger   log.FieldLogger
}

func New(logger log.FieldLogger, spec string, trigger TriggerFunc) (*Scheduler, error) {
	if trigger == nil {
		return nil, fmt.Errorf("trigger can't be nil")
	}
	schedule, err := scheduler.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return &Scheduler{
		spec:     spec,
		schedule: schedule,
		cron:     scheduler.NewWithLocation(time.UTC),
		trigger:  trigger,
		logger:   logger.WithField("component", "scheduler"),
	}, nil
}

// Start schedules the job and returns immediately. Runs receive ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Schedule(s.schedule, s.runReportJob(ctx))
	s.cron.Start()
	s.logger.Infof("scheduled report runs at %q, next run at %s", s.spec, s.Next(time.Now()).Format(time.RFC3339))
}

// Stop stops future runs. A run in progress is not interrupted.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// Next returns the first scheduled time after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t.UTC())
}
