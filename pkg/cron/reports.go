package cron

import (
	"context"

	scheduler "github.com/robfig/cron"
	log "github.com/sirupsen/logrus"
)

// runReportJob must implement the Job interface.
var _ scheduler.Job = runReportJob{}

func (s *Scheduler) runReportJob(ctx context.Context) runReportJob {
	return runReportJob{
		ctx:     ctx,
		trigger: s.trigger,
		logger:  s.logger,
	}
}

type runReportJob struct {
	ctx     context.Context
	trigger TriggerFunc
	logger  log.FieldLogger
}

func (j runReportJob) Run() {
	if j.ctx.Err() != nil {
		j.logger.Debugf("skipping scheduled run, shutting down")
		return
	}
	if err := j.trigger(j.ctx); err != nil {
		j.logger.WithError(err).Errorf("scheduled report run failed")
	}
}
