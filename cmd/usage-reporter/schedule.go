package main

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/operator-framework/usage-reporter/pkg/cron"
	"github.com/operator-framework/usage-reporter/pkg/reporter"
)

const shutdownTimeout = 10 * time.Second

func runScheduled(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	rep, err := setup(logger, cfg)
	if err != nil {
		return err
	}
	return serve(setupSignals(), logger, rep, cfg.Schedule, cfg.ListenAddr)
}

// serve starts runs on schedule and serves the API on addr until ctx is done.
func serve(ctx context.Context, logger log.FieldLogger, rep *reporter.Reporter, schedule, addr string) error {
	scheduler, err := cron.New(logger, schedule, func(ctx context.Context) error {
		_, _, err := rep.Trigger(ctx)
		return err
	})
	if err != nil {
		return &reporter.RunError{Step: reporter.StepFailed, Kind: reporter.ConfigurationError, Err: err}
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: reporter.NewRouter(ctx, logger, rep),
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	scheduler.Start(ctx)
	defer scheduler.Stop()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("HTTP API did not shut down cleanly")
	}
	logger.Infof("usage-reporter has stopped")
	return nil
}
