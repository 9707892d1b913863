package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ternarybob/premarket/internal/models"
	"github.com/ternarybob/premarket/internal/server"
	"github.com/ternarybob/premarket/internal/services/pipeline"
	"github.com/ternarybob/premarket/internal/services/report"
	"github.com/ternarybob/premarket/internal/services/scheduler"
	"github.com/ternarybob/premarket/internal/telemetry"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run scans on the configured cron schedule",
	Long:  `Runs scans on schedule.crons (exchange-local time) and serves /metrics, /healthz, /api, /report and /ws endpoints until interrupted.`,
	RunE:  runSchedule,
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := telemetry.New()

	wiring, err := wireSources(ctx, config, metrics, logger)
	if err != nil {
		return err
	}
	defer wiring.Close()

	p := pipeline.New(config, wiring.Sources, metrics, logger)
	formatter := report.NewFormatter(config.Output.Format, config.Location(), config.ReportLocation())
	sink := reportSink()
	hub := server.NewHub(logger)
	page := report.NewFormatter(report.FormatHTML, config.Location(), config.ReportLocation())

	run := func(ctx context.Context, now time.Time) (models.Ranking, error) {
		if wiring.Cache != nil {
			if _, err := wiring.Cache.Purge(ctx); err != nil {
				logger.Warn().Err(err).Msg("Failed to purge expired exchange cache entries")
			}
		}
		result, err := p.RunAndDeliver(ctx, now, formatter, sink)

		// The ranking is published even when delivery failed
		html, renderErr := page.Format(result)
		if renderErr != nil {
			logger.Warn().Err(renderErr).Msg("Failed to render report page")
		}
		hub.Publish(result, html)
		return result, err
	}

	sched := scheduler.NewService(config.Location(), run, logger)
	if err := sched.Start(config.Schedule.Crons); err != nil {
		return err
	}
	defer sched.Stop()

	// An empty address disables the HTTP surface
	var srv *server.Server
	serverErr := make(chan error, 1)
	if config.Metrics.Addr != "" {
		srv = server.New(config.Metrics.Addr, sched, metrics.Handler(), hub, logger)
		go func() {
			if err := srv.Start(); err != nil {
				serverErr <- err
			}
		}()
	}

	logger.Info().
		Strs("crons", config.Schedule.Crons).
		Str("timezone", config.Scan.Timezone).
		Str("addr", config.Metrics.Addr).
		Msg("Scheduler ready - Press Ctrl+C to stop")

	select {
	case <-ctx.Done():
		logger.Info().Msg("Interrupt signal received")
	case err := <-serverErr:
		logger.Error().Err(err).Msg("Server failed")
		return err
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Server shutdown failed")
		}
	}

	logger.Info().Msg("Scheduler stopped")
	return nil
}
