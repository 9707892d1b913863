package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ternarybob/premarket/internal/interfaces"
	"github.com/ternarybob/premarket/internal/services/pipeline"
	"github.com/ternarybob/premarket/internal/services/report"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a single scan and print the report",
	Long:  `Runs one scan at the current time. The phase (pre-scan or live) is chosen from the exchange-local clock.`,
	RunE:  runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wiring, err := wireSources(ctx, config, nil, logger)
	if err != nil {
		return err
	}
	defer wiring.Close()

	p := pipeline.New(config, wiring.Sources, nil, logger)
	formatter := report.NewFormatter(config.Output.Format, config.Location(), config.ReportLocation())

	result, err := p.RunAndDeliver(ctx, time.Now(), formatter, reportSink())
	if err != nil {
		return err
	}

	logger.Info().
		Str("run_id", result.RunID).
		Str("phase", string(result.Phase)).
		Int("candidates", len(result.Candidates)).
		Msg("Scan finished")
	return nil
}

func reportSink() interfaces.ReportSink {
	if config.Output.File != "" {
		return report.NewFileSink(config.Output.File)
	}
	return report.NewWriterSink(os.Stdout)
}
