package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/loadgen"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/pkg/logger"
)

// defaultWorkers is a multiplier for runtime.NumCPU().
const defaultWorkers = 2

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := &loadgen.Config{}
	var logFormat string

	cmd := &cobra.Command{
		Use:   "balance-events",
		Short: "Drive a balance service with synthetic survey comparisons",
		Long: `balance-events generates biased pairwise comparisons for a number of
synthetic families, submits them through the batch endpoint, waits for the
ingest queue to drain and checks each family's ratings against the bias.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.InitWith(cmd.OutOrStdout(), logger.Format(logFormat)); err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}
			if cfg.Verbose {
				_ = logger.SetLevelString("debug")
			}
			log := logger.Get().Named("loadgen")

			r, err := loadgen.NewRunner(cfg, log)
			if err != nil {
				return err
			}
			stats, err := r.Run(cmd.Context())
			log.Info(cmd.Context(), "final statistics",
				logger.Int("generated", stats.Generated),
				logger.Int("submitted", stats.Submitted),
				logger.Int("accepted", stats.Accepted),
				logger.Int("duplicates", stats.Duplicates),
				logger.Int("rejected", stats.Rejected),
				logger.Int("backpressure", stats.Backpressure),
				logger.Int("failed", stats.Failed),
				logger.Int("verified", stats.Verified),
				logger.Int("mismatched", stats.Mismatched),
				logger.Duration("duration", stats.Duration),
			)
			if err != nil {
				log.Error(cmd.Context(), "load run failed", logger.Error(err))
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", loadgen.DefaultBaseURL, "base URL of the service")
	f.IntVar(&cfg.Families, "families", loadgen.DefaultFamilies, "number of synthetic families")
	f.IntVar(&cfg.EventsPerFamily, "events", loadgen.DefaultEventsPerFamily, "comparisons generated per family")
	f.IntVar(&cfg.BatchSize, "batch", loadgen.DefaultBatchSize, "comparisons per batch request")
	f.IntVar(&cfg.Workers, "workers", runtime.NumCPU()*defaultWorkers, "concurrent batch submitters")
	f.Float64Var(&cfg.Bias, "bias", loadgen.DefaultBias, "probability that competitor A does an unshared task")
	f.Float64Var(&cfg.DuplicateRate, "duplicates", 0.05, "fraction of comparisons resent with the same event id")
	f.Float64Var(&cfg.NeitherRate, "neither", 0.05, "fraction of comparisons answered Neither")
	f.Uint64Var(&cfg.Seed, "seed", 0, "PRNG seed (0 picks one from the clock)")
	f.DurationVar(&cfg.Timeout, "timeout", loadgen.DefaultTimeout, "HTTP request timeout")
	f.DurationVar(&cfg.SettleTimeout, "settle", loadgen.DefaultSettleTimeout, "how long to wait for the queue to drain")
	f.StringVar(&cfg.OutputFile, "output", "", "write the generated comparisons to this JSON file")
	f.StringVar(&logFormat, "log-format", string(logger.FormatText), "log format (text or json)")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", false, "log every rejected comparison")
	return cmd
}
