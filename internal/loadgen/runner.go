package loadgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/pkg/logger"
)

const (
	queueFullReason   = "queue full"
	retryBaseDelay    = 50 * time.Millisecond
	retryMaxDelay     = 2 * time.Second
	maxBatchAttempts  = 30
	settlePoll        = 250 * time.Millisecond
	directoryPerm     = 0o750
	outputFilePerm    = 0o600
	minBiasMargin     = 0.1
	biasNeutralCenter = 0.5
)

// ErrVerification is returned when the service state does not match what
// was submitted.
var ErrVerification = errors.New("verification failed")

// Runner executes a load run against one service.
type Runner struct {
	cfg    *Config
	client *Client
	logger logger.Logger
	now    func() time.Time

	mu    sync.Mutex
	stats Stats
}

// NewRunner validates cfg and returns a runner.
func NewRunner(cfg *Config, l logger.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if l == nil {
		l = logger.Nop()
	}
	return &Runner{
		cfg:    cfg,
		client: NewClient(cfg.BaseURL, cfg.Timeout),
		logger: l,
		now:    time.Now,
	}, nil
}

// Run checks health, submits every plan, waits for the queue to drain and
// verifies each family. Stats are returned even when Run fails.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	start := r.now()
	err := r.run(ctx, start)
	r.stats.Duration = r.now().Sub(start)
	return r.stats, err
}

func (r *Runner) run(ctx context.Context, start time.Time) error {
	r.logger.Info(ctx, "starting load run",
		logger.String("baseURL", r.cfg.BaseURL),
		logger.Int("families", r.cfg.Families),
		logger.Int("eventsPerFamily", r.cfg.EventsPerFamily),
		logger.Int("workers", r.cfg.Workers),
		logger.Float64("bias", r.cfg.Bias),
	)

	if err := r.client.Health(ctx); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	plans := Generate(r.cfg, start)
	for _, p := range plans {
		r.stats.Generated += len(p.Comparisons)
	}
	if r.cfg.OutputFile != "" {
		if err := savePlans(r.cfg.OutputFile, plans); err != nil {
			r.logger.Warn(ctx, "failed to save generated comparisons", logger.Error(err))
		}
	}

	if err := r.submit(ctx, plans); err != nil {
		return fmt.Errorf("submission failed: %w", err)
	}
	r.logger.Info(ctx, "submission completed",
		logger.Int("accepted", r.stats.Accepted),
		logger.Int("duplicates", r.stats.Duplicates),
		logger.Int("rejected", r.stats.Rejected),
		logger.Int("backpressure", r.stats.Backpressure),
	)

	if err := r.verify(ctx, plans); err != nil {
		return err
	}
	r.logger.Info(ctx, "load run completed",
		logger.Int("verified", r.stats.Verified),
		logger.Duration("duration", r.now().Sub(start)),
	)
	return nil
}

// submit posts every batch of every plan with at most Workers in flight.
func (r *Runner) submit(ctx context.Context, plans []FamilyPlan) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for _, p := range plans {
		for lo := 0; lo < len(p.Comparisons); lo += r.cfg.BatchSize {
			batch := p.Comparisons[lo:min(lo+r.cfg.BatchSize, len(p.Comparisons))]
			g.Go(func() error {
				return r.sendBatch(ctx, p.FamilyID, batch)
			})
		}
	}
	return g.Wait()
}

// sendBatch delivers one batch, resending entries refused for backpressure
// with exponential backoff.
func (r *Runner) sendBatch(ctx context.Context, familyID string, batch []Comparison) error {
	delay := retryBaseDelay
	pending := batch
	for attempt := 1; len(pending) > 0; attempt++ {
		res, err := r.client.PostBatch(ctx, familyID, pending)
		if err != nil {
			r.record(func(s *Stats) { s.Failed++ })
			return fmt.Errorf("family %s: %w", familyID, err)
		}

		var retry []Comparison
		for _, rej := range res.Rejected {
			if rej.Reason == queueFullReason && rej.Index < len(pending) {
				retry = append(retry, pending[rej.Index])
				continue
			}
			if r.cfg.Verbose {
				r.logger.Warn(ctx, "comparison rejected",
					logger.Family(familyID),
					logger.String("eventId", rej.EventID),
					logger.String("reason", rej.Reason),
				)
			}
		}
		r.record(func(s *Stats) {
			s.Submitted += len(pending) - len(retry)
			s.Accepted += res.Accepted
			s.Duplicates += res.Duplicates
			s.Rejected += len(res.Rejected) - len(retry)
			if res.Backpressure() {
				s.Backpressure++
			}
		})

		if len(retry) == 0 {
			return nil
		}
		if attempt >= maxBatchAttempts {
			r.record(func(s *Stats) { s.Failed++ })
			return fmt.Errorf("family %s: %d comparisons still refused after %d attempts", familyID, len(retry), attempt)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = min(delay*2, retryMaxDelay)
		pending = retry
	}
	return nil
}

// verify waits until every family has applied its unique comparisons, then
// checks the uncovered total and the global leader.
func (r *Runner) verify(ctx context.Context, plans []FamilyPlan) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.SettleTimeout)
	defer cancel()

	var mismatches []error
	for _, p := range plans {
		doc, err := r.awaitVersion(ctx, p)
		if err != nil {
			return fmt.Errorf("family %s did not settle: %w", p.FamilyID, err)
		}
		if err := checkFamily(p, doc.Uncovered.Total, doc.Global.A.Rating, doc.Global.B.Rating, r.cfg.Bias); err != nil {
			mismatches = append(mismatches, err)
			r.record(func(s *Stats) { s.Mismatched++ })
			continue
		}
		r.record(func(s *Stats) { s.Verified++ })
	}
	if len(mismatches) > 0 {
		return fmt.Errorf("%w: %w", ErrVerification, errors.Join(mismatches...))
	}
	return nil
}

func (r *Runner) awaitVersion(ctx context.Context, p FamilyPlan) (model.FamilyRatings, error) {
	ticker := time.NewTicker(settlePoll)
	defer ticker.Stop()
	for {
		ratings, err := r.client.Ratings(ctx, p.FamilyID)
		if err != nil {
			return model.FamilyRatings{}, err
		}
		if ratings.Version >= int64(p.Unique) {
			return ratings, nil
		}
		select {
		case <-ctx.Done():
			return model.FamilyRatings{}, fmt.Errorf("applied %d of %d: %w", ratings.Version, p.Unique, ctx.Err())
		case <-ticker.C:
		}
	}
}

// checkFamily compares a settled family with its plan. The leader is only
// checked when the bias is clearly away from an even split.
func checkFamily(p FamilyPlan, uncovered int, globalA, globalB, bias float64) error {
	if uncovered != p.Neither {
		return fmt.Errorf("family %s: uncovered total %d, want %d", p.FamilyID, uncovered, p.Neither)
	}
	switch {
	case bias >= biasNeutralCenter+minBiasMargin && globalA <= globalB:
		return fmt.Errorf("family %s: expected A to lead (%.1f vs %.1f)", p.FamilyID, globalA, globalB)
	case bias <= biasNeutralCenter-minBiasMargin && globalB <= globalA:
		return fmt.Errorf("family %s: expected B to lead (%.1f vs %.1f)", p.FamilyID, globalA, globalB)
	}
	return nil
}

func (r *Runner) record(fn func(*Stats)) {
	r.mu.Lock()
	fn(&r.stats)
	r.mu.Unlock()
}

func savePlans(path string, plans []FamilyPlan) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPerm); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(plans, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal plans: %w", err)
	}
	return os.WriteFile(path, data, outputFilePerm)
}
