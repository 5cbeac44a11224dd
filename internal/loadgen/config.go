// Package loadgen drives a running balance service with synthetic survey
// comparisons and checks that the resulting ratings reflect the bias the
// comparisons were generated with.
package loadgen

import (
	"errors"
	"fmt"
	"time"
)

// Defaults used by the CLI.
const (
	DefaultBaseURL         = "http://localhost:9080"
	DefaultFamilies        = 20
	DefaultEventsPerFamily = 500
	DefaultBatchSize       = 100
	DefaultBias            = 0.7
	DefaultTimeout         = 30 * time.Second
	DefaultSettleTimeout   = 2 * time.Minute
)

// ErrInvalidConfig is returned when a Config cannot drive a run.
var ErrInvalidConfig = errors.New("invalid load generator config")

// Config holds configuration for one load run.
type Config struct {
	BaseURL         string        // Base URL of the service
	Families        int           // Number of synthetic families
	EventsPerFamily int           // Comparisons generated per family
	BatchSize       int           // Comparisons per batch request
	Workers         int           // Concurrent batch submitters
	Bias            float64       // Probability that A does a task nobody shares
	DuplicateRate   float64       // Fraction of comparisons resent with the same event id
	NeitherRate     float64       // Fraction of comparisons answered Neither
	Seed            uint64        // PRNG seed, 0 picks one from the clock
	Timeout         time.Duration // HTTP request timeout
	SettleTimeout   time.Duration // How long to wait for the queue to drain
	OutputFile      string        // Optional JSON dump of the generated comparisons
	Verbose         bool
}

// Validate reports the first unusable field.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	case c.Families <= 0:
		return fmt.Errorf("%w: families must be positive", ErrInvalidConfig)
	case c.EventsPerFamily <= 0:
		return fmt.Errorf("%w: events per family must be positive", ErrInvalidConfig)
	case c.BatchSize <= 0:
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidConfig)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	case c.Bias < 0 || c.Bias > 1:
		return fmt.Errorf("%w: bias must be within [0,1]", ErrInvalidConfig)
	case c.DuplicateRate < 0 || c.DuplicateRate >= 1:
		return fmt.Errorf("%w: duplicate rate must be within [0,1)", ErrInvalidConfig)
	case c.NeitherRate < 0 || c.NeitherRate >= 1:
		return fmt.Errorf("%w: neither rate must be within [0,1)", ErrInvalidConfig)
	}
	return nil
}

// Stats holds run statistics.
type Stats struct {
	Generated    int
	Submitted    int
	Accepted     int
	Duplicates   int
	Rejected     int
	Backpressure int // 429 responses that were retried
	Failed       int // batches that could not be delivered
	Verified     int // families whose leaders matched the bias
	Mismatched   int
	Duration     time.Duration
}
