package transcribe

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// Proposal is the watchdog's completion verdict for one job.
type Proposal int

const (
	// ProposalNone means the watch was cancelled before reaching a verdict.
	ProposalNone Proposal = iota
	// ProposalEarly means the text stabilized after at least one final marker.
	ProposalEarly
	// ProposalTimeout means the hard timeout elapsed.
	ProposalTimeout
)

// String names the proposal for logs.
func (p Proposal) String() string {
	switch p {
	case ProposalEarly:
		return "early"
	case ProposalTimeout:
		return "timeout"
	default:
		return "none"
	}
}

// WatchdogConfig tunes the stability poller. The constants are empirical;
// correctness depends only on the arbitration around them.
type WatchdogConfig struct {
	PollInterval       time.Duration
	StabilityThreshold int
	TimeoutBuffer      time.Duration
	MinTimeout         time.Duration
}

// DefaultWatchdogConfig returns the baseline poller tuning.
func DefaultWatchdogConfig() WatchdogConfig {
	return WatchdogConfig{
		PollInterval:       500 * time.Millisecond,
		StabilityThreshold: 3,
		TimeoutBuffer:      3 * time.Second,
		MinTimeout:         5 * time.Second,
	}
}

// withDefaults fills zero fields from the baseline tuning.
func (c WatchdogConfig) withDefaults() WatchdogConfig {
	def := DefaultWatchdogConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.StabilityThreshold <= 0 {
		c.StabilityThreshold = def.StabilityThreshold
	}
	if c.TimeoutBuffer <= 0 {
		c.TimeoutBuffer = def.TimeoutBuffer
	}
	if c.MinTimeout <= 0 {
		c.MinTimeout = def.MinTimeout
	}
	return c
}

// Deadline bounds total job latency regardless of engine behavior.
func (c WatchdogConfig) Deadline(expected time.Duration) time.Duration {
	deadline := expected + c.TimeoutBuffer
	if deadline < c.MinTimeout {
		deadline = c.MinTimeout
	}
	return deadline
}

// Watchdog infers job completion from lack of change rather than an explicit
// engine signal. One watchdog runs per job, concurrent with event ingestion.
type Watchdog struct {
	cfg WatchdogConfig
	log *log.Logger
}

// NewWatchdog creates a watchdog with the given tuning. The logger is optional.
func NewWatchdog(cfg WatchdogConfig, logger *log.Logger) *Watchdog {
	return &Watchdog{cfg: cfg.withDefaults(), log: logger}
}

// Watch polls snapshots at a fixed cadence until the text stabilizes, the
// hard timeout elapses, or the context is cancelled. It never mutates the
// accumulator.
func (w *Watchdog) Watch(ctx context.Context, expected time.Duration, snapshot func() Snapshot) Proposal {
	timeout := time.NewTimer(w.cfg.Deadline(expected))
	defer timeout.Stop()

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	stable := 0
	lastWords := 0

	for {
		select {
		case <-ctx.Done():
			return ProposalNone

		case <-timeout.C:
			if w.log != nil {
				w.log.Info("hard timeout elapsed", "deadline", w.cfg.Deadline(expected))
			}
			return ProposalTimeout

		case <-ticker.C:
			snap := snapshot()
			if snap.WordCount == lastWords && snap.WordCount > 0 {
				stable++
			} else {
				stable = 0
				lastWords = snap.WordCount
			}

			if stable >= w.cfg.StabilityThreshold && snap.FinalEvents > 0 {
				if w.log != nil {
					w.log.Info("text stabilized",
						"words", snap.WordCount,
						"polls", stable,
						"finals", snap.FinalEvents,
					)
				}
				return ProposalEarly
			}
		}
	}
}
