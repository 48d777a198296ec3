package transcribe

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jsayram/life-wrapped-sub005/internal/domain"
	"github.com/jsayram/life-wrapped-sub005/internal/engine"
)

// resolution is the single outcome of one job attempt.
type resolution struct {
	path       string
	utterances []string
	err        *domain.Error
}

// Coordinator drives one job attempt: it feeds engine events into the
// accumulator, races the stability watchdog against the engine's own
// signals, and arbitrates exactly one completion.
type Coordinator struct {
	engine   engine.Recognizer
	watchdog *Watchdog
	log      *log.Logger
}

// NewCoordinator wires an engine and watchdog tuning into a coordinator.
func NewCoordinator(rec engine.Recognizer, cfg WatchdogConfig, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Coordinator{
		engine:   rec,
		watchdog: NewWatchdog(cfg, logger),
		log:      logger,
	}
}

// Run executes one attempt of the job. The first of engine failure, watchdog
// early completion, or watchdog timeout wins; later proposals are discarded.
func (c *Coordinator) Run(ctx context.Context, job domain.TranscriptionJob) (domain.JobOutcome, error) {
	started := time.Now()
	logger := c.log.With("job", job.ID)

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	events, err := c.engine.Start(runCtx, job.AudioPath, job.Locale)
	if err != nil {
		return domain.JobOutcome{}, coerceError(err)
	}
	logger.Info("job started", "audio", job.AudioPath, "locale", job.Locale, "expected", job.ExpectedDuration)

	acc := NewAccumulator(logger)
	var claimed atomic.Bool
	done := make(chan resolution, 1)

	// First caller wins; everyone after is a no-op.
	resolve := func(r resolution) {
		if !claimed.CompareAndSwap(false, true) {
			logger.Debug("late resolution discarded", "path", r.path)
			return
		}
		done <- r
	}

	go func() {
		for {
			select {
			case <-runCtx.Done():
				resolve(resolution{
					path: "cancelled",
					err:  domain.NewError(domain.ErrorKindCancelled, "job cancelled", runCtx.Err()),
				})
				return
			case ev, ok := <-events:
				if !ok {
					// Engine went silent; the watchdog owns resolution now.
					return
				}
				if ev.Type == engine.EventFailure {
					if snap := acc.Snapshot(); snap.WordCount > 0 {
						logger.Warn("engine failed with text accumulated, salvaging",
							"words", snap.WordCount, "error", ev.Err)
						resolve(resolution{path: "salvage", utterances: acc.Finalize()})
					} else {
						resolve(resolution{path: "failure", err: coerceError(ev.Err)})
					}
					return
				}
				acc.Ingest(ev)
			}
		}
	}()

	go func() {
		switch c.watchdog.Watch(runCtx, job.ExpectedDuration, acc.Snapshot) {
		case ProposalEarly:
			resolve(resolution{path: "early", utterances: acc.Finalize()})
		case ProposalTimeout:
			resolve(resolution{path: "timeout", utterances: acc.Finalize()})
		default:
			resolve(resolution{
				path: "cancelled",
				err:  domain.NewError(domain.ErrorKindCancelled, "job cancelled", runCtx.Err()),
			})
		}
	}()

	r := <-done
	stop()

	if r.err != nil {
		logger.Info("job attempt failed", "path", r.path, "kind", r.err.Kind, "error", r.err)
		return domain.JobOutcome{}, r.err
	}

	outcome := domain.JobOutcome{
		JobID:      job.ID,
		Utterances: toUtterances(job, r.utterances),
		Duration:   time.Since(started),
		Attempts:   1,
	}
	logger.Info("job completed",
		"path", r.path,
		"utterances", len(outcome.Utterances),
		"duration", outcome.Duration,
	)
	return outcome, nil
}

// toUtterances converts accumulated texts into ordered utterance segments.
func toUtterances(job domain.TranscriptionJob, texts []string) []domain.Utterance {
	out := make([]domain.Utterance, 0, len(texts))
	for i, text := range texts {
		out = append(out, domain.Utterance{
			JobID:  job.ID,
			Index:  i,
			Locale: job.Locale,
			Text:   text,
		})
	}
	return out
}

// coerceError normalizes any failure into the structured taxonomy.
func coerceError(err error) *domain.Error {
	if err == nil {
		return domain.NewError(domain.ErrorKindRecognitionFailed, "engine reported failure without cause", nil)
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return de
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.NewError(domain.ErrorKindCancelled, "job cancelled", err)
	}
	return domain.NewError(domain.ErrorKindRecognitionFailed, err.Error(), err)
}
