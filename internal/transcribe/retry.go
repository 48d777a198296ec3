package transcribe

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jsayram/life-wrapped-sub005/internal/domain"
)

// jobRunner isolates the coordinator behind an interface for testability.
type jobRunner interface {
	Run(ctx context.Context, job domain.TranscriptionJob) (domain.JobOutcome, error)
}

// RetryRunner wraps a coordinator invocation with a bounded retry policy.
// Fatal failures abort immediately; everything else is retried up to the
// job's limit with a fixed delay between attempts.
type RetryRunner struct {
	runner jobRunner
	log    *log.Logger

	// OnRetry is invoked before each re-attempt, after the delay decision.
	OnRetry func(job domain.TranscriptionJob, nextAttempt int, err *domain.Error)
}

// NewRetryRunner builds a retry wrapper around a job runner.
func NewRetryRunner(runner jobRunner, logger *log.Logger) *RetryRunner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &RetryRunner{runner: runner, log: logger}
}

// Execute attempts the job up to MaxRetries+1 times and returns the first
// success or the last observed error.
func (r *RetryRunner) Execute(ctx context.Context, job domain.TranscriptionJob) (domain.JobOutcome, error) {
	attempts := job.Retry.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr *domain.Error
	for attempt := 1; attempt <= attempts; attempt++ {
		outcome, err := r.runner.Run(ctx, job)
		if err == nil {
			outcome.Attempts = attempt
			return outcome, nil
		}

		lastErr = coerceError(err)
		if lastErr.Fatal() {
			r.log.Error("fatal failure, not retrying", "job", job.ID, "kind", lastErr.Kind, "error", lastErr)
			return domain.JobOutcome{}, lastErr
		}
		if attempt == attempts {
			break
		}

		r.log.Warn("attempt failed, retrying",
			"job", job.ID,
			"attempt", attempt,
			"of", attempts,
			"delay", job.Retry.Delay,
			"error", lastErr,
		)
		if err := sleep(ctx, job.Retry.Delay); err != nil {
			return domain.JobOutcome{}, domain.NewError(domain.ErrorKindCancelled, "cancelled during retry delay", err)
		}
		if r.OnRetry != nil {
			r.OnRetry(job, attempt+1, lastErr)
		}
	}

	r.log.Error("retries exhausted", "job", job.ID, "attempts", attempts, "error", lastErr)
	return domain.JobOutcome{}, lastErr
}

// sleep waits for d or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
