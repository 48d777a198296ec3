package transcribe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsayram/life-wrapped-sub005/internal/domain"
)

// scriptedRunner fails a fixed number of times before succeeding.
type scriptedRunner struct {
	calls    int
	failures int
	err      *domain.Error
}

func (r *scriptedRunner) Run(ctx context.Context, job domain.TranscriptionJob) (domain.JobOutcome, error) {
	r.calls++
	if r.calls <= r.failures {
		return domain.JobOutcome{}, r.err
	}
	return domain.JobOutcome{
		JobID:      job.ID,
		Utterances: []domain.Utterance{{JobID: job.ID, Text: "ok"}},
		Duration:   10 * time.Millisecond,
	}, nil
}

func retryJob(maxRetries int, delay time.Duration) domain.TranscriptionJob {
	return domain.TranscriptionJob{
		ID:        "job-1",
		AudioPath: "chunk.wav",
		Retry:     domain.RetryPolicy{MaxRetries: maxRetries, Delay: delay},
	}
}

// TestRetryFatalAbortsImmediately verifies fatal kinds get exactly one
// attempt regardless of the retry budget.
func TestRetryFatalAbortsImmediately(t *testing.T) {
	for _, kind := range []domain.ErrorKind{
		domain.ErrorKindNotAuthorized,
		domain.ErrorKindEngineUnavailable,
		domain.ErrorKindCancelled,
	} {
		runner := &scriptedRunner{failures: 10, err: domain.NewError(kind, "fatal", nil)}
		r := NewRetryRunner(runner, nil)

		_, err := r.Execute(context.Background(), retryJob(5, 0))

		var de *domain.Error
		require.ErrorAs(t, err, &de)
		assert.Equal(t, kind, de.Kind)
		assert.Equal(t, 1, runner.calls, "kind %s must not be retried", kind)
	}
}

// TestRetryRetryableExhaustsBudget verifies retryable failures get
// maxRetries+1 attempts and surface the last observed error.
func TestRetryRetryableExhaustsBudget(t *testing.T) {
	runner := &scriptedRunner{
		failures: 10,
		err:      domain.NewError(domain.ErrorKindRecognitionFailed, "flaky", nil),
	}
	r := NewRetryRunner(runner, nil)

	_, err := r.Execute(context.Background(), retryJob(2, time.Millisecond))

	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.ErrorKindRecognitionFailed, de.Kind)
	assert.Equal(t, 3, runner.calls)
}

// TestRetryAudioNotFoundIsRetryable preserves the source behavior of
// retrying missing-audio failures.
func TestRetryAudioNotFoundIsRetryable(t *testing.T) {
	runner := &scriptedRunner{
		failures: 10,
		err:      domain.NewError(domain.ErrorKindAudioNotFound, "missing", nil),
	}
	r := NewRetryRunner(runner, nil)

	_, err := r.Execute(context.Background(), retryJob(1, 0))

	require.Error(t, err)
	assert.Equal(t, 2, runner.calls)
}

// TestRetrySucceedsMidway verifies a retry success returns immediately with
// the attempt count.
func TestRetrySucceedsMidway(t *testing.T) {
	runner := &scriptedRunner{
		failures: 1,
		err:      domain.NewError(domain.ErrorKindRecognitionFailed, "flaky", nil),
	}
	r := NewRetryRunner(runner, nil)

	var retried []int
	r.OnRetry = func(job domain.TranscriptionJob, nextAttempt int, err *domain.Error) {
		retried = append(retried, nextAttempt)
	}

	outcome, err := r.Execute(context.Background(), retryJob(3, time.Millisecond))

	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Attempts)
	assert.Equal(t, 2, runner.calls)
	assert.Equal(t, []int{2}, retried)
}

// TestRetryCancelledDuringDelay verifies cancellation during the backoff
// resolves as cancelled without further attempts.
func TestRetryCancelledDuringDelay(t *testing.T) {
	runner := &scriptedRunner{
		failures: 10,
		err:      domain.NewError(domain.ErrorKindRecognitionFailed, "flaky", nil),
	}
	r := NewRetryRunner(runner, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	_, err := r.Execute(ctx, retryJob(3, time.Second))

	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.ErrorKindCancelled, de.Kind)
	assert.Equal(t, 1, runner.calls)
}

// TestRetryNegativeBudgetStillAttemptsOnce verifies a malformed policy runs
// the job exactly once.
func TestRetryNegativeBudgetStillAttemptsOnce(t *testing.T) {
	runner := &scriptedRunner{}
	r := NewRetryRunner(runner, nil)

	outcome, err := r.Execute(context.Background(), retryJob(-5, 0))

	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Attempts)
	assert.Equal(t, 1, runner.calls)
}
