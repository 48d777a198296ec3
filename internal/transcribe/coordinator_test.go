package transcribe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsayram/life-wrapped-sub005/internal/domain"
	"github.com/jsayram/life-wrapped-sub005/internal/engine"
)

// startFunc adapts a function to the Recognizer interface.
type startFunc func(ctx context.Context, audioPath, locale string) (<-chan engine.Event, error)

func (f startFunc) Start(ctx context.Context, audioPath, locale string) (<-chan engine.Event, error) {
	return f(ctx, audioPath, locale)
}

func testJob() domain.TranscriptionJob {
	return domain.TranscriptionJob{
		ID:               "job-1",
		AudioPath:        "chunk.wav",
		Locale:           "en-US",
		ExpectedDuration: 0,
	}
}

// TestCoordinatorEarlyCompletion verifies stable text plus a final marker
// resolves well before the hard timeout.
func TestCoordinatorEarlyCompletion(t *testing.T) {
	rec := &engine.Scripted{
		Steps:    []engine.Step{{Event: engine.Final("hello world")}},
		KeepOpen: true,
	}
	c := NewCoordinator(rec, fastWatchdogConfig(), nil)

	started := time.Now()
	outcome, err := c.Run(context.Background(), testJob())

	require.NoError(t, err)
	require.Len(t, outcome.Utterances, 1)
	assert.Equal(t, "hello world", outcome.Utterances[0].Text)
	assert.Equal(t, "job-1", outcome.Utterances[0].JobID)
	assert.Equal(t, 0, outcome.Utterances[0].Index)
	assert.Less(t, time.Since(started), 100*time.Millisecond)
}

// TestCoordinatorSilentEngineStillResolves verifies a closed stream hands
// resolution to the watchdog.
func TestCoordinatorSilentEngineStillResolves(t *testing.T) {
	rec := engine.NewScripted(engine.Step{Event: engine.Final("one two three")})
	c := NewCoordinator(rec, fastWatchdogConfig(), nil)

	outcome, err := c.Run(context.Background(), testJob())

	require.NoError(t, err)
	require.Len(t, outcome.Utterances, 1)
	assert.Equal(t, "one two three", outcome.Utterances[0].Text)
}

// TestCoordinatorTimeoutCompletion verifies a partial-only stream resolves
// successfully at the hard timeout with the accumulated text.
func TestCoordinatorTimeoutCompletion(t *testing.T) {
	rec := &engine.Scripted{
		Steps:    []engine.Step{{Event: engine.Partial("a b c")}},
		KeepOpen: true,
	}
	c := NewCoordinator(rec, fastWatchdogConfig(), nil)

	outcome, err := c.Run(context.Background(), testJob())

	require.NoError(t, err)
	require.Len(t, outcome.Utterances, 1)
	assert.Equal(t, "a b c", outcome.Utterances[0].Text)
}

// TestCoordinatorTimeoutWithNoText verifies the timeout resolves even a
// completely silent job, with zero utterances.
func TestCoordinatorTimeoutWithNoText(t *testing.T) {
	rec := &engine.Scripted{KeepOpen: true}
	c := NewCoordinator(rec, fastWatchdogConfig(), nil)

	outcome, err := c.Run(context.Background(), testJob())

	require.NoError(t, err)
	assert.Empty(t, outcome.Utterances)
}

// TestCoordinatorFailurePropagates verifies an engine failure with no
// salvageable text surfaces with its taxonomy kind.
func TestCoordinatorFailurePropagates(t *testing.T) {
	rec := engine.NewScripted(engine.Step{
		Event: engine.Failure(domain.NewError(domain.ErrorKindNotAuthorized, "speech permission denied", nil)),
	})
	c := NewCoordinator(rec, fastWatchdogConfig(), nil)

	_, err := c.Run(context.Background(), testJob())

	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.ErrorKindNotAuthorized, de.Kind)
}

// TestCoordinatorSalvagesAccumulatedText verifies an engine failure after
// text accumulated is treated as success with that text.
func TestCoordinatorSalvagesAccumulatedText(t *testing.T) {
	rec := engine.NewScripted(
		engine.Step{Event: engine.Partial("salvaged words")},
		engine.Step{Event: engine.Failure(domain.NewError(domain.ErrorKindRecognitionFailed, "engine crashed", nil))},
	)
	c := NewCoordinator(rec, fastWatchdogConfig(), nil)

	outcome, err := c.Run(context.Background(), testJob())

	require.NoError(t, err)
	require.Len(t, outcome.Utterances, 1)
	assert.Equal(t, "salvaged words", outcome.Utterances[0].Text)
}

// TestCoordinatorCancellation verifies cancelling the context resolves the
// job as cancelled.
func TestCoordinatorCancellation(t *testing.T) {
	rec := &engine.Scripted{KeepOpen: true}
	c := NewCoordinator(rec, fastWatchdogConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := c.Run(ctx, testJob())

	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.ErrorKindCancelled, de.Kind)
}

// TestCoordinatorStartErrorPassesThrough verifies structured start errors
// keep their kind.
func TestCoordinatorStartErrorPassesThrough(t *testing.T) {
	rec := startFunc(func(ctx context.Context, audioPath, locale string) (<-chan engine.Event, error) {
		return nil, domain.NewError(domain.ErrorKindAudioNotFound, "missing chunk", nil)
	})
	c := NewCoordinator(rec, fastWatchdogConfig(), nil)

	_, err := c.Run(context.Background(), testJob())

	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.ErrorKindAudioNotFound, de.Kind)
}

// TestCoordinatorSingleAssignment races an engine failure against the hard
// timeout repeatedly; every run must produce exactly one outcome.
func TestCoordinatorSingleAssignment(t *testing.T) {
	cfg := fastWatchdogConfig()
	cfg.MinTimeout = 20 * time.Millisecond
	cfg.TimeoutBuffer = 20 * time.Millisecond

	for i := 0; i < 20; i++ {
		rec := &engine.Scripted{
			Steps: []engine.Step{{
				After: 20 * time.Millisecond,
				Event: engine.Failure(domain.NewError(domain.ErrorKindRecognitionFailed, "late failure", nil)),
			}},
			KeepOpen: true,
		}
		c := NewCoordinator(rec, cfg, nil)

		outcome, err := c.Run(context.Background(), testJob())
		if err != nil {
			var de *domain.Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, domain.ErrorKindRecognitionFailed, de.Kind)
		} else {
			assert.Equal(t, "job-1", outcome.JobID)
			assert.Empty(t, outcome.Utterances)
		}
	}
}

// TestCoerceErrorWrapsUnknown verifies arbitrary errors map to the
// recognition-failed kind and context cancellation maps to cancelled.
func TestCoerceErrorWrapsUnknown(t *testing.T) {
	de := coerceError(errors.New("boom"))
	assert.Equal(t, domain.ErrorKindRecognitionFailed, de.Kind)

	de = coerceError(context.Canceled)
	assert.Equal(t, domain.ErrorKindCancelled, de.Kind)

	orig := domain.NewError(domain.ErrorKindEngineUnavailable, "down", nil)
	assert.Same(t, orig, coerceError(orig))
}
