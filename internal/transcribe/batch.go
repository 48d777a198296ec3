package transcribe

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/jsayram/life-wrapped-sub005/internal/domain"
	"github.com/jsayram/life-wrapped-sub005/internal/storage"
)

// outcomeRunner isolates per-job execution behind an interface.
type outcomeRunner interface {
	Execute(ctx context.Context, job domain.TranscriptionJob) (domain.JobOutcome, error)
}

// BatchRunner sequences jobs one at a time; the engine is effectively
// single-tenant per device, so jobs never run in parallel.
type BatchRunner struct {
	runner outcomeRunner
	store  storage.Store
	log    *log.Logger
}

// NewBatchRunner builds a sequential batch executor over a store.
func NewBatchRunner(runner outcomeRunner, store storage.Store, logger *log.Logger) *BatchRunner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &BatchRunner{runner: runner, store: store, log: logger}
}

// Execute runs every job in order, persisting produced utterances and
// reporting progress after each job. The first job error halts the batch;
// later jobs are not attempted. It returns the total utterance count.
func (b *BatchRunner) Execute(
	ctx context.Context,
	jobs []domain.TranscriptionJob,
	onProgress func(completed, total int),
) (int, error) {
	total := len(jobs)
	count := 0

	for i, job := range jobs {
		outcome, err := b.runner.Execute(ctx, job)
		if err == nil {
			if err = b.persist(ctx, outcome); err == nil {
				count += len(outcome.Utterances)
			}
		}

		b.log.Info("batch progress", "completed", i+1, "total", total, "utterances", count)
		if onProgress != nil {
			onProgress(i+1, total)
		}
		if err != nil {
			b.log.Error("batch halted", "job", job.ID, "completed", i+1, "total", total, "error", err)
			return count, err
		}
	}

	return count, nil
}

// persist inserts every utterance of one successful job.
func (b *BatchRunner) persist(ctx context.Context, outcome domain.JobOutcome) error {
	for _, utterance := range outcome.Utterances {
		if err := b.store.Insert(ctx, utterance); err != nil {
			return fmt.Errorf("persist utterance %d of job %s: %w", utterance.Index, outcome.JobID, err)
		}
	}
	return nil
}
