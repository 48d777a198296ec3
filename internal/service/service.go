package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/jsayram/life-wrapped-sub005/internal/config"
	"github.com/jsayram/life-wrapped-sub005/internal/domain"
	"github.com/jsayram/life-wrapped-sub005/internal/engine"
	"github.com/jsayram/life-wrapped-sub005/internal/jobs"
	"github.com/jsayram/life-wrapped-sub005/internal/locales"
	"github.com/jsayram/life-wrapped-sub005/internal/stats"
	"github.com/jsayram/life-wrapped-sub005/internal/storage"
	"github.com/jsayram/life-wrapped-sub005/internal/transcribe"
)

// Service is the job API: it wires the engine, retry orchestration, job
// registry, statistics, storage, and the observability bus together.
type Service struct {
	cfg      config.Config
	store    storage.Store
	stats    *stats.Tracker
	registry *jobs.Registry
	events   *jobs.Bus
	retry    *transcribe.RetryRunner
	batch    *transcribe.BatchRunner
	log      *log.Logger
}

// New builds a service around one recognition engine and one store.
func New(cfg config.Config, rec engine.Recognizer, store storage.Store, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	coordinator := transcribe.NewCoordinator(rec, transcribe.WatchdogConfig{
		PollInterval:       cfg.Watchdog.PollInterval,
		StabilityThreshold: cfg.Watchdog.StabilityThreshold,
		TimeoutBuffer:      cfg.Watchdog.TimeoutBuffer,
		MinTimeout:         cfg.Watchdog.MinTimeout,
	}, logger)

	s := &Service{
		cfg:      cfg,
		store:    store,
		stats:    stats.NewTracker(),
		registry: jobs.NewRegistry(),
		events:   jobs.NewBus(1000),
		log:      logger,
	}

	s.retry = transcribe.NewRetryRunner(coordinator, logger)
	s.retry.OnRetry = func(job domain.TranscriptionJob, nextAttempt int, err *domain.Error) {
		s.events.Publish(jobs.Event{
			JobID:     job.ID,
			Type:      jobs.EventTypeRetry,
			Status:    domain.JobStatusRunning,
			Message:   "Retrying job",
			Attempt:   nextAttempt,
			ErrorKind: string(err.Kind),
		})
	}
	s.batch = transcribe.NewBatchRunner(batchAdapter{s}, store, logger)

	return s
}

// Transcribe runs one job to resolution, updating statistics exactly once.
func (s *Service) Transcribe(ctx context.Context, job domain.TranscriptionJob) (domain.JobOutcome, error) {
	job, err := s.normalizeJob(job)
	if err != nil {
		s.stats.RecordFailure()
		s.publishError(job.ID, err)
		return domain.JobOutcome{}, err
	}

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := s.registry.Track(job.ID, cancel); err != nil {
		return domain.JobOutcome{}, err
	}
	defer s.registry.Release(job.ID)

	s.events.Publish(jobs.Event{
		JobID:   job.ID,
		Type:    jobs.EventTypeStatus,
		Status:  domain.JobStatusRunning,
		Message: "Job started",
	})

	outcome, err := s.retry.Execute(jobCtx, job)
	if err != nil {
		s.stats.RecordFailure()
		status := domain.JobStatusFailed
		var de *domain.Error
		if errors.As(err, &de) && de.Kind == domain.ErrorKindCancelled {
			status = domain.JobStatusCancelled
		}
		_ = s.registry.Transition(job.ID, status)
		s.publishError(job.ID, err)
		return domain.JobOutcome{}, err
	}

	s.stats.RecordSuccess(len(outcome.Utterances), outcome.Duration)
	_ = s.registry.Transition(job.ID, domain.JobStatusCompleted)
	s.events.Publish(jobs.Event{
		JobID:      job.ID,
		Type:       jobs.EventTypeResult,
		Status:     domain.JobStatusCompleted,
		Message:    "Job completed",
		Attempt:    outcome.Attempts,
		Utterances: len(outcome.Utterances),
	})
	return outcome, nil
}

// TranscribeBatch runs jobs sequentially, persisting utterances and
// reporting progress after each job; the first error halts the batch.
func (s *Service) TranscribeBatch(
	ctx context.Context,
	batch []domain.TranscriptionJob,
	onProgress func(completed, total int),
) (int, error) {
	return s.batch.Execute(ctx, batch, onProgress)
}

// Cancel signals one running job; it resolves as cancelled at its next
// suspension point.
func (s *Service) Cancel(jobID string) error {
	return s.registry.Cancel(jobID)
}

// CancelAll signals every running job and reports how many were cancelled.
func (s *Service) CancelAll() int {
	return s.registry.CancelAll()
}

// Status returns the tracked status of an in-flight job.
func (s *Service) Status(jobID string) (domain.JobStatus, bool) {
	return s.registry.Status(jobID)
}

// Stats returns the process-wide statistics snapshot.
func (s *Service) Stats() stats.Snapshot {
	return s.stats.Snapshot()
}

// ResetStats zeroes the statistics tracker.
func (s *Service) ResetStats() {
	s.stats.Reset()
}

// Events returns observability events with sequence greater than sinceSeq.
func (s *Service) Events(sinceSeq int64) []jobs.Event {
	return s.events.Since(sinceSeq)
}

// normalizeJob assigns an ID when missing, resolves the locale, and applies
// the configured retry policy when the job carries none.
func (s *Service) normalizeJob(job domain.TranscriptionJob) (domain.TranscriptionJob, error) {
	if strings.TrimSpace(job.ID) == "" {
		job.ID = uuid.NewString()
	}

	locale := job.Locale
	if strings.TrimSpace(locale) == "" {
		locale = s.cfg.Locale
	}
	normalized, err := locales.Normalize(locale)
	if err != nil {
		return job, domain.NewError(
			domain.ErrorKindEngineUnavailable,
			fmt.Sprintf("engine cannot be instantiated for locale %q", locale),
			err,
		)
	}
	job.Locale = normalized

	if job.Retry == (domain.RetryPolicy{}) {
		job.Retry = domain.RetryPolicy{
			MaxRetries: s.cfg.Retry.MaxRetries,
			Delay:      s.cfg.Retry.Delay,
		}
	}
	return job, nil
}

// publishError records a failure event with its taxonomy kind.
func (s *Service) publishError(jobID string, err error) {
	event := jobs.Event{
		JobID:   jobID,
		Type:    jobs.EventTypeError,
		Status:  domain.JobStatusFailed,
		Message: err.Error(),
	}
	var de *domain.Error
	if errors.As(err, &de) {
		event.ErrorKind = string(de.Kind)
		if de.Kind == domain.ErrorKindCancelled {
			event.Status = domain.JobStatusCancelled
		}
	}
	s.events.Publish(event)
}

// batchAdapter routes batch jobs through the full per-job service flow so
// every batch item is tracked, retried, and counted like a single job.
type batchAdapter struct {
	s *Service
}

// Execute satisfies the batch runner's per-job interface.
func (a batchAdapter) Execute(ctx context.Context, job domain.TranscriptionJob) (domain.JobOutcome, error) {
	return a.s.Transcribe(ctx, job)
}
