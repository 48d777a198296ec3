package stats

import (
	"sync"
	"time"
)

// Snapshot is an immutable view of process-wide transcription counters and
// their derived rates.
type Snapshot struct {
	TotalJobsProcessed      int64         `json:"totalJobsProcessed"`
	TotalUtterancesProduced int64         `json:"totalUtterancesProduced"`
	TotalProcessingTime     time.Duration `json:"totalProcessingTime"`
	SuccessCount            int64         `json:"successCount"`
	FailureCount            int64         `json:"failureCount"`
	SuccessRate             float64       `json:"successRate"`
	AverageUtterancesPerJob float64       `json:"averageUtterancesPerJob"`
	AverageProcessingTime   time.Duration `json:"averageProcessingTime"`
}

// Tracker accumulates throughput and success-rate counters for the whole
// application session. Mutations are serialized under one mutex so counters
// stay consistent across concurrent job completions.
type Tracker struct {
	mu             sync.Mutex
	jobs           int64
	utterances     int64
	processingTime time.Duration
	successes      int64
	failures       int64
}

// NewTracker creates a zeroed tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// RecordSuccess accounts one successful job.
func (t *Tracker) RecordSuccess(utteranceCount int, duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.jobs++
	t.successes++
	t.utterances += int64(utteranceCount)
	t.processingTime += duration
}

// RecordFailure accounts one failed job.
func (t *Tracker) RecordFailure() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.jobs++
	t.failures++
}

// Snapshot returns current totals with derived rates.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := Snapshot{
		TotalJobsProcessed:      t.jobs,
		TotalUtterancesProduced: t.utterances,
		TotalProcessingTime:     t.processingTime,
		SuccessCount:            t.successes,
		FailureCount:            t.failures,
	}
	if t.jobs > 0 {
		snap.SuccessRate = float64(t.successes) / float64(t.jobs)
		snap.AverageUtterancesPerJob = float64(t.utterances) / float64(t.jobs)
		snap.AverageProcessingTime = t.processingTime / time.Duration(t.jobs)
	}
	return snap
}

// Reset zeroes every counter.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.jobs = 0
	t.utterances = 0
	t.processingTime = 0
	t.successes = 0
	t.failures = 0
}
