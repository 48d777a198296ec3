package domain

import "time"

// JobStatus tracks the lifecycle of a single transcription job.
type JobStatus string

const (
	JobStatusIdle      JobStatus = "idle"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// RetryPolicy bounds how failed attempts of one job are retried.
type RetryPolicy struct {
	MaxRetries int           `json:"maxRetries"`
	Delay      time.Duration `json:"delay"`
}

// TranscriptionJob describes one audio chunk to transcribe. Immutable once submitted.
type TranscriptionJob struct {
	ID               string        `json:"id"`
	AudioPath        string        `json:"audioPath"`
	Locale           string        `json:"locale"`
	ExpectedDuration time.Duration `json:"expectedDuration"`
	Retry            RetryPolicy   `json:"retry"`
}

// Utterance is one flushed, completed unit of transcribed text.
type Utterance struct {
	JobID  string `json:"jobId"`
	Index  int    `json:"index"`
	Locale string `json:"locale"`
	Text   string `json:"text"`
}

// JobOutcome is the resolved result of one job. Immutable once created.
type JobOutcome struct {
	JobID      string        `json:"jobId"`
	Utterances []Utterance   `json:"utterances"`
	Duration   time.Duration `json:"duration"`
	Attempts   int           `json:"attempts"`
}
