package transcribe

import (
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/jsayram/life-wrapped-sub005/internal/engine"
)

// Snapshot is a read-only view of accumulated transcription state.
type Snapshot struct {
	CompletedCount int
	FinalEvents    int
	AbandonedCount int
	FullText       string
	WordCount      int
}

// Accumulator reconciles the engine's partial/final event stream for one job.
// It is owned by that job's coordinator; the watchdog only reads snapshots.
type Accumulator struct {
	mu             sync.Mutex
	completed      []string
	currentPartial string
	finalEvents    int
	abandoned      int
	log            *log.Logger
}

// NewAccumulator creates an empty accumulator. The logger is optional.
func NewAccumulator(logger *log.Logger) *Accumulator {
	return &Accumulator{log: logger}
}

// Ingest applies one recognition event. Failure events are the coordinator's
// concern and are ignored here.
func (a *Accumulator) Ingest(ev engine.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch ev.Type {
	case engine.EventPartial:
		a.ingestPartial(ev.Text)
	case engine.EventFinal:
		a.ingestFinal(ev.Text)
	}
}

// ingestPartial replaces the in-progress text, flushing it first when the
// engine silently abandoned it. A drop in word count without a final marker
// is the only evidence of abandonment the engine gives us.
func (a *Accumulator) ingestPartial(text string) {
	text = strings.TrimSpace(text)

	if a.currentPartial != "" && countWords(text) < countWords(a.currentPartial) {
		a.completed = append(a.completed, a.currentPartial)
		a.abandoned++
		if a.log != nil {
			a.log.Info("flushed abandoned partial",
				"text", a.currentPartial,
				"replacement_words", countWords(text),
			)
		}
	}

	a.currentPartial = text
}

// ingestFinal appends one completed utterance, suppressing consecutive
// duplicates, and resets the in-progress text.
func (a *Accumulator) ingestFinal(text string) {
	text = strings.TrimSpace(text)
	a.finalEvents++
	a.currentPartial = ""

	if text == "" {
		return
	}
	if n := len(a.completed); n > 0 && a.completed[n-1] == text {
		if a.log != nil {
			a.log.Debug("suppressed duplicate final", "text", text)
		}
		return
	}

	a.completed = append(a.completed, text)
}

// Snapshot returns the current state without mutating it.
func (a *Accumulator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	full := a.fullTextLocked()
	return Snapshot{
		CompletedCount: len(a.completed),
		FinalEvents:    a.finalEvents,
		AbandonedCount: a.abandoned,
		FullText:       full,
		WordCount:      countWords(full),
	}
}

// Finalize flushes any trailing partial into the completed sequence and
// returns the ordered utterances. Called once, at resolution.
func (a *Accumulator) Finalize() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.currentPartial != "" {
		a.completed = append(a.completed, a.currentPartial)
		a.currentPartial = ""
	}

	out := make([]string, len(a.completed))
	copy(out, a.completed)
	return out
}

// fullTextLocked joins completed utterances and the in-progress partial.
func (a *Accumulator) fullTextLocked() string {
	parts := a.completed
	if a.currentPartial != "" {
		parts = append(append([]string(nil), a.completed...), a.currentPartial)
	}
	return strings.Join(parts, " ")
}

// countWords counts whitespace-separated words.
func countWords(text string) int {
	return len(strings.Fields(text))
}
