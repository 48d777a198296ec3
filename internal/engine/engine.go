package engine

import "context"

// EventType classifies recognition events emitted by an engine stream.
type EventType string

const (
	// EventPartial carries an in-progress transcription that may still change.
	EventPartial EventType = "partial"
	// EventFinal marks one completed utterance; the stream may continue after it.
	EventFinal EventType = "final"
	// EventFailure terminates the stream with an engine-reported error.
	EventFailure EventType = "failure"
)

// Event is one recognition update from the engine.
type Event struct {
	Type EventType
	Text string
	Err  error
}

// Partial builds an in-progress event.
func Partial(text string) Event {
	return Event{Type: EventPartial, Text: text}
}

// Final builds a completed-utterance event.
func Final(text string) Event {
	return Event{Type: EventFinal, Text: text}
}

// Failure builds a terminal error event.
func Failure(err error) Event {
	return Event{Type: EventFailure, Err: err}
}

// Recognizer is a streaming speech recognition engine. Start begins
// recognition of one audio handle and returns the event stream. The engine
// may emit zero or more partials interleaved with zero or more finals, may
// terminate with a failure event, or may silently stop producing; cancelling
// the context stops recognition. The returned channel is closed when the
// engine stops producing events.
type Recognizer interface {
	Start(ctx context.Context, audioPath, locale string) (<-chan Event, error)
}
