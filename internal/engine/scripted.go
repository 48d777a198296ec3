package engine

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// Step is one scripted emission: wait After, then deliver Event.
type Step struct {
	After time.Duration
	Event Event
}

// Scripted replays a fixed event sequence without invoking a real engine.
// It backs tests and demo runs.
type Scripted struct {
	// Steps are delivered in order, each after its own delay.
	Steps []Step
	// KeepOpen leaves the stream open after the last step, simulating an
	// engine that silently stops producing.
	KeepOpen bool
	// Logger is optional.
	Logger *log.Logger
}

// NewScripted builds a scripted recognizer from ordered steps.
func NewScripted(steps ...Step) *Scripted {
	return &Scripted{Steps: steps}
}

// Start replays the script on a fresh channel until the steps run out or the
// context is cancelled.
func (s *Scripted) Start(ctx context.Context, audioPath, locale string) (<-chan Event, error) {
	events := make(chan Event, len(s.Steps)+1)

	go func() {
		if !s.KeepOpen {
			defer close(events)
		}

		for _, step := range s.Steps {
			if step.After > 0 {
				timer := time.NewTimer(step.After)
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-timer.C:
				}
			} else if ctx.Err() != nil {
				return
			}

			if s.Logger != nil {
				s.Logger.Debug("scripted event", "type", step.Event.Type, "text", step.Event.Text)
			}

			select {
			case <-ctx.Done():
				return
			case events <- step.Event:
			}
		}
	}()

	return events, nil
}
