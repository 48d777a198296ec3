package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScriptedReplaysInOrder verifies steps arrive in script order and the
// stream closes afterwards.
func TestScriptedReplaysInOrder(t *testing.T) {
	rec := NewScripted(
		Step{Event: Partial("he")},
		Step{Event: Partial("hello")},
		Step{Event: Final("hello world")},
	)

	events, err := rec.Start(context.Background(), "chunk.wav", "en-US")
	require.NoError(t, err)

	var got []Event
	for ev := range events {
		got = append(got, ev)
	}

	require.Len(t, got, 3)
	assert.Equal(t, EventPartial, got[0].Type)
	assert.Equal(t, "hello", got[1].Text)
	assert.Equal(t, EventFinal, got[2].Type)
	assert.Equal(t, "hello world", got[2].Text)
}

// TestScriptedKeepOpen verifies the stream stays open after the last step.
func TestScriptedKeepOpen(t *testing.T) {
	rec := &Scripted{
		Steps:    []Step{{Event: Final("done")}},
		KeepOpen: true,
	}

	events, err := rec.Start(context.Background(), "chunk.wav", "en-US")
	require.NoError(t, err)

	ev := <-events
	assert.Equal(t, EventFinal, ev.Type)

	select {
	case _, ok := <-events:
		assert.True(t, ok, "channel must not close")
		t.Fatal("no further events expected")
	case <-time.After(20 * time.Millisecond):
	}
}

// TestScriptedStopsOnCancel verifies cancellation halts delivery.
func TestScriptedStopsOnCancel(t *testing.T) {
	rec := NewScripted(
		Step{After: 5 * time.Millisecond, Event: Partial("one")},
		Step{After: time.Minute, Event: Final("never")},
	)

	ctx, cancel := context.WithCancel(context.Background())
	events, err := rec.Start(ctx, "chunk.wav", "en-US")
	require.NoError(t, err)

	ev := <-events
	assert.Equal(t, "one", ev.Text)
	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok, "stream must close after cancellation")
	case <-time.After(time.Second):
		t.Fatal("stream did not close")
	}
}
