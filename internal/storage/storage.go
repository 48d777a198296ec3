package storage

import (
	"context"
	"sync"

	"github.com/jsayram/life-wrapped-sub005/internal/domain"
)

// Store persists produced utterances. Idempotency is the store's concern,
// not the transcription core's.
type Store interface {
	Insert(ctx context.Context, utterance domain.Utterance) error
}

// Memory keeps utterances in process memory. It backs tests and runs
// without a configured database.
type Memory struct {
	mu    sync.Mutex
	items []domain.Utterance
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Insert appends one utterance.
func (m *Memory) Insert(ctx context.Context, utterance domain.Utterance) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, utterance)
	return nil
}

// All returns a copy of every stored utterance in insertion order.
func (m *Memory) All() []domain.Utterance {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Utterance, len(m.items))
	copy(out, m.items)
	return out
}

// Len reports how many utterances are stored.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
