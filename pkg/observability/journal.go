package observability

import (
	"context"
	"sync"

	"github.com/aretw0/tesoro/pkg/domain"
)

// DefaultJournalSize is used when NewJournal is given a non-positive size.
const DefaultJournalSize = 100

// Journal keeps the most recent completed requests in memory.
type Journal struct {
	mu     sync.Mutex
	events []domain.CommandEvent
	next   int
	full   bool
}

// NewJournal creates a journal holding up to size events.
func NewJournal(size int) *Journal {
	if size <= 0 {
		size = DefaultJournalSize
	}
	return &Journal{events: make([]domain.CommandEvent, size)}
}

// Record stores e, evicting the oldest entry when full.
func (j *Journal) Record(e domain.CommandEvent) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.events[j.next] = e
	j.next = (j.next + 1) % len(j.events)
	if j.next == 0 {
		j.full = true
	}
}

// Snapshot returns the recorded events, oldest first.
func (j *Journal) Snapshot() []domain.CommandEvent {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.full {
		return append([]domain.CommandEvent{}, j.events[:j.next]...)
	}
	out := make([]domain.CommandEvent, 0, len(j.events))
	out = append(out, j.events[j.next:]...)
	return append(out, j.events[:j.next]...)
}

// Hooks returns lifecycle hooks that record every reply.
func (j *Journal) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnReply: func(_ context.Context, e *domain.CommandEvent) {
			j.Record(*e)
		},
	}
}
