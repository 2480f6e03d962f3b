package classroom

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/classpoll/internal/domain"
)

// PollManager owns the current poll. Creations run one at a time, so the
// current poll is always the result of the latest successful creation.
type PollManager struct {
	store   domain.PollStore
	clock   clockwork.Clock
	timeout time.Duration

	createMu sync.Mutex

	mu      sync.RWMutex
	current *domain.Poll
}

func NewPollManager(store domain.PollStore, clock clockwork.Clock, timeout time.Duration) *PollManager {
	return &PollManager{store: store, clock: clock, timeout: timeout}
}

// Create persists draft and installs the result as the current poll.
// onCreated runs before the next creation may start; nothing is installed
// or announced when the store fails.
func (m *PollManager) Create(ctx context.Context, draft domain.PollDraft, onCreated func(*domain.Poll)) (*domain.Poll, error) {
	m.createMu.Lock()
	defer m.createMu.Unlock()

	storeCtx, cancel := clockwork.WithTimeout(ctx, m.clock, m.timeout)
	defer cancel()

	poll, err := m.store.CreatePoll(storeCtx, draft)
	if err != nil {
		return nil, fmt.Errorf("create poll: %w", err)
	}

	m.mu.Lock()
	m.current = poll
	m.mu.Unlock()

	if onCreated != nil {
		onCreated(poll)
	}
	return poll, nil
}

// Current returns the current poll, or nil before the first creation.
func (m *PollManager) Current() *domain.Poll {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}
