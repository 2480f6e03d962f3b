package classroom

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/classpoll/internal/adapter/metrics"
	"github.com/pscheid92/classpoll/internal/domain"
)

// Tally counts votes for the current poll. Counts are tagged with the poll
// they belong to; votes naming any other poll are rejected.
type Tally struct {
	store   domain.PollStore
	clock   clockwork.Clock
	timeout time.Duration
	metrics *metrics.PersistenceMetrics

	mu      sync.Mutex
	poll    *domain.Poll
	counts  domain.TallySnapshot

	pending sync.WaitGroup
}

func NewTally(store domain.PollStore, clock clockwork.Clock, timeout time.Duration, m *metrics.PersistenceMetrics) *Tally {
	return &Tally{
		store:   store,
		clock:   clock,
		timeout: timeout,
		metrics: m,
		counts:  make(domain.TallySnapshot),
	}
}

// Reset clears all counts and tags the tally with poll.
func (t *Tally) Reset(poll *domain.Poll) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.poll = poll
	t.counts = make(domain.TallySnapshot)
}

// Record counts one vote and returns the full snapshot. The vote is written
// to the store in the background; ctx only contributes its values.
func (t *Tally) Record(ctx context.Context, pollID string, optionID domain.OptionID) (domain.TallySnapshot, error) {
	t.mu.Lock()
	switch {
	case t.poll == nil:
		t.mu.Unlock()
		return nil, domain.ErrNoActivePoll
	case t.poll.ID != pollID:
		t.mu.Unlock()
		return nil, domain.ErrStalePoll
	}
	if !t.poll.HasOption(optionID) {
		t.mu.Unlock()
		return nil, domain.ErrUnknownOption
	}
	t.counts[optionID]++
	snapshot := maps.Clone(t.counts)
	t.mu.Unlock()

	t.pending.Add(1)
	go t.persist(context.WithoutCancel(ctx), pollID, optionID)

	return snapshot, nil
}

func (t *Tally) persist(ctx context.Context, pollID string, optionID domain.OptionID) {
	defer t.pending.Done()

	ctx, cancel := clockwork.WithTimeout(ctx, t.clock, t.timeout)
	defer cancel()

	start := t.clock.Now()
	err := t.store.RecordVote(ctx, pollID, optionID)
	t.metrics.VoteWriteDuration.Observe(t.clock.Since(start).Seconds())

	if !t.isCurrent(pollID) {
		t.metrics.StaleCompletions.Inc()
		slog.InfoContext(ctx, "Discarding vote write completion for superseded poll",
			"poll_id", pollID, "option_id", string(optionID), "error", err)
		return
	}

	if err != nil {
		t.metrics.VoteWrites.WithLabelValues("failed").Inc()
		slog.ErrorContext(ctx, "Vote write failed", "poll_id", pollID, "option_id", string(optionID), "error", err)
		return
	}
	t.metrics.VoteWrites.WithLabelValues("ok").Inc()
}

func (t *Tally) isCurrent(pollID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.poll != nil && t.poll.ID == pollID
}

// Snapshot returns a copy of the current counts.
func (t *Tally) Snapshot() domain.TallySnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return maps.Clone(t.counts)
}

// Wait blocks until every background vote write has finished.
func (t *Tally) Wait() {
	t.pending.Wait()
}
