package classroom

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/classpoll/internal/adapter/metrics"
	"github.com/pscheid92/classpoll/internal/domain"
	apperrors "github.com/pscheid92/classpoll/internal/platform/errors"
	"github.com/pscheid92/classpoll/internal/protocol"
)

// Fanout delivers encoded frames to connections.
type Fanout interface {
	Broadcast(data []byte)
	Send(connectionID string, data []byte)
	Disconnect(connectionID string, notice []byte)
}

type Options struct {
	// RevealCorrectAnswers keeps option correct flags in the poll view sent
	// to every connection. The creator's acknowledgement always has them.
	RevealCorrectAnswers bool
	PersistenceTimeout   time.Duration
}

// Coordinator is the session aggregate: registry, current poll and tally,
// plus the fan-out of every change they go through.
type Coordinator struct {
	fanout   Fanout
	registry *Registry
	polls    *PollManager
	tally    *Tally
	opts     Options
	metrics  *metrics.ClassroomMetrics

	mu      sync.Mutex
	severed map[string]struct{}
}

func NewCoordinator(store domain.PollStore, fanout Fanout, clock clockwork.Clock, opts Options, cm *metrics.ClassroomMetrics, pm *metrics.PersistenceMetrics) *Coordinator {
	return &Coordinator{
		fanout:   fanout,
		registry: NewRegistry(),
		polls:    NewPollManager(store, clock, opts.PersistenceTimeout),
		tally:    NewTally(store, clock, opts.PersistenceTimeout, pm),
		opts:     opts,
		metrics:  cm,
		severed:  make(map[string]struct{}),
	}
}

// CreatePoll persists draft, resets the tally and announces the poll to
// everyone, then acknowledges it to origin.
func (c *Coordinator) CreatePoll(ctx context.Context, origin string, draft domain.PollDraft) (*domain.Poll, error) {
	if err := validateDraft(draft); err != nil {
		c.metrics.PollsCreated.WithLabelValues("invalid").Inc()
		return nil, err
	}

	poll, err := c.polls.Create(ctx, draft, func(p *domain.Poll) {
		c.mu.Lock()
		defer c.mu.Unlock()

		c.tally.Reset(p)
		c.broadcast(ctx, protocol.EventPollCreated, protocol.NewPollCreated(p, c.opts.RevealCorrectAnswers))
		c.send(ctx, origin, protocol.EventPollCreated, protocol.NewPollCreated(p, true))
	})
	if err != nil {
		c.metrics.PollsCreated.WithLabelValues("failed").Inc()
		return nil, apperrors.PersistenceError("could not create poll", err).
			WithField("teacher_username", draft.TeacherUsername)
	}

	c.metrics.PollsCreated.WithLabelValues("ok").Inc()
	slog.InfoContext(ctx, "Poll created", "poll_id", poll.ID, "teacher_username", poll.TeacherUsername, "options", len(poll.Options))
	return poll, nil
}

// SubmitAnswer counts one vote for optionID and announces the new tally.
func (c *Coordinator) SubmitAnswer(ctx context.Context, pollID string, optionID domain.OptionID) error {
	if pollID == "" {
		return apperrors.ValidationError("pollId is required")
	}
	if optionID == "" {
		return apperrors.ValidationError("option is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot, err := c.tally.Record(ctx, pollID, optionID)
	if err != nil {
		c.metrics.VotesRecorded.WithLabelValues(voteRejection(err)).Inc()
		return apperrors.ValidationError(err.Error()).
			WithField("poll_id", pollID).
			WithField("option_id", string(optionID))
	}

	c.metrics.VotesRecorded.WithLabelValues("accepted").Inc()
	c.broadcast(ctx, protocol.EventPollResults, snapshot)
	return nil
}

func voteRejection(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoActivePoll):
		return "no_poll"
	case errors.Is(err, domain.ErrStalePoll):
		return "stale_poll"
	default:
		return "unknown_option"
	}
}

// Join registers connectionID under name and announces the participant list.
// Joins from a kicked connection are dropped.
func (c *Coordinator) Join(ctx context.Context, connectionID, name string) error {
	if err := requireName("username", name); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isSevered(connectionID) {
		slog.DebugContext(ctx, "Ignoring join from kicked connection", "username", name)
		return nil
	}
	c.registry.Join(connectionID, name)
	c.announceParticipants(ctx)
	return nil
}

// Leave removes connectionID and announces the participant list when it
// was registered. It reports whether anything was removed.
func (c *Coordinator) Leave(ctx context.Context, connectionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.leave(ctx, connectionID)
}

func (c *Coordinator) leave(ctx context.Context, connectionID string) bool {
	if !c.registry.Leave(connectionID) {
		return false
	}
	c.announceParticipants(ctx)
	return true
}

// Kick notifies and terminates the first connection registered under name,
// removes it and announces the participant list. Without a match nothing
// happens and false is returned.
func (c *Coordinator) Kick(ctx context.Context, name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	connectionID, ok := c.registry.FindByName(name)
	if !ok {
		c.metrics.Kicks.WithLabelValues("not_found").Inc()
		slog.DebugContext(ctx, "Kick target not found", "username", name)
		return false
	}

	c.severed[connectionID] = struct{}{}

	notice, err := protocol.Encode(protocol.EventKickedOut, protocol.KickedOut{Message: protocol.KickedOutMessage})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to encode kick notice", "error", err)
	}
	c.fanout.Disconnect(connectionID, notice)

	c.leave(ctx, connectionID)
	c.metrics.Kicks.WithLabelValues("kicked").Inc()
	slog.InfoContext(ctx, "Participant kicked", "username", name, "kicked_connection_id", connectionID)
	return true
}

// RelayChat re-broadcasts payload to every connection as is.
func (c *Coordinator) RelayChat(ctx context.Context, payload json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.metrics.ChatRelays.Inc()
	c.broadcast(ctx, protocol.EventChatMessage, payload)
}

// StudentLogin acknowledges a student's name to its own connection.
func (c *Coordinator) StudentLogin(ctx context.Context, connectionID, name string) error {
	if err := requireName("name", name); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isSevered(connectionID) {
		return nil
	}
	c.send(ctx, connectionID, protocol.EventLoginSuccess, protocol.LoginSuccess{
		Message: protocol.LoginSuccessMessage,
		Name:    name,
	})
	return nil
}

// IsSevered reports whether connectionID was kicked. Frames it sends
// afterwards must be ignored.
func (c *Coordinator) IsSevered(connectionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isSevered(connectionID)
}

// isSevered must be called with c.mu held.
func (c *Coordinator) isSevered(connectionID string) bool {
	_, ok := c.severed[connectionID]
	return ok
}

// Release runs the disconnect cleanup for connectionID. It is safe to call
// after a kick; the participant list is only announced if an entry was
// still registered.
func (c *Coordinator) Release(ctx context.Context, connectionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.severed, connectionID)
	c.leave(ctx, connectionID)
}

func (c *Coordinator) Participants() []string {
	return c.registry.Names()
}

func (c *Coordinator) Tally() domain.TallySnapshot {
	return c.tally.Snapshot()
}

func (c *Coordinator) CurrentPoll() *domain.Poll {
	return c.polls.Current()
}

// Wait blocks until background vote writes have finished.
func (c *Coordinator) Wait() {
	c.tally.Wait()
}

func (c *Coordinator) announceParticipants(ctx context.Context) {
	c.metrics.Participants.Set(float64(c.registry.Len()))
	c.broadcast(ctx, protocol.EventParticipantsUpdate, c.registry.Names())
}

func (c *Coordinator) broadcast(ctx context.Context, event string, payload any) {
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to encode broadcast", "event", event, "error", err)
		return
	}
	c.fanout.Broadcast(frame)
}

func (c *Coordinator) send(ctx context.Context, connectionID, event string, payload any) {
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to encode frame", "event", event, "error", err)
		return
	}
	c.fanout.Send(connectionID, frame)
}
