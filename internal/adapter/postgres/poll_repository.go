package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/classpoll/internal/adapter/metrics"
	"github.com/pscheid92/classpoll/internal/domain"
	"github.com/pscheid92/classpoll/internal/platform/retry"
)

var ErrVoteStoreUnavailable = errors.New("vote store unavailable")

type PollRepo struct {
	pool    *pgxpool.Pool
	breaker circuitbreaker.CircuitBreaker[any]
	retry   retry.Policy
}

// NewPollRepo builds the repository. Vote writes are retried on transient
// errors and guarded by a circuit breaker whose state is exported on m.
func NewPollRepo(pool *pgxpool.Pool, clock clockwork.Clock, m *metrics.PersistenceMetrics) *PollRepo {
	breaker := circuitbreaker.NewBuilder[any]().
		WithFailureRateThreshold(0.6, 5, 10*time.Second).
		WithDelay(15 * time.Second).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			slog.Warn("Circuit breaker state changed",
				"component", "vote_store",
				"from", e.OldState.String(),
				"to", e.NewState.String(),
			)
			m.CircuitBreakerState.Set(stateToFloat(e.NewState))
		}).
		Build()

	return &PollRepo{
		pool:    pool,
		breaker: breaker,
		retry: retry.Policy{
			MaxAttempts:    3,
			InitialBackoff: 50 * time.Millisecond,
			MaxBackoff:     500 * time.Millisecond,
			Clock:          clock,
			OnRetry: func(attempt int, err error, backoff time.Duration) {
				slog.Debug("Retrying vote write", "attempt", attempt, "backoff", backoff, "error", err)
			},
		},
	}
}

func stateToFloat(state circuitbreaker.State) float64 {
	switch state {
	case circuitbreaker.ClosedState:
		return 0
	case circuitbreaker.HalfOpenState:
		return 1
	case circuitbreaker.OpenState:
		return 2
	default:
		return -1
	}
}

func (r *PollRepo) CreatePoll(ctx context.Context, draft domain.PollDraft) (*domain.Poll, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var id uuid.UUID
	var createdAt time.Time
	err = tx.QueryRow(ctx, `
		INSERT INTO polls (question, timer_seconds, teacher_username)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		draft.Question, draft.TimerSeconds, draft.TeacherUsername,
	).Scan(&id, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert poll: %w", err)
	}

	batch := &pgx.Batch{}
	for i, o := range draft.Options {
		batch.Queue(`
			INSERT INTO poll_options (poll_id, position, option_id, text, correct)
			VALUES ($1, $2, $3, $4, $5)`,
			id, i, string(o.ID), o.Text, o.Correct)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("failed to insert poll options: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit poll: %w", err)
	}

	options := make([]domain.Option, len(draft.Options))
	copy(options, draft.Options)

	return &domain.Poll{
		ID:              id.String(),
		Question:        draft.Question,
		Options:         options,
		TimerSeconds:    draft.TimerSeconds,
		TeacherUsername: draft.TeacherUsername,
		CreatedAt:       createdAt,
	}, nil
}

func (r *PollRepo) RecordVote(ctx context.Context, pollID string, optionID domain.OptionID) error {
	id, err := uuid.Parse(pollID)
	if err != nil {
		return fmt.Errorf("invalid poll id %q: %w", pollID, err)
	}

	if !r.breaker.TryAcquirePermit() {
		return fmt.Errorf("%w: %w", ErrVoteStoreUnavailable, circuitbreaker.ErrOpen)
	}

	err = retry.DoVoid(ctx, r.retry, classifyPgError, func(ctx context.Context) error {
		_, err := r.pool.Exec(ctx, `INSERT INTO votes (poll_id, option_id) VALUES ($1, $2)`, id, string(optionID))
		return err
	})

	if err != nil && !isDataError(err) {
		r.breaker.RecordError(err)
		return fmt.Errorf("failed to record vote: %w", err)
	}
	r.breaker.RecordSuccess()
	if err != nil {
		return fmt.Errorf("failed to record vote: %w", err)
	}
	return nil
}

func (r *PollRepo) ListPollsByTeacher(ctx context.Context, teacherUsername string) ([]domain.Poll, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.question, p.timer_seconds, p.teacher_username, p.created_at,
		       o.option_id, o.text, o.correct
		FROM polls p
		JOIN poll_options o ON o.poll_id = p.id
		WHERE p.teacher_username = $1
		ORDER BY p.created_at DESC, p.id, o.position`, teacherUsername)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}
	defer rows.Close()

	polls := []domain.Poll{}
	for rows.Next() {
		var (
			id       uuid.UUID
			poll     domain.Poll
			option   domain.Option
			optionID string
		)
		if err := rows.Scan(&id, &poll.Question, &poll.TimerSeconds, &poll.TeacherUsername, &poll.CreatedAt,
			&optionID, &option.Text, &option.Correct); err != nil {
			return nil, fmt.Errorf("failed to scan poll row: %w", err)
		}
		option.ID = domain.OptionID(optionID)

		if n := len(polls); n == 0 || polls[n-1].ID != id.String() {
			poll.ID = id.String()
			polls = append(polls, poll)
		}
		last := &polls[len(polls)-1]
		last.Options = append(last.Options, option)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate polls: %w", err)
	}
	return polls, nil
}

// classifyPgError stops on errors a retry cannot fix: bad data, constraint
// violations and an expired context.
func classifyPgError(err error) retry.Action {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retry.Stop
	}
	if isDataError(err) {
		return retry.Stop
	}
	return retry.Retry
}

// isDataError reports SQLSTATE classes 22 (data exception) and 23
// (integrity constraint violation).
func isDataError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || len(pgErr.Code) < 2 {
		return false
	}
	switch pgErr.Code[:2] {
	case "22", "23":
		return true
	}
	return false
}
