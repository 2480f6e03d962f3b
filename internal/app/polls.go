package app

import (
	"context"
	"strings"

	"github.com/pscheid92/classpoll/internal/domain"
	apperrors "github.com/pscheid92/classpoll/internal/platform/errors"
	"golang.org/x/sync/singleflight"
)

// PollQueries serves read-only poll history.
type PollQueries struct {
	store domain.PollStore
	group singleflight.Group
}

func NewPollQueries(store domain.PollStore) *PollQueries {
	return &PollQueries{store: store}
}

// ListPollsByTeacher returns the teacher's polls, newest first. Concurrent
// requests for the same teacher share one database round trip.
func (q *PollQueries) ListPollsByTeacher(ctx context.Context, teacherUsername string) ([]domain.Poll, error) {
	teacherUsername = strings.TrimSpace(teacherUsername)
	if teacherUsername == "" {
		return nil, apperrors.ValidationError("teacherUsername is required")
	}

	v, err, _ := q.group.Do(teacherUsername, func() (any, error) {
		return q.store.ListPollsByTeacher(ctx, teacherUsername)
	})
	if err != nil {
		return nil, apperrors.PersistenceError("failed to list polls", err).WithField("teacher_username", teacherUsername)
	}
	return v.([]domain.Poll), nil
}
