package classroom

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/classpoll/internal/adapter/metrics"
	"github.com/pscheid92/classpoll/internal/domain"
	"github.com/pscheid92/classpoll/internal/protocol"
	"github.com/stretchr/testify/require"
)

type mockPollStore struct {
	createPollFn         func(ctx context.Context, draft domain.PollDraft) (*domain.Poll, error)
	recordVoteFn         func(ctx context.Context, pollID string, optionID domain.OptionID) error
	listPollsByTeacherFn func(ctx context.Context, teacherUsername string) ([]domain.Poll, error)

	created atomic.Int64
}

func (m *mockPollStore) CreatePoll(ctx context.Context, draft domain.PollDraft) (*domain.Poll, error) {
	if m.createPollFn != nil {
		return m.createPollFn(ctx, draft)
	}
	n := m.created.Add(1)
	return &domain.Poll{
		ID:              fmt.Sprintf("poll-%d", n),
		Question:        draft.Question,
		Options:         draft.Options,
		TimerSeconds:    draft.TimerSeconds,
		TeacherUsername: draft.TeacherUsername,
	}, nil
}

func (m *mockPollStore) RecordVote(ctx context.Context, pollID string, optionID domain.OptionID) error {
	if m.recordVoteFn != nil {
		return m.recordVoteFn(ctx, pollID, optionID)
	}
	return nil
}

func (m *mockPollStore) ListPollsByTeacher(ctx context.Context, teacherUsername string) ([]domain.Poll, error) {
	if m.listPollsByTeacherFn != nil {
		return m.listPollsByTeacherFn(ctx, teacherUsername)
	}
	return nil, nil
}

// frame is one call recorded by recordingFanout. Kind is "broadcast",
// "send" or "disconnect"; Target is empty for broadcasts.
type frame struct {
	Kind   string
	Target string
	Event  string
	Data   json.RawMessage
}

type recordingFanout struct {
	mu     sync.Mutex
	frames []frame
}

func (f *recordingFanout) Broadcast(data []byte) { f.record("broadcast", "", data) }

func (f *recordingFanout) Send(connectionID string, data []byte) {
	f.record("send", connectionID, data)
}

func (f *recordingFanout) Disconnect(connectionID string, notice []byte) {
	f.record("disconnect", connectionID, notice)
}

func (f *recordingFanout) record(kind, target string, data []byte) {
	env, err := protocol.Decode(data)
	if err != nil {
		panic(err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, frame{Kind: kind, Target: target, Event: env.Event, Data: env.Data})
}

func (f *recordingFanout) all() []frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]frame(nil), f.frames...)
}

func (f *recordingFanout) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = nil
}

// last returns the most recent frame with the given event.
func (f *recordingFanout) last(t *testing.T, event string) frame {
	t.Helper()
	frames := f.all()
	for i := len(frames) - 1; i >= 0; i-- {
		if frames[i].Event == event {
			return frames[i]
		}
	}
	t.Fatalf("no %s frame recorded", event)
	return frame{}
}

func decode[T any](t *testing.T, data json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v))
	return v
}

func newTestPersistenceMetrics() *metrics.PersistenceMetrics {
	return metrics.NewPersistenceMetrics(prometheus.NewRegistry())
}

func newTestClassroomMetrics() *metrics.ClassroomMetrics {
	return metrics.NewClassroomMetrics(prometheus.NewRegistry())
}

func capitalDraft() domain.PollDraft {
	return domain.PollDraft{
		Question: "Capital of France?",
		Options: []domain.Option{
			{ID: "1", Text: "Paris", Correct: true},
			{ID: "2", Text: "Berlin"},
		},
		TimerSeconds:    30,
		TeacherUsername: "teacher",
	}
}
