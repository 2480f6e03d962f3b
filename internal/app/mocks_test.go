package app

import (
	"context"
	"fmt"
	"time"

	"github.com/pscheid92/classpoll/internal/domain"
)

type mockTeacherRepo struct {
	getByUsernameFn func(ctx context.Context, username string) (*domain.Teacher, error)
	createFn        func(ctx context.Context, username, passwordHash string) (*domain.Teacher, error)
}

func (m *mockTeacherRepo) GetByUsername(ctx context.Context, username string) (*domain.Teacher, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, domain.ErrTeacherNotFound
}

func (m *mockTeacherRepo) Create(ctx context.Context, username, passwordHash string) (*domain.Teacher, error) {
	if m.createFn != nil {
		return m.createFn(ctx, username, passwordHash)
	}
	return nil, fmt.Errorf("not implemented")
}

type mockTokenStore struct {
	issueFn  func(ctx context.Context, username string, ttl time.Duration) (string, error)
	lookupFn func(ctx context.Context, token string) (string, error)
	revokeFn func(ctx context.Context, token string) error
}

func (m *mockTokenStore) Issue(ctx context.Context, username string, ttl time.Duration) (string, error) {
	if m.issueFn != nil {
		return m.issueFn(ctx, username, ttl)
	}
	return "token-" + username, nil
}

func (m *mockTokenStore) Lookup(ctx context.Context, token string) (string, error) {
	if m.lookupFn != nil {
		return m.lookupFn(ctx, token)
	}
	return "", domain.ErrTokenNotFound
}

func (m *mockTokenStore) Revoke(ctx context.Context, token string) error {
	if m.revokeFn != nil {
		return m.revokeFn(ctx, token)
	}
	return nil
}

type mockPollStore struct {
	listPollsByTeacherFn func(ctx context.Context, teacherUsername string) ([]domain.Poll, error)
}

func (m *mockPollStore) CreatePoll(ctx context.Context, draft domain.PollDraft) (*domain.Poll, error) {
	return nil, fmt.Errorf("not implemented")
}

func (m *mockPollStore) RecordVote(ctx context.Context, pollID string, optionID domain.OptionID) error {
	return fmt.Errorf("not implemented")
}

func (m *mockPollStore) ListPollsByTeacher(ctx context.Context, teacherUsername string) ([]domain.Poll, error) {
	if m.listPollsByTeacherFn != nil {
		return m.listPollsByTeacherFn(ctx, teacherUsername)
	}
	return []domain.Poll{}, nil
}
