package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/classpoll/internal/domain"
	apperrors "github.com/pscheid92/classpoll/internal/platform/errors"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// Session is the result of a successful teacher login.
type Session struct {
	Username  string    `json:"username"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type AuthService struct {
	teachers domain.TeacherRepository
	tokens   domain.TokenStore
	clock    clockwork.Clock
	tokenTTL time.Duration
	cost     int
}

func NewAuthService(teachers domain.TeacherRepository, tokens domain.TokenStore, clock clockwork.Clock, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		teachers: teachers,
		tokens:   tokens,
		clock:    clock,
		tokenTTL: tokenTTL,
		cost:     bcrypt.DefaultCost,
	}
}

// TeacherLogin checks the password against the stored bcrypt hash and issues
// a session token. Unknown usernames and wrong passwords are indistinguishable.
func (s *AuthService) TeacherLogin(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperrors.ValidationError("username and password are required")
	}

	teacher, err := s.teachers.GetByUsername(ctx, username)
	if errors.Is(err, domain.ErrTeacherNotFound) {
		slog.InfoContext(ctx, "Teacher login rejected", "username", username, "reason", "unknown")
		return nil, invalidCredentials()
	}
	if err != nil {
		return nil, apperrors.PersistenceError("failed to load teacher", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(teacher.PasswordHash), []byte(password)); err != nil {
		slog.InfoContext(ctx, "Teacher login rejected", "username", username, "reason", "password")
		return nil, invalidCredentials()
	}

	token, err := s.tokens.Issue(ctx, teacher.Username, s.tokenTTL)
	if err != nil {
		return nil, apperrors.ExternalError("failed to issue session token", err)
	}

	slog.InfoContext(ctx, "Teacher logged in", "username", teacher.Username)
	return &Session{
		Username:  teacher.Username,
		Token:     token,
		ExpiresAt: s.clock.Now().Add(s.tokenTTL).UTC(),
	}, nil
}

func invalidCredentials() *apperrors.Error {
	err := apperrors.UnauthorizedError("invalid username or password")
	err.Cause = domain.ErrInvalidCredentials
	return err
}

// Authenticate resolves a session token to the teacher it was issued to.
func (s *AuthService) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", apperrors.UnauthorizedError("missing session token")
	}

	username, err := s.tokens.Lookup(ctx, token)
	if errors.Is(err, domain.ErrTokenNotFound) {
		return "", apperrors.UnauthorizedError("invalid or expired session token")
	}
	if err != nil {
		return "", apperrors.ExternalError("failed to look up session token", err)
	}
	return username, nil
}

// TeacherLogout revokes a valid token.
func (s *AuthService) TeacherLogout(ctx context.Context, token string) error {
	username, err := s.Authenticate(ctx, token)
	if err != nil {
		return err
	}

	if err := s.tokens.Revoke(ctx, token); err != nil {
		return apperrors.ExternalError("failed to revoke session token", err)
	}

	slog.InfoContext(ctx, "Teacher logged out", "username", username)
	return nil
}

// CreateTeacher hashes the password and stores a new teacher account.
func (s *AuthService) CreateTeacher(ctx context.Context, username, password string) (*domain.Teacher, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperrors.ValidationError("username is required")
	}
	if len(password) < minPasswordLength {
		return nil, apperrors.ValidationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, apperrors.InternalError("failed to hash password", err)
	}

	teacher, err := s.teachers.Create(ctx, username, string(hash))
	if errors.Is(err, domain.ErrTeacherExists) {
		return nil, apperrors.ConflictError("teacher already exists").WithField("username", username)
	}
	if err != nil {
		return nil, apperrors.PersistenceError("failed to create teacher", err)
	}
	return teacher, nil
}
