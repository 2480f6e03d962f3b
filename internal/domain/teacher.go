package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Teacher struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

type TeacherRepository interface {
	GetByUsername(ctx context.Context, username string) (*Teacher, error)
	Create(ctx context.Context, username, passwordHash string) (*Teacher, error)
}

// TokenStore holds issued teacher session tokens.
type TokenStore interface {
	Issue(ctx context.Context, username string, ttl time.Duration) (string, error)
	Lookup(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
}
