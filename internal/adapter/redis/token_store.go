package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pscheid92/classpoll/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const tokenKeyPrefix = "teacher_token:"

func tokenKey(token string) string {
	return tokenKeyPrefix + token
}

// TokenStore keeps teacher session tokens as expiring string keys.
type TokenStore struct {
	rdb *goredis.Client
}

func NewTokenStore(rdb *goredis.Client) *TokenStore {
	return &TokenStore{rdb: rdb}
}

func (s *TokenStore) Issue(ctx context.Context, username string, ttl time.Duration) (string, error) {
	token := uuid.NewString()

	stored, err := s.rdb.SetNX(ctx, tokenKey(token), username, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}
	if !stored {
		return "", fmt.Errorf("token collision for %s", username)
	}
	return token, nil
}

// Lookup returns the username a token was issued to.
func (s *TokenStore) Lookup(ctx context.Context, token string) (string, error) {
	username, err := s.rdb.Get(ctx, tokenKey(token)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", domain.ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up token: %w", err)
	}
	return username, nil
}

func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	if err := s.rdb.Del(ctx, tokenKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}
