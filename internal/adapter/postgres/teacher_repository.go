package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/classpoll/internal/domain"
)

const uniqueViolation = "23505"

type TeacherRepo struct {
	pool *pgxpool.Pool
}

func NewTeacherRepo(pool *pgxpool.Pool) *TeacherRepo {
	return &TeacherRepo{pool: pool}
}

func (r *TeacherRepo) GetByUsername(ctx context.Context, username string) (*domain.Teacher, error) {
	var t domain.Teacher
	err := r.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, created_at
		FROM teachers
		WHERE username = $1`, username,
	).Scan(&t.ID, &t.Username, &t.PasswordHash, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTeacherNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get teacher by username: %w", err)
	}
	return &t, nil
}

func (r *TeacherRepo) Create(ctx context.Context, username, passwordHash string) (*domain.Teacher, error) {
	var t domain.Teacher
	err := r.pool.QueryRow(ctx, `
		INSERT INTO teachers (username, password_hash)
		VALUES ($1, $2)
		RETURNING id, username, password_hash, created_at`, username, passwordHash,
	).Scan(&t.ID, &t.Username, &t.PasswordHash, &t.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return nil, domain.ErrTeacherExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create teacher: %w", err)
	}
	return &t, nil
}
