package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pscheid92/classpoll/internal/platform/retry"
	"github.com/stretchr/testify/assert"
)

func TestClassifyPgError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want retry.Action
	}{
		{"fk violation", &pgconn.PgError{Code: "23503"}, retry.Stop},
		{"invalid text", &pgconn.PgError{Code: "22P02"}, retry.Stop},
		{"wrapped constraint", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505"}), retry.Stop},
		{"deadline", context.DeadlineExceeded, retry.Stop},
		{"cancelled", context.Canceled, retry.Stop},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, retry.Retry},
		{"connection reset", errors.New("connection reset by peer"), retry.Retry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyPgError(tt.err))
		})
	}
}

func TestExtractQueryName(t *testing.T) {
	assert.Equal(t, "INSERT", extractQueryName("\n\t\tinsert into votes values ($1)"))
	assert.Equal(t, "SELECT", extractQueryName("SELECT 1"))
	assert.Equal(t, "unknown", extractQueryName("   "))
}
