package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name       string
		err        *Error
		wantType   ErrorType
		wantStatus int
		wantCause  error
	}{
		{"validation", ValidationError("question is required"), TypeValidation, http.StatusBadRequest, nil},
		{"unauthorized", UnauthorizedError("invalid credentials"), TypeUnauthorized, http.StatusUnauthorized, nil},
		{"not found", NotFoundError("teacher not found"), TypeNotFound, http.StatusNotFound, nil},
		{"conflict", ConflictError("teacher exists"), TypeConflict, http.StatusConflict, nil},
		{"persistence", PersistenceError("failed to create poll", cause), TypePersistence, http.StatusServiceUnavailable, cause},
		{"external", ExternalError("token store unavailable", cause), TypeExternal, http.StatusBadGateway, cause},
		{"internal", InternalError("boom", cause), TypeInternal, http.StatusInternalServerError, cause},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantStatus, tt.err.HTTPStatus())
			assert.Equal(t, tt.wantCause, tt.err.Cause)
			assert.NotNil(t, tt.err.Context)
			assert.Contains(t, tt.err.Error(), string(tt.wantType))
		})
	}
}

func TestError_MessageIncludesCause(t *testing.T) {
	err := PersistenceError("failed to create poll", errors.New("timeout"))
	assert.Equal(t, "persistence: failed to create poll: timeout", err.Error())
}

func TestError_UnwrapSupportsIs(t *testing.T) {
	sentinel := errors.New("sentinel")
	err := fmt.Errorf("outer: %w", PersistenceError("write failed", sentinel))

	assert.ErrorIs(t, err, sentinel)
	assert.True(t, Is(err, TypePersistence))
	assert.False(t, Is(err, TypeValidation))
}

func TestWithField(t *testing.T) {
	err := ValidationError("bad option").WithField("option_id", "7")
	assert.Equal(t, "7", err.Context["option_id"])

	bare := &Error{Type: TypeValidation}
	bare.WithField("k", "v")
	assert.Equal(t, "v", bare.Context["k"])
}

func TestToResponse_HidesCause(t *testing.T) {
	resp := PersistenceError("failed to create poll", errors.New("pq: secret detail")).ToResponse()
	assert.Equal(t, "failed to create poll", resp.Error)
	assert.Equal(t, TypePersistence, resp.Type)
}

func TestAsStructuredError(t *testing.T) {
	assert.Nil(t, AsStructuredError(nil))

	original := ValidationError("bad")
	assert.Same(t, original, AsStructuredError(fmt.Errorf("wrapped: %w", original)))

	plain := errors.New("plain")
	converted := AsStructuredError(plain)
	require.NotNil(t, converted)
	assert.Equal(t, TypeInternal, converted.Type)
	assert.Equal(t, plain, converted.Cause)
}
