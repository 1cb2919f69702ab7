package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorString(t *testing.T) {
	withCause := &AppError{Code: "INTERNAL_ERROR", Message: "something broke", Err: fmt.Errorf("db connection lost")}
	assert.Equal(t, "INTERNAL_ERROR: something broke: db connection lost", withCause.Error())

	plain := &AppError{Code: "NOT_FOUND", Message: "account not found"}
	assert.Equal(t, "NOT_FOUND: account not found", plain.Error())
}

func TestConstructors_WrapSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		sentinel error
		status   int
		code     string
	}{
		{"not found", NotFound("account", "abc"), ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"already exists", AlreadyExists("account", "email", "a@b.c"), ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS"},
		{"invalid input", InvalidInput("bad"), ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
		{"unauthorized", Unauthorized("nope"), ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", Forbidden("nope"), ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"conflict", Conflict("busy"), ErrConflict, http.StatusConflict, "CONFLICT"},
		{"unavailable", Unavailable("down"), ErrServiceUnavail, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotNil(t, tt.err)
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestAlreadyExists_Message(t *testing.T) {
	err := AlreadyExists("account", "email", "jane@example.com")
	assert.Equal(t, `account with email "jane@example.com" already exists`, err.Message)
}

func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("password column missing")
	err := Internal(cause)

	assert.Equal(t, "an internal error occurred", err.Message)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrInternal)
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))
	assert.Contains(t, err.Error(), "password column missing")
}

func TestInternal_NilCause(t *testing.T) {
	err := Internal(nil)

	assert.ErrorIs(t, err, ErrInternal)
	assert.Equal(t, "INTERNAL_ERROR: an internal error occurred: internal error", err.Error())
}

func TestNew_CustomCode(t *testing.T) {
	err := New("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, ErrUnauthorized)
	wrapped := fmt.Errorf("login: %w", err)

	var appErr *AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, "INVALID_CREDENTIALS", appErr.Code)
	assert.ErrorIs(t, wrapped, ErrUnauthorized)
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(wrapped))
}

func TestHTTPStatus_PlainSentinels(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(fmt.Errorf("get: %w", ErrNotFound)))
	assert.Equal(t, http.StatusConflict, HTTPStatus(fmt.Errorf("insert: %w", ErrAlreadyExists)))
	assert.Equal(t, http.StatusConflict, HTTPStatus(ErrConflict))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrInvalidInput))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(ErrUnauthorized))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(ErrForbidden))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(ErrServiceUnavail))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}
