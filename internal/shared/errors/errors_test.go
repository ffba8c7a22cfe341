package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewAppError("INTERNAL_ERROR", "balance lookup failed", http.StatusInternalServerError, cause)

	assert.Equal(t, "balance lookup failed: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)

	bad := BadRequest("bad input")
	assert.Equal(t, "bad input: bad request", bad.Error())
	assert.Equal(t, "bad input", bad.Message)
	assert.ErrorIs(t, bad, ErrBadRequest)

	assert.Equal(t, "plain", NewAppError("X", "plain", http.StatusTeapot, nil).Error())
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
		kind   error
	}{
		{"unauthorized", Unauthorized(""), "UNAUTHORIZED", http.StatusUnauthorized, ErrUnauthorized},
		{"validation", ValidationError("amount must not be zero"), "VALIDATION_ERROR", http.StatusUnprocessableEntity, ErrBadRequest},
		{"conflict", Conflict("key taken"), "CONFLICT", http.StatusConflict, ErrConflict},
		{"insufficient", InsufficientCredits(""), "INSUFFICIENT_CREDITS", http.StatusPaymentRequired, ErrInsufficientCredits},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.StatusCode)
			assert.ErrorIs(t, tt.err, tt.kind)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestGetStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", ValidationError("amount must not be zero"), http.StatusUnprocessableEntity},
		{"wrapped app error", fmt.Errorf("consume: %w", InsufficientCredits("")), http.StatusPaymentRequired},
		{"sentinel conflict", fmt.Errorf("entry: %w", ErrConflict), http.StatusConflict},
		{"sentinel bad request", ErrBadRequest, http.StatusBadRequest},
		{"unauthorized", Unauthorized(""), http.StatusUnauthorized},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetStatusCode(tt.err))
		})
	}
}
