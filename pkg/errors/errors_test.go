package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusinessError_Is(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		target   error
		wantCode string
	}{
		{"exceeds limit", WrapExceedsLimit(1, 4), ErrExceedsLimit, ErrCodeExceedsLimit},
		{"already borrowed", WrapAlreadyBorrowed([]int64{1}), ErrAlreadyBorrowed, ErrCodeAlreadyBorrowed},
		{"transaction failure", WrapTransactionFailure(errors.New("boom")), ErrTransactionFailure, ErrCodeTransactionFailure},
		{"reference not found", WrapReferenceNotFound(errors.New("fk")), ErrReferenceNotFound, ErrCodeReferenceNotFound},
		{"invalid request", WrapInvalidRequest("bad"), ErrInvalidRequest, ErrCodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.True(t, errors.Is(wrapped, tt.target))
			assert.Equal(t, tt.wantCode, CodeOf(wrapped))
		})
	}
}

func TestBusinessError_Error(t *testing.T) {
	err := NewBusinessError("CODE", "message", nil)
	assert.Equal(t, "CODE: message", err.Error())

	err = WrapDatabaseError(errors.New("conn refused"))
	assert.Contains(t, err.Error(), "DATABASE_ERROR")
	assert.Contains(t, err.Error(), "conn refused")
}

func TestWrapTransactionFailure_KeepsCause(t *testing.T) {
	cause := errors.New("deadlock detected")
	err := WrapTransactionFailure(cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "", CodeOf(cause))
}
