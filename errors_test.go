package cellmate

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErrorCategories(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name      string
		err       *Error
		transient bool
		permanent bool
		userInput bool
	}{
		{"transient", NewTransientError("overloaded", 503, cause), true, false, false},
		{"permanent", NewPermanentError("bad key", 401, cause), false, true, false},
		{"user input", NewUserInputError("bad request", 400, cause), false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("provider: %w", tt.err)
			assert.Equal(t, tt.transient, IsTransient(wrapped))
			assert.Equal(t, tt.permanent, IsPermanent(wrapped))
			assert.Equal(t, tt.userInput, IsUserInput(wrapped))
			assert.Equal(t, tt.transient, tt.err.Retryable())
			assert.True(t, errors.Is(wrapped, cause))
		})
	}
}

func TestErrorMetadata(t *testing.T) {
	err := NewTransientErrorWithRetry("rate limited", 429, 3*time.Second, nil)

	assert.Equal(t, "rate limited", err.Error())
	assert.Equal(t, 429, StatusCodeOf(err))
	assert.Equal(t, 3*time.Second, RetryAfterOf(err))
	assert.Equal(t, 0, StatusCodeOf(errors.New("plain")))
	assert.Equal(t, time.Duration(0), RetryAfterOf(errors.New("plain")))
}

func TestDescribe(t *testing.T) {
	t.Run("rate limit", func(t *testing.T) {
		err := NewTransientError("too many requests", 429, nil)
		assert.Equal(t, "rate limited: too many requests", Describe(err))

		withDelay := fmt.Errorf("anthropic: %w", NewTransientErrorWithRetry("too many requests", 429, 3*time.Second, nil))
		assert.Equal(t, "rate limited, retry in 3s: anthropic: too many requests", Describe(withDelay))
	})

	t.Run("authentication", func(t *testing.T) {
		err := NewPermanentError("invalid x-api-key", 401, nil)
		assert.Equal(t, "authentication failed: invalid x-api-key", Describe(err))
	})

	t.Run("uncategorized", func(t *testing.T) {
		assert.Equal(t, "socket closed", Describe(errors.New("socket closed")))
	})
}
