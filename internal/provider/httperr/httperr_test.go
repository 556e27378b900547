package httperr

import (
	"errors"
	"net/http"
	"testing"
	"time"

	ai "github.com/spetersoncode/cellmate"
	"github.com/stretchr/testify/assert"
)

func TestCategory(t *testing.T) {
	tests := []struct {
		code int
		want ai.ErrorCategory
	}{
		{429, ai.ErrorTransient},
		{503, ai.ErrorTransient},
		{529, ai.ErrorTransient},
		{401, ai.ErrorPermanent},
		{403, ai.ErrorPermanent},
		{400, ai.ErrorUserInput},
		{404, ai.ErrorUserInput},
		{418, ai.ErrorPermanent},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Category(tt.code), "status %d", tt.code)
	}
}

func TestCategorize(t *testing.T) {
	cause := errors.New("boom")

	err := Categorize("rate limited", 429, 0, cause)
	assert.True(t, ai.IsTransient(err))
	assert.Equal(t, 429, ai.StatusCodeOf(err))
	assert.ErrorIs(t, err, cause)

	err = Categorize("bad key", 401, 0, cause)
	assert.True(t, ai.IsPermanent(err))

	err = Categorize("slow down", 400, 3*time.Second, cause)
	assert.True(t, ai.IsTransient(err))
	assert.Equal(t, 3*time.Second, ai.RetryAfterOf(err))
}

func TestRetryAfter(t *testing.T) {
	assert.Zero(t, RetryAfter(nil))

	resp := &http.Response{Header: http.Header{}}
	assert.Zero(t, RetryAfter(resp))

	resp.Header.Set("Retry-After", "12")
	assert.Equal(t, 12*time.Second, RetryAfter(resp))

	resp.Header.Set("Retry-After", "soon")
	assert.Zero(t, RetryAfter(resp))

	resp.Header.Set("Retry-After", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
	assert.Greater(t, RetryAfter(resp), 50*time.Minute)
}
