package openai

import (
	"errors"

	"github.com/openai/openai-go"
	"github.com/spetersoncode/cellmate/internal/provider/httperr"
)

// wrapError categorizes an OpenAI API error by status code and Retry-After.
func wrapError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	return httperr.Categorize(err.Error(), apiErr.StatusCode, httperr.RetryAfter(apiErr.Response), err)
}
