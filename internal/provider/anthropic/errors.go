package anthropic

import (
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/spetersoncode/cellmate/internal/provider/httperr"
)

// wrapError categorizes an Anthropic API error by status code. Other
// errors, usually network failures, pass through unchanged.
func wrapError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	return httperr.Categorize(err.Error(), apiErr.StatusCode, httperr.RetryAfter(apiErr.Response), err)
}
