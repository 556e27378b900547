package google

import (
	"errors"
	"fmt"

	"github.com/spetersoncode/cellmate/internal/provider/httperr"
	"google.golang.org/genai"
)

// BlockedError reports a prompt refused by safety filtering.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("request blocked: %s", e.Reason)
}

func wrapError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	return httperr.Categorize(err.Error(), apiErr.Code, 0, err)
}
