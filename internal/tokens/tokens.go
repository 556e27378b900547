// Package tokens estimates prompt sizes with the cl100k_base encoding. The
// encoding is loaded on first use; when it cannot be loaded, counts fall
// back to a character heuristic.
package tokens

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const encodingName = "cl100k_base"

// Counter counts tokens. The zero value is ready to use.
type Counter struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
}

// New returns a Counter.
func New() *Counter {
	return &Counter{}
}

// Count returns the token count of text.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding(encodingName)
		if err != nil {
			slog.Debug("token encoding unavailable, using heuristic", "encoding", encodingName, "error", err)
			return
		}
		c.enc = enc
	})
	if c.enc == nil {
		return Estimate(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}

// Estimate is the heuristic: the larger of runes/4 and the word count, at
// least 1 for non-blank text.
func Estimate(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	estimate := len([]rune(trimmed)) / 4
	if words := len(strings.Fields(trimmed)); estimate < words {
		estimate = words
	}
	return max(estimate, 1)
}
