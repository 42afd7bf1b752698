// Package tokens measures and trims prompt input against a token budget.
package tokens

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// bytesPerToken approximates token size when no encoding is available.
const bytesPerToken = 4

// Counter counts tokens with the encoding of a model. A nil *Counter is
// valid and falls back to a byte estimate.
type Counter struct {
	enc *tiktoken.Tiktoken
}

// NewCounter selects the tokenizer for model, using cl100k_base for models
// tiktoken does not know.
func NewCounter(model string) (*Counter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	return &Counter{enc: enc}, nil
}

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	if c == nil {
		return (len(text) + bytesPerToken - 1) / bytesPerToken
	}
	return len(c.enc.Encode(text, nil, nil))
}

// Truncate keeps at most budget tokens of text and reports whether anything
// was cut. A budget <= 0 means unlimited.
func (c *Counter) Truncate(text string, budget int) (string, bool) {
	if budget <= 0 {
		return text, false
	}
	if c == nil {
		return truncateBytes(text, budget*bytesPerToken)
	}
	ids := c.enc.Encode(text, nil, nil)
	if len(ids) <= budget {
		return text, false
	}
	// a budget boundary can fall inside a multi-byte character
	return strings.ToValidUTF8(c.enc.Decode(ids[:budget]), ""), true
}

func truncateBytes(text string, limit int) (string, bool) {
	if len(text) <= limit {
		return text, false
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut], true
}
