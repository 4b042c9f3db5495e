package trigger

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxBodySize is the longest body accepted, roughly a six-part concatenated SMS.
const DefaultMaxBodySize = 1024

var (
	ErrBodyTooLarge = errors.New("body exceeds maximum allowed size")
	ErrInvalidUTF8  = errors.New("body contains invalid UTF-8 sequences")
)

// Sanitize enforces the size limit, validates UTF-8 and strips control characters
// other than whitespace. Oversized bodies are rejected rather than truncated.
func Sanitize(body string, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultMaxBodySize
	}
	if len(body) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrBodyTooLarge, len(body), limit)
	}
	if !utf8.ValidString(body) {
		return "", ErrInvalidUTF8
	}

	if strings.IndexFunc(body, isUnsafeControl) < 0 {
		return body, nil
	}
	var b strings.Builder
	b.Grow(len(body))
	for _, r := range body {
		if !isUnsafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isUnsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}
