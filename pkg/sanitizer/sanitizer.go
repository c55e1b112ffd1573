// Package sanitizer cleans user supplied text before it reaches a prompt or a store.
package sanitizer

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/storyloom/pkg/domain"
)

var (
	// DefaultMaxInputSize is 16KB, enough for a typed requirement.
	DefaultMaxInputSize = 16 * 1024
	// DefaultMaxDocumentSize is 512KB, applied to text extracted from uploaded files.
	DefaultMaxDocumentSize = 512 * 1024

	// EnvMaxInputSize is the environment variable to override DefaultMaxInputSize.
	EnvMaxInputSize = "STORYLOOM_MAX_INPUT_SIZE"
	// EnvMaxDocumentSize is the environment variable to override DefaultMaxDocumentSize.
	EnvMaxDocumentSize = "STORYLOOM_MAX_DOCUMENT_SIZE"
)

var (
	ErrInputTooLarge = domain.ErrInputTooLarge
	ErrInvalidUTF8   = domain.ErrInvalidUTF8
)

// Input cleans typed user input (requirements, answers, questions) by enforcing
// size limits, validating UTF-8, and stripping dangerous control characters.
func Input(input string) (string, error) {
	return sanitize(input, maxSize(EnvMaxInputSize, DefaultMaxInputSize))
}

// Document applies the same rules as Input with the larger document limit.
func Document(input string) (string, error) {
	return sanitize(input, maxSize(EnvMaxDocumentSize, DefaultMaxDocumentSize))
}

func sanitize(input string, limit int) (string, error) {
	// 1. Enforce Size Limit
	if len(input) > limit {
		// Rejected rather than truncated: a cut requirement would yield a different story.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}

	// 2. Validate UTF-8
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	// 3. Strip Control Characters
	// Newline, tab and carriage return survive; ESC, NULL, BEL and friends do not.
	// This prevents log poisoning and terminal corruption.
	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

func maxSize(env string, def int) int {
	if val := os.Getenv(env); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return def
}
