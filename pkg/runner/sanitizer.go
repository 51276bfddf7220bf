package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxIDSize is 256 bytes (conservative default).
	DefaultMaxIDSize = 256
	// EnvMaxIDSize is the environment variable to override the default.
	EnvMaxIDSize = "MICROCOSM_MAX_ID_SIZE"
)

var (
	ErrIDTooLarge  = errors.New("identifier exceeds maximum allowed size")
	ErrInvalidUTF8 = errors.New("identifier contains invalid UTF-8 sequences")
	ErrEmptyID     = errors.New("identifier is empty")
)

// SanitizeID cleans an externally supplied run identifier before it
// reaches file names, redis keys, lock keys, and log lines. It enforces a
// size limit, validates UTF-8, and strips control characters, whitespace,
// and separators that would change meaning downstream.
func SanitizeID(id string) (string, error) {
	// Reject oversize rather than truncate so two long IDs cannot
	// collide after cleaning.
	limit := maxIDSize()
	if len(id) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrIDTooLarge, len(id), limit)
	}
	if !utf8.ValidString(id) {
		return "", ErrInvalidUTF8
	}

	// Fast path: nothing to strip.
	clean := true
	for _, r := range id {
		if dropFromID(r) {
			clean = false
			break
		}
	}
	if !clean {
		var b strings.Builder
		b.Grow(len(id))
		for _, r := range id {
			if !dropFromID(r) {
				b.WriteRune(r)
			}
		}
		id = b.String()
	}
	if id == "" {
		return "", ErrEmptyID
	}
	return id, nil
}

// dropFromID reports runes that never belong in an identifier: control
// characters (ANSI escapes, NULL, BEL), whitespace, and the separators
// file paths and key namespaces are built from.
func dropFromID(r rune) bool {
	if unicode.IsControl(r) || unicode.IsSpace(r) {
		return true
	}
	switch r {
	case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
		return true
	}
	return false
}

func maxIDSize() int {
	if val := os.Getenv(EnvMaxIDSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxIDSize
}
