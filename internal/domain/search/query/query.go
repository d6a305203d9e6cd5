package query

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/prodsearch/internal/domain"
)

// Normalize trims the query and collapses internal whitespace runs to one space.
func Normalize(q string) string {
	return strings.Join(strings.Fields(q), " ")
}

// Parse normalizes q and rejects it when longer than maxLen runes.
// An empty result is valid: it selects browse mode.
func Parse(q string, maxLen int) (string, error) {
	if !utf8.ValidString(q) {
		return "", fmt.Errorf("%w: query is not valid UTF-8", domain.ErrInvalidQuery)
	}
	n := Normalize(q)
	if maxLen > 0 && utf8.RuneCountInString(n) > maxLen {
		return "", fmt.Errorf("%w: query exceeds %d characters", domain.ErrInvalidQuery, maxLen)
	}
	return n, nil
}
