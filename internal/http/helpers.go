package http

import (
	"strings"
	"time"
)

// sanitizeInput drops control characters other than tab and newlines and
// trims surrounding whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func sanitizeAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = sanitizeInput(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// dateOr parses an optional YYYY-MM-DD field, falling back to def.
func dateOr(s string, def time.Time) (time.Time, error) {
	t, err := parseDate(s, def.Location())
	if err != nil || t.IsZero() {
		return def, err
	}
	return t, nil
}
