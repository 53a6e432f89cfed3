// Package slug derives stable, URL-safe post identifiers from a topic
// string and its creation date.
package slug

import (
	"strings"
	"time"
)

// maxTopicLen bounds the topic portion of an identifier. The date prefix
// is never truncated.
const maxTopicLen = 60

// Generate derives a post identifier of the form YYYY-MM-DD-<topic-slug>.
// The topic is lower-cased, characters outside [a-z0-9 -] are stripped,
// runs of whitespace and hyphens collapse to a single hyphen, and the
// result is truncated to a bounded length. Generation is deterministic
// for identical inputs; an empty or degenerate topic yields just the date.
//
// Two posts with the same topic on the same day produce the same
// identifier. That collision is deliberately not disambiguated here; the
// store rejects the duplicate and callers that want a second post pass a
// suffix through GenerateWithSuffix.
func Generate(topic string, date time.Time) string {
	day := date.Format("2006-01-02")
	s := sanitize(topic)
	if s == "" {
		return day
	}
	return day + "-" + s
}

// GenerateWithSuffix appends a sanitized disambiguation suffix to the
// identifier Generate would produce. An empty suffix is a no-op.
func GenerateWithSuffix(topic string, date time.Time, suffix string) string {
	base := Generate(topic, date)
	s := sanitize(suffix)
	if s == "" {
		return base
	}
	return base + "-" + s
}

// sanitize applies the slug transformation rules to a raw string.
func sanitize(raw string) string {
	raw = strings.ToLower(raw)

	var b strings.Builder
	b.Grow(len(raw))
	pendingSep := false
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == ' ', r == '\t', r == '\n', r == '-':
			pendingSep = true
		default:
			// Characters outside [a-z0-9 -] are dropped without
			// acting as separators.
		}
	}

	s := b.String()
	if len(s) > maxTopicLen {
		s = strings.TrimRight(s[:maxTopicLen], "-")
	}
	return s
}
