package textutil

import (
	"strings"
	"unicode"
)

// SafeFileName makes a clip name usable on any filesystem podium writes to.
// Path separators, colons and asterisks become dashes; quotes, angle brackets,
// pipes, question marks and control characters are dropped.
func SafeFileName(name string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		switch {
		case strings.ContainsRune(`/\:*`, r):
			return '-'
		case strings.ContainsRune(`?"<>|`, r), unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.TrimSpace(name)))
}

// Slug lowercases value and keeps ASCII letters, digits, dashes and
// underscores; every other rune becomes an underscore. Leading and trailing
// separators are trimmed, and an empty result is "unknown".
func Slug(value string) string {
	slug := strings.Map(func(r rune) rune {
		r = unicode.ToLower(r)
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, strings.TrimSpace(value))
	if slug = strings.Trim(slug, "_-"); slug == "" {
		return "unknown"
	}
	return slug
}
