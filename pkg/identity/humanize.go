package identity

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	cyrillic   = regexp.MustCompile(`[а-яёА-ЯЁ]`)
	camelCase  = regexp.MustCompile(`([a-z])([A-Z])`)
	whitespace = regexp.MustCompile(`\s+`)
)

// Humanize turns a technical identifier into readable words, so
// "GravityAnomalyMap" becomes "Gravity Anomaly Map" while "gms_r" is
// rejected. Identifiers containing Cyrillic are returned
// unchanged. The result is rejected when it is three characters or
// shorter, or when it is just the identifier with underscores replaced.
func Humanize(name string) (string, bool) {
	if cyrillic.MatchString(name) {
		return name, true
	}

	s := strings.TrimSpace(strings.ReplaceAll(name, "_", " "))
	s = camelCase.ReplaceAllString(s, "$1 $2")
	s = strings.TrimSpace(whitespace.ReplaceAllString(s, " "))

	if utf8.RuneCountInString(s) <= 3 || s == strings.ReplaceAll(name, "_", " ") {
		return "", false
	}
	return s, true
}
