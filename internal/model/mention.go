package model

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsValidMention reports whether a mention has the shape of a linkable
// entity name: at least two characters and at least one letter. Mentions
// failing this check are shown without candidates.
func IsValidMention(ne string) bool {
	ne = strings.TrimSpace(ne)
	if utf8.RuneCountInString(ne) < 2 {
		return false
	}
	return strings.IndexFunc(ne, unicode.IsLetter) >= 0
}
