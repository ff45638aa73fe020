package resolve

import (
	"strings"

	"github.com/mhartwig22/campuskg/api/schemas"
)

// Slug converts a normalized name into its IRI-safe local form: lowercase
// ASCII letters and digits, words joined by single hyphens. Everything else
// is dropped.
func Slug(normalized string) string {
	var b strings.Builder
	b.Grow(len(normalized))
	lastHyphen := true // suppress a leading hyphen
	for _, r := range normalized {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
			lastHyphen = false
		case r == ' ' || r == '-' || r == '_':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// MintID produces the stable entity identifier for a (type, normalized name)
// pair. The identifier is a pure function of its inputs so repeated runs
// over the same corpus mint the same IRIs.
func MintID(t schemas.EntityType, normalizedName string) string {
	return Slug(string(t)) + "/" + Slug(normalizedName)
}
