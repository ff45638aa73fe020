// Package resolve turns raw extraction records into canonical entities with
// stable identifiers. Identity is purely name-based: two records denote the
// same entity when their types agree and their normalized names match.
package resolve

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// academicTitles are stripped from person names before identity matching.
// Ordering matters: longer, more specific prefixes come first so that
// "Jun.-Prof. Dr." is not half-consumed by "Prof.".
var academicTitles = []string{
	"Jun.-Prof. Dr.",
	"Jun.-Prof.",
	"Univ.-Prof. Dr.",
	"Univ.-Prof.",
	"Prof. Dr.-Ing.",
	"Prof. Dr. Dr.",
	"Prof. Dr.",
	"Prof.",
	"PD Dr.",
	"Dr.-Ing.",
	"Dr. habil.",
	"Dr. Dr.",
	"Dr.",
	"Dipl.-Ing.",
	"M.Sc.",
	"M.A.",
	"B.Sc.",
	"B.A.",
}

// StripTitles removes leading academic titles from a person's display name
// and returns the stripped titles alongside the bare name. Titles may stack
// ("Prof. Dr. Jane Doe" yields "Prof. Dr." and "Jane Doe").
func StripTitles(name string) (titles, bare string) {
	bare = strings.TrimSpace(name)
	var found []string
	for {
		matched := false
		for _, t := range academicTitles {
			if strings.HasPrefix(bare, t) {
				rest := bare[len(t):]
				// Require a word boundary so "Produktion" survives "Prof.".
				if rest == "" || rest[0] == ' ' {
					found = append(found, t)
					bare = strings.TrimSpace(rest)
					matched = true
					break
				}
			}
		}
		if !matched {
			break
		}
	}
	return strings.Join(found, " "), bare
}

var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// foldDiacritics decomposes accented runes and drops the combining marks,
// so "Müller" and "Muller" normalize identically. German sharp s is mapped
// explicitly since it is not a combining-mark composition.
func foldDiacritics(s string) string {
	s = strings.ReplaceAll(s, "ß", "ss")
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeName maps a display name to its identity key: titles stripped,
// diacritics folded, lowercased, inner whitespace collapsed.
func NormalizeName(name string) string {
	_, bare := StripTitles(name)
	bare = foldDiacritics(bare)
	bare = strings.ToLower(bare)
	return strings.Join(strings.Fields(bare), " ")
}
