package csv

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// deaccent decomposes, removes nonspacing marks, and recomposes, turning
// accented header text into plain ASCII letters.
var deaccent = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// canonicalKey converts arbitrary header text into a lowercase ASCII
// identifier usable as a record key and SQL column name:
//  1. lowercase and trim,
//  2. strip accents,
//  3. keep [a-z0-9_]; convert space/dash/dot to underscore; drop others,
//  4. fall back to "col" if nothing survives.
func canonicalKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	ascii, _, _ := transform.String(deaccent, s)

	var b strings.Builder
	prevUnderscore := false
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.':
			if !prevUnderscore {
				b.WriteRune('_')
				prevUnderscore = true
			}
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return "col"
	}
	return name
}

// canonicalHeader canonicalizes every header cell, stripping a UTF-8 BOM
// from the first one, and applies the optional rename map afterwards.
func canonicalHeader(cells []string, rename map[string]string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		key := canonicalKey(c)
		if mapped, ok := rename[key]; ok {
			key = mapped
		}
		out[i] = key
	}
	return out
}
