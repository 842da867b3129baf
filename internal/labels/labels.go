// Package labels turns raw asset identifiers (file names, category keys)
// into human-readable display labels.
package labels

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	extPattern    = regexp.MustCompile(`\.[A-Za-z0-9]{1,5}$`)
	tagPattern    = regexp.MustCompile(`(?i)_(A1|A2|B1|B2|C1|C2|EN|PL|DE|FR|ES)$`)
	levelPattern  = regexp.MustCompile(`(?i)_(A1|A2|B1|B2|C1|C2)$`)
	prefixPattern = regexp.MustCompile(`^[0-9]+[-_]?`)
	spacePattern  = regexp.MustCompile(`\s+`)
)

// imageExtensions are the picture formats a card may be backed by.
var imageExtensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "webp": true, "svg": true, "gif": true,
}

// minorWords stay lowercase unless they open the label.
var minorWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "of": true,
	"to": true, "in": true, "on": true, "at": true, "for": true,
}

// NormalizeFileName converts a raw identifier such as "01_big_apple_A1.png"
// into a display label ("Big Apple"). It never fails; empty input yields an
// empty string. Normalizing a result again returns it unchanged: the output
// has no underscores, no image extension, and no ordering prefix unless the
// prefix is all there is.
func NormalizeFileName(raw string) string {
	s := StripExtension(strings.TrimSpace(raw))
	s = tagPattern.ReplaceAllString(s, "")
	s = StripExtension(s)
	s = stripOrderPrefix(s)
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	s = strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
	if s == "" {
		return ""
	}

	// Casers are stateful, so each call gets its own.
	titler := cases.Title(language.English, cases.NoLower)
	words := strings.Split(s, " ")
	for i, w := range words {
		lower := strings.ToLower(w)
		if i > 0 && minorWords[lower] {
			words[i] = lower
			continue
		}
		words[i] = titler.String(w)
	}
	return strings.Join(words, " ")
}

const separators = "_- \t"

// stripOrderPrefix removes leading ordering numbers ("01_", "2-") together
// with any separators around them, stopping before the one that would leave
// nothing.
func stripOrderPrefix(s string) string {
	s = strings.TrimLeft(s, separators)
	for {
		loc := prefixPattern.FindStringIndex(s)
		if loc == nil {
			return s
		}
		rest := strings.TrimLeft(s[loc[1]:], separators)
		if rest == "" {
			return s
		}
		s = rest
	}
}

// IsImageExtension reports whether ext (lowercase, without the dot) names a
// supported picture format.
func IsImageExtension(ext string) bool {
	return imageExtensions[ext]
}

// StripExtension removes trailing image extensions ("a.png.png" -> "a").
// Other dotted endings are part of the name and stay.
func StripExtension(name string) string {
	for {
		loc := extPattern.FindStringIndex(name)
		if loc == nil || loc[0] == 0 || !imageExtensions[strings.ToLower(name[loc[0]+1:])] {
			return name
		}
		name = name[:loc[0]]
	}
}

// Extension returns the lowercase extension of name without the dot.
func Extension(name string) string {
	loc := extPattern.FindStringIndex(name)
	if loc == nil || loc[0] == 0 {
		return ""
	}
	return strings.ToLower(name[loc[0]+1:])
}

// BaseKey returns the lowercase, extension-free form of a file name used to
// match grid template keys.
func BaseKey(fileName string) string {
	return strings.ToLower(StripExtension(fileName))
}

// ParseLevel extracts the CEFR level tag (A1..C2) from a file name.
func ParseLevel(fileName string) (string, bool) {
	m := levelPattern.FindStringSubmatch(StripExtension(fileName))
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}
