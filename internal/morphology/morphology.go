// Package morphology derives grammatical variants of card labels: plural
// nouns, verb tenses and the icon used for a negated phrase. Everything here
// is pure and safe for concurrent use.
package morphology

import (
	"slices"
	"strings"

	"github.com/atinyakov/SymbolBoard/internal/models"
)

// SuggestPlural returns the plural of noun. A matching entry in overrides
// (keyed by the lowercase singular) is returned verbatim; otherwise exactly
// one of the regular English rules fires.
func SuggestPlural(noun string, overrides map[string]string) string {
	noun = strings.TrimSpace(noun)
	if noun == "" {
		return ""
	}
	lower := strings.ToLower(noun)
	if p, ok := overrides[lower]; ok && p != "" {
		return p
	}

	n := len(lower)
	switch {
	case n > 1 && lower[n-1] == 'y' && !isVowel(lower[n-2]):
		return noun[:len(noun)-1] + "ies"
	case hasAnySuffix(lower, "s", "x", "z", "ch", "sh"):
		return noun + "es"
	default:
		return noun + "s"
	}
}

func isVowel(b byte) bool {
	return strings.IndexByte("aeiou", b) >= 0
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

// VerbOverride is one entry of the verb override table. Empty fields fall
// back to the regular rule.
type VerbOverride struct {
	Past      string   `yaml:"past"`
	Perfect   string   `yaml:"perfect"`
	Negatives []string `yaml:"negatives"`
}

// VerbOverrides maps a lowercase base verb to its irregular forms.
type VerbOverrides map[string]VerbOverride

// irregular verbs that are never taken from the override table.
var irregular = map[string]models.VerbForms{
	"be": {
		Base:      "be",
		Past:      "was",
		Perfect:   "been",
		Negatives: []string{"am not", "is not", "are not", "was not", "were not", "have not been"},
	},
	"have": {
		Base:      "have",
		Past:      "had",
		Perfect:   "had",
		Negatives: []string{"have not", "has not", "had not", "don't have", "doesn't have", "didn't have"},
	},
	"will": {
		Base:      "will",
		Past:      "would",
		Perfect:   "would have",
		Negatives: []string{"will not", "won't", "would not"},
	},
}

// GetVerbForms resolves the forms of verb: the built-in irregular table
// first, then overrides, then the regular "-ed" rule.
func GetVerbForms(verb string, overrides VerbOverrides) models.VerbForms {
	base := strings.TrimSpace(verb)
	key := strings.ToLower(base)

	if forms, ok := irregular[key]; ok {
		forms.Negatives = slices.Clone(forms.Negatives)
		return forms
	}

	forms := models.VerbForms{
		Base:      base,
		Past:      base + "ed",
		Negatives: []string{},
	}
	if o, ok := overrides[key]; ok {
		if o.Past != "" {
			forms.Past = o.Past
		}
		for _, n := range o.Negatives {
			if n != "" {
				forms.Negatives = append(forms.Negatives, n)
			}
		}
		forms.Perfect = o.Perfect
	}
	if forms.Perfect == "" {
		forms.Perfect = forms.Past
	}
	return forms
}

// IconKey names the icon shown next to a negated phrase.
type IconKey string

const (
	IconNegativeFuture  IconKey = "negative_future"
	IconNegativePerfect IconKey = "negative_perfect"
	IconNegativePast    IconKey = "negative_past"
	IconNegativePresent IconKey = "negative_present"
)

// negationTiers are checked in order; the first tier with a matching marker wins.
var negationTiers = []struct {
	icon    IconKey
	markers []string
}{
	{IconNegativeFuture, []string{"won't", "will not"}},
	{IconNegativePerfect, []string{"haven", "hasn", "hadn"}},
	{IconNegativePast, []string{"didn", "wasn", "weren"}},
	{IconNegativePresent, []string{"don'", "doesn", "isn", "aren"}},
}

// NegativeIconFor picks the icon for a negated phrase. Phrases matching no
// tier get the present-tense icon.
func NegativeIconFor(phrase string) IconKey {
	p := strings.ToLower(strings.ReplaceAll(phrase, "’", "'"))
	for _, tier := range negationTiers {
		for _, m := range tier.markers {
			if strings.Contains(p, m) {
				return tier.icon
			}
		}
	}
	return IconNegativePresent
}
