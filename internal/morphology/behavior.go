package morphology

import (
	"strings"

	"github.com/atinyakov/SymbolBoard/internal/models"
)

// Behavior flags which variants a category supports on long press.
type Behavior uint8

const (
	// Plural marks categories whose cards are countable nouns.
	Plural Behavior = 1 << iota
	// Verb marks categories whose cards have tense forms.
	Verb
	// Negation marks categories whose cards can be negated.
	Negation
)

// Has reports whether b includes flag.
func (b Behavior) Has(flag Behavior) bool {
	return b&flag != 0
}

var categoryBehavior = map[string]Behavior{
	"noun":    Plural,
	"nouns":   Plural,
	"food":    Plural,
	"drinks":  Plural,
	"animals": Plural,
	"toys":    Plural,
	"clothes": Plural,
	"body":    Plural,
	"places":  Plural,
	"school":  Plural,
	"people":  Plural,
	"verb":    Verb | Negation,
	"verbs":   Verb | Negation,
}

// BehaviorFor returns the behavior of a category key. Unknown categories
// support no variants.
func BehaviorFor(folder string) Behavior {
	return categoryBehavior[strings.ToLower(strings.TrimSpace(folder))]
}

// Variants lists the long-press alternatives of a card: its plural for noun
// categories, its tenses and negations for verb categories. The first entry
// is always the card's own word.
func Variants(card models.Card, t *Tables) []string {
	if t == nil {
		t = EmptyTables()
	}
	word := strings.ToLower(card.Label)
	out := []string{word}
	if word == "" {
		return out
	}

	b := BehaviorFor(card.Folder)
	if b.Has(Plural) {
		out = appendNew(out, SuggestPlural(word, t.Plurals))
	}
	if b.Has(Verb) {
		forms := GetVerbForms(word, t.Verbs)
		out = appendNew(out, forms.Past, forms.Perfect)
		if b.Has(Negation) {
			out = appendNew(out, forms.Negatives...)
		}
	}
	return out
}

func appendNew(dst []string, vals ...string) []string {
	for _, v := range vals {
		if v == "" {
			continue
		}
		dup := false
		for _, d := range dst {
			if d == v {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, v)
		}
	}
	return dst
}
