// Package suggest turns predicted next words into catalog cards, falling back
// to a fixed keyword table when no predictor is available.
package suggest

import (
	"context"
	"sort"
	"strings"

	"github.com/atinyakov/SymbolBoard/internal/catalog"
	"github.com/atinyakov/SymbolBoard/internal/models"
	"github.com/atinyakov/SymbolBoard/internal/morphology"
)

// Predictor returns ranked next-word candidates for a conversation.
type Predictor interface {
	Predict(ctx context.Context, history []models.Utterance) ([]string, error)
}

// trigger maps sentence substrings to an ordered list of candidate words.
type trigger struct {
	keywords []string
	words    []string
}

// fallbackTable is scanned in order; every matching trigger contributes.
var fallbackTable = []trigger{
	{[]string{"hungry", "food"}, []string{"eat", "food", "water", "drink"}},
	{[]string{"thirsty", "drink"}, []string{"drink", "water", "juice", "milk"}},
	{[]string{"tired", "sleep"}, []string{"sleep", "bed", "rest"}},
	{[]string{"play", "fun"}, []string{"play", "toy", "ball", "friend", "outside"}},
	{[]string{"hurt", "pain", "sick"}, []string{"hurt", "help", "doctor", "medicine"}},
	{[]string{"sad", "cry"}, []string{"sad", "hug", "help", "mom"}},
	{[]string{"happy"}, []string{"happy", "play", "friend", "like"}},
	{[]string{"toilet", "bathroom", "potty"}, []string{"toilet", "help", "wash"}},
	{[]string{"cold", "hot"}, []string{"cold", "hot", "jacket", "water"}},
	{[]string{"school", "teacher"}, []string{"school", "teacher", "book", "friend"}},
	{[]string{"want"}, []string{"want", "more", "please", "stop"}},
	{[]string{"go to", "outside"}, []string{"go", "outside", "home", "car"}},
}

// FallbackWords returns the candidate words the keyword table yields for
// sentence, in table order.
func FallbackWords(sentence string) []string {
	s := strings.ToLower(sentence)
	var out []string
	for _, tr := range fallbackTable {
		for _, k := range tr.keywords {
			if strings.Contains(s, k) {
				out = append(out, tr.words...)
				break
			}
		}
	}
	return out
}

// Dictionary maps lowercase words to catalog cards.
type Dictionary map[string]models.Card

// NewDictionary indexes cat by label. Plural forms of cards in plural-capable
// categories are added when they do not collide with a real label.
func NewDictionary(cat *catalog.Catalog, tables *morphology.Tables) Dictionary {
	if tables == nil {
		tables = morphology.EmptyTables()
	}
	d := Dictionary(cat.Dictionary())
	for _, c := range cat.Cards() {
		if !morphology.BehaviorFor(c.Folder).Has(morphology.Plural) {
			continue
		}
		plural := strings.ToLower(morphology.SuggestPlural(c.Label, tables.Plurals))
		if _, taken := d[plural]; !taken && plural != "" {
			d[plural] = c
		}
	}
	return d
}

// Resolve maps words to cards, dropping words with no entry.
func (d Dictionary) Resolve(words []string) []models.Card {
	out := make([]models.Card, 0, len(words))
	for _, w := range words {
		if c, ok := d[strings.ToLower(strings.TrimSpace(w))]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Merger combines external predictions with the keyword fallback.
type Merger struct {
	dict Dictionary
}

// NewMerger creates a Merger over cat.
func NewMerger(cat *catalog.Catalog, tables *morphology.Tables) *Merger {
	return &Merger{dict: NewDictionary(cat, tables)}
}

// Merge resolves external (skipped when aiSupport is off) followed by the
// fallback words for sentence, deduplicated by card identity in first
// occurrence order. An empty sentence yields no suggestions.
func (m *Merger) Merge(sentence string, external []string, aiSupport bool) []models.Card {
	if strings.TrimSpace(sentence) == "" {
		return []models.Card{}
	}

	var cards []models.Card
	if aiSupport {
		cards = append(cards, m.dict.Resolve(external)...)
	}
	cards = append(cards, m.dict.Resolve(FallbackWords(sentence))...)

	seen := make(map[string]bool, len(cards))
	out := make([]models.Card, 0, len(cards))
	for _, c := range cards {
		id := c.Identity()
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, c)
	}
	return out
}

// Merge is a one-shot Merger.Merge over cat without override tables.
func Merge(sentence string, external []string, cat *catalog.Catalog, aiSupport bool) []models.Card {
	return NewMerger(cat, nil).Merge(sentence, external, aiSupport)
}

// Fallback returns the keyword-table suggestions for sentence.
func Fallback(sentence string, cat *catalog.Catalog) []models.Card {
	return Merge(sentence, nil, cat, false)
}

// SortHistory returns a copy of history ordered by ascending timestamp.
func SortHistory(history []models.Utterance) []models.Utterance {
	out := append([]models.Utterance(nil), history...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out
}
