// Package grid lays catalog cards out into level-filtered slot sequences and
// paginates them. A nil slot is a blank tile.
package grid

import (
	"strings"

	"github.com/atinyakov/SymbolBoard/internal/catalog"
	"github.com/atinyakov/SymbolBoard/internal/models"
)

// Dimensions is the rows × cols shape of a grid page.
type Dimensions struct {
	Rows int
	Cols int
}

// PerPage returns the number of cells on one page.
func (d Dimensions) PerPage() int {
	return d.Rows * d.Cols
}

// DimensionsFor returns the fixed page shape of size. Unknown sizes get the
// medium shape.
func DimensionsFor(size models.GridSize) Dimensions {
	switch size {
	case models.GridSmall:
		return Dimensions{Rows: 5, Cols: 9}
	case models.GridLarge:
		return Dimensions{Rows: 7, Cols: 13}
	default:
		return Dimensions{Rows: 6, Cols: 11}
	}
}

// Visible reports whether card passes the level filter. Cards without a
// level are always visible.
func Visible(card models.Card, levels map[string]bool) bool {
	return card.Level == "" || levels[card.Level]
}

func levelSet(levels []string) map[string]bool {
	set := make(map[string]bool, len(levels))
	for _, l := range levels {
		set[strings.ToUpper(l)] = true
	}
	return set
}

// AssembleHome fills the home template of size from cat. The result has
// exactly one slot per template entry; blank entries, missing cards and
// cards outside levels are nil.
func AssembleHome(cat *catalog.Catalog, size models.GridSize, levels []string) []*models.Card {
	visible := levelSet(levels)
	tmpl := Template(size)
	slots := make([]*models.Card, len(tmpl))
	for i, key := range tmpl {
		if key == Blank {
			continue
		}
		card, ok := cat.FindByKey(key)
		if !ok || !Visible(card, visible) {
			continue
		}
		slots[i] = &card
	}
	return slots
}

// AssembleCategory returns the cards whose folder starts with categoryKey,
// ignoring case, in catalog order. Cards outside levels stay as nil
// placeholders so the layout does not shift when the filter changes.
//
// Prefix matching lets "noun" select "nouns"; it also lets "verb" select a
// "verbose" folder.
func AssembleCategory(cat *catalog.Catalog, categoryKey string, levels []string) []*models.Card {
	visible := levelSet(levels)
	prefix := strings.ToLower(categoryKey)
	var slots []*models.Card
	for _, card := range cat.Cards() {
		if !strings.HasPrefix(strings.ToLower(card.Folder), prefix) {
			continue
		}
		if !Visible(card, visible) {
			slots = append(slots, nil)
			continue
		}
		c := card
		slots = append(slots, &c)
	}
	return slots
}

// AssembleList lays out an ad-hoc list such as favourites or custom words.
// There is no curated layout to keep stable, so hidden cards are dropped.
func AssembleList(cards []models.Card, levels []string) []*models.Card {
	visible := levelSet(levels)
	slots := make([]*models.Card, 0, len(cards))
	for _, card := range cards {
		if !Visible(card, visible) {
			continue
		}
		c := card
		slots = append(slots, &c)
	}
	return slots
}

// AssembleFavorites resolves favourite labels against cat and lays them out
// like AssembleList. Labels with no matching card are dropped.
func AssembleFavorites(cat *catalog.Catalog, favorites []string, levels []string) []*models.Card {
	cards := make([]models.Card, 0, len(favorites))
	for _, label := range favorites {
		if card, ok := cat.LookupLabel(label); ok {
			cards = append(cards, card)
		}
	}
	return AssembleList(cards, levels)
}

// NonNil counts the occupied slots.
func NonNil(slots []*models.Card) int {
	n := 0
	for _, s := range slots {
		if s != nil {
			n++
		}
	}
	return n
}

// PageCount returns ceil(occupied / perPage), at least 1.
func PageCount(slots []*models.Card, perPage int) int {
	if perPage <= 0 {
		return 1
	}
	n := NonNil(slots)
	pages := (n + perPage - 1) / perPage
	return max(pages, 1)
}

// ClampPage keeps page within [0, pageCount-1].
func ClampPage(page, pageCount int) int {
	if page >= pageCount {
		page = pageCount - 1
	}
	return max(page, 0)
}

// Paginate returns page number page of slots, counting every slot
// (blank ones included) as one cell.
func Paginate(slots []*models.Card, rows, cols, page int) []*models.Card {
	perPage := rows * cols
	if perPage <= 0 || page < 0 {
		return nil
	}
	start := page * perPage
	if start >= len(slots) {
		return []*models.Card{}
	}
	end := min(start+perPage, len(slots))
	return slots[start:end]
}
