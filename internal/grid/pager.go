package grid

import (
	"slices"

	"github.com/atinyakov/SymbolBoard/internal/catalog"
	"github.com/atinyakov/SymbolBoard/internal/models"
)

// View selects what the pager lays out.
type View int

const (
	ViewHome View = iota
	ViewCategory
	ViewFavorites
	ViewCustom
)

// String returns the string representation of the view.
func (v View) String() string {
	switch v {
	case ViewHome:
		return "home"
	case ViewCategory:
		return "category"
	case ViewFavorites:
		return "favorites"
	case ViewCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Pager holds the board view state and the current page. Changing the view,
// grid size or visible levels resets the page to 0; Refresh keeps the page
// but clamps it when the slot list shrank. A Pager is not safe for
// concurrent use.
type Pager struct {
	cat       *catalog.Catalog
	view      View
	category  string
	size      models.GridSize
	levels    []string
	favorites []string
	custom    []models.Card

	slots []*models.Card
	page  int
}

// NewPager creates a pager on the home view.
func NewPager(cat *catalog.Catalog, settings models.UserGridSettings) *Pager {
	settings = settings.Normalize()
	p := &Pager{
		cat:    cat,
		view:   ViewHome,
		size:   settings.GridSize,
		levels: slices.Clone(settings.VisibleLevels),
	}
	p.assemble()
	return p
}

func (p *Pager) assemble() {
	switch p.view {
	case ViewCategory:
		p.slots = AssembleCategory(p.cat, p.category, p.levels)
	case ViewFavorites:
		p.slots = AssembleFavorites(p.cat, p.favorites, p.levels)
	case ViewCustom:
		p.slots = AssembleList(p.custom, p.levels)
	default:
		p.slots = AssembleHome(p.cat, p.size, p.levels)
	}
}

func (p *Pager) reset() {
	p.page = 0
	p.assemble()
}

// ShowHome switches to the home template.
func (p *Pager) ShowHome() {
	p.view = ViewHome
	p.reset()
}

// ShowCategory switches to the cards of a category.
func (p *Pager) ShowCategory(key string) {
	p.view = ViewCategory
	p.category = key
	p.reset()
}

// ShowFavorites switches to the favourites list.
func (p *Pager) ShowFavorites(labels []string) {
	p.view = ViewFavorites
	p.favorites = slices.Clone(labels)
	p.reset()
}

// ShowCustom switches to the user-created cards.
func (p *Pager) ShowCustom(cards []models.Card) {
	p.view = ViewCustom
	p.custom = slices.Clone(cards)
	p.reset()
}

// SetSize changes the grid size.
func (p *Pager) SetSize(size models.GridSize) {
	if !size.Valid() {
		return
	}
	p.size = size
	p.reset()
}

// SetLevels changes the visible levels. An empty set keeps the current one.
func (p *Pager) SetLevels(levels []string) {
	if len(levels) == 0 {
		return
	}
	s := models.UserGridSettings{GridSize: p.size, VisibleLevels: levels}
	p.levels = s.Normalize().VisibleLevels
	p.reset()
}

// SetCatalog swaps the catalog and refreshes the current view.
func (p *Pager) SetCatalog(cat *catalog.Catalog) {
	p.cat = cat
	p.Refresh()
}

// UpdateFavorites replaces the favourites list. When the favourites view is
// active the page is kept and clamped.
func (p *Pager) UpdateFavorites(labels []string) {
	p.favorites = slices.Clone(labels)
	if p.view == ViewFavorites {
		p.Refresh()
	}
}

// Refresh reassembles the current view and clamps the page.
func (p *Pager) Refresh() {
	p.assemble()
	p.page = ClampPage(p.page, p.PageCount())
}

// SetPage moves to page n, clamped to the available pages.
func (p *Pager) SetPage(n int) {
	p.page = ClampPage(n, p.PageCount())
}

// Next advances one page. It reports whether the page changed.
func (p *Pager) Next() bool {
	if p.page+1 >= p.PageCount() {
		return false
	}
	p.page++
	return true
}

// Prev goes back one page. It reports whether the page changed.
func (p *Pager) Prev() bool {
	if p.page == 0 {
		return false
	}
	p.page--
	return true
}

// View returns the active view.
func (p *Pager) View() View { return p.view }

// Category returns the active category key.
func (p *Pager) Category() string { return p.category }

// Size returns the active grid size.
func (p *Pager) Size() models.GridSize { return p.size }

// Page returns the current page index.
func (p *Pager) Page() int { return p.page }

// Dimensions returns the page shape of the current size.
func (p *Pager) Dimensions() Dimensions { return DimensionsFor(p.size) }

// PageCount returns the number of pages of the current view.
func (p *Pager) PageCount() int {
	return PageCount(p.slots, p.Dimensions().PerPage())
}

// Slots returns all slots of the current view.
func (p *Pager) Slots() []*models.Card { return p.slots }

// Current returns the slots of the current page.
func (p *Pager) Current() []*models.Card {
	d := p.Dimensions()
	return Paginate(p.slots, d.Rows, d.Cols, p.page)
}
