// Package catalog merges symbol cards from several sources into a single
// deduplicated, immutable Catalog.
package catalog

import (
	"context"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/atinyakov/SymbolBoard/internal/labels"
	"github.com/atinyakov/SymbolBoard/internal/models"
)

// CategoryPriority is the fixed display order of known category keys.
var CategoryPriority = []string{
	"pronouns", "verbs", "nouns", "adjectives", "adverbs", "prepositions",
	"questions", "social", "feelings", "food", "drinks", "people", "places",
	"animals", "colors", "numbers", "time", "body", "clothes", "toys",
	"school", "weather",
}

// maxDepth bounds recursion into nested groups.
const maxDepth = 16

// Builder walks card sources and produces a Catalog.
type Builder struct {
	log *zap.Logger
	// Workers bounds how many sources are enumerated concurrently.
	Workers int
}

// NewBuilder creates a Builder. A nil logger disables logging.
func NewBuilder(log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{log: log, Workers: 4}
}

// Build enumerates sources and merges them in declaration order; on an
// identity collision the card from the later source wins. A source (or
// sub-group) that cannot be listed contributes no cards. categories, when
// non-nil, supplies category icons keyed by base file name.
func (b *Builder) Build(ctx context.Context, sources []Source, categories *Source) *Catalog {
	walked := make([][]models.Card, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(b.Workers, 1))
	for i, src := range sources {
		g.Go(func() error {
			w := walker{log: b.log.With(zap.String("source", src.Name)), src: src}
			w.walk(gctx, "", "", 0)
			walked[i] = w.cards
			return nil
		})
	}
	_ = g.Wait()

	var all []models.Card
	for _, cards := range walked {
		all = append(all, cards...)
	}
	cards := dedupe(all)

	var icons map[string]string
	var iconOrder []string
	if categories != nil {
		icons, iconOrder = b.categoryIcons(ctx, *categories)
	}

	return &Catalog{
		cards:      cards,
		categories: orderCategories(cards, icons, iconOrder),
		byKey:      indexBy(cards, func(c models.Card) string { return labels.BaseKey(c.FileName) }),
		byLabel:    indexBy(cards, func(c models.Card) string { return strings.ToLower(c.Label) }),
	}
}

type walker struct {
	log   *zap.Logger
	src   Source
	cards []models.Card
}

func (w *walker) walk(ctx context.Context, dir, folder string, depth int) {
	if depth > maxDepth {
		w.log.Warn("card source nested too deep", zap.String("path", dir))
		return
	}
	names, err := w.src.Lister.List(ctx, dir)
	if err != nil {
		w.log.Warn("card source enumeration failed", zap.String("path", dir), zap.Error(err))
		return
	}
	sort.Strings(names)

	for _, name := range names {
		if group, ok := strings.CutSuffix(name, "/"); ok {
			sub := folder
			if sub == "" {
				sub = strings.ToLower(group)
			}
			w.walk(ctx, path.Join(dir, group), sub, depth+1)
			continue
		}
		if !labels.IsImageExtension(labels.Extension(name)) {
			continue
		}
		full := path.Join(dir, name)

		f := folder
		if f == "" {
			f = w.src.rootFolder()
		}
		level, _ := labels.ParseLevel(name)
		w.cards = append(w.cards, models.Card{
			FileName: name,
			Label:    labels.NormalizeFileName(name),
			Path:     w.src.locate(full),
			Folder:   f,
			Level:    level,
		})
	}
}

func (b *Builder) categoryIcons(ctx context.Context, src Source) (map[string]string, []string) {
	names, err := src.Lister.List(ctx, "")
	if err != nil {
		b.log.Warn("category source enumeration failed", zap.String("source", src.Name), zap.Error(err))
		return nil, nil
	}
	sort.Strings(names)

	icons := make(map[string]string, len(names))
	var order []string
	for _, name := range names {
		if !labels.IsImageExtension(labels.Extension(name)) {
			continue
		}
		key := labels.BaseKey(name)
		if _, ok := icons[key]; ok {
			continue
		}
		icons[key] = src.locate(name)
		order = append(order, key)
	}
	return icons, order
}

// dedupe keeps one card per identity. The later card replaces the earlier
// one in the earlier card's position.
func dedupe(cards []models.Card) []models.Card {
	pos := make(map[string]int, len(cards))
	out := make([]models.Card, 0, len(cards))
	for _, c := range cards {
		id := c.Identity()
		if i, ok := pos[id]; ok {
			out[i] = c
			continue
		}
		pos[id] = len(out)
		out = append(out, c)
	}
	return out
}

func orderCategories(cards []models.Card, icons map[string]string, iconOrder []string) []models.Category {
	seen := make(map[string]bool)
	var discovered []string
	add := func(key string) {
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		discovered = append(discovered, key)
	}
	for _, c := range cards {
		add(c.Folder)
	}
	for _, k := range iconOrder {
		add(k)
	}

	rank := make(map[string]int, len(CategoryPriority))
	for i, k := range CategoryPriority {
		rank[k] = i
	}
	ordered := make([]string, 0, len(discovered))
	for _, k := range CategoryPriority {
		if seen[k] {
			ordered = append(ordered, k)
		}
	}
	for _, k := range discovered {
		if _, known := rank[k]; !known {
			ordered = append(ordered, k)
		}
	}

	out := make([]models.Category, 0, len(ordered))
	for _, k := range ordered {
		out = append(out, models.Category{Key: k, Label: labels.NormalizeFileName(k), Path: icons[k]})
	}
	return out
}

func indexBy(cards []models.Card, key func(models.Card) string) map[string]int {
	idx := make(map[string]int, len(cards))
	for i, c := range cards {
		k := key(c)
		if _, ok := idx[k]; !ok {
			idx[k] = i
		}
	}
	return idx
}

// Catalog is an immutable, deduplicated set of cards plus their categories.
// It is safe for concurrent use.
type Catalog struct {
	cards      []models.Card
	categories []models.Category
	byKey      map[string]int
	byLabel    map[string]int
}

// New builds a Catalog directly from cards, deduplicating them with the
// same later-wins rule as Builder.Build.
func New(cards []models.Card) *Catalog {
	deduped := dedupe(cards)
	return &Catalog{
		cards:      deduped,
		categories: orderCategories(deduped, nil, nil),
		byKey:      indexBy(deduped, func(c models.Card) string { return labels.BaseKey(c.FileName) }),
		byLabel:    indexBy(deduped, func(c models.Card) string { return strings.ToLower(c.Label) }),
	}
}

// Len returns the number of cards.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.cards)
}

// Cards returns a copy of the cards in catalog order.
func (c *Catalog) Cards() []models.Card {
	if c == nil {
		return nil
	}
	return append([]models.Card(nil), c.cards...)
}

// Categories returns a copy of the ordered categories.
func (c *Catalog) Categories() []models.Category {
	if c == nil {
		return nil
	}
	return append([]models.Category(nil), c.categories...)
}

// FindByKey returns the first card whose file name without extension equals
// key, ignoring case.
func (c *Catalog) FindByKey(key string) (models.Card, bool) {
	if c == nil {
		return models.Card{}, false
	}
	i, ok := c.byKey[strings.ToLower(key)]
	if !ok {
		return models.Card{}, false
	}
	return c.cards[i], true
}

// LookupLabel returns the first card whose label equals label, ignoring case.
func (c *Catalog) LookupLabel(label string) (models.Card, bool) {
	if c == nil {
		return models.Card{}, false
	}
	i, ok := c.byLabel[strings.ToLower(strings.TrimSpace(label))]
	if !ok {
		return models.Card{}, false
	}
	return c.cards[i], true
}

// Dictionary returns a lowercase label → card map. The first card with a
// given label wins.
func (c *Catalog) Dictionary() map[string]models.Card {
	if c == nil {
		return map[string]models.Card{}
	}
	out := make(map[string]models.Card, len(c.byLabel))
	for k, i := range c.byLabel {
		out[k] = c.cards[i]
	}
	return out
}
