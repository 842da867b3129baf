package grid

import (
	"fmt"
	"testing"

	"github.com/atinyakov/SymbolBoard/internal/catalog"
	"github.com/atinyakov/SymbolBoard/internal/labels"
	"github.com/atinyakov/SymbolBoard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func card(file, folder, level string) models.Card {
	return models.Card{FileName: file, Label: file, Folder: folder, Level: level}
}

func homeCatalog() *catalog.Catalog {
	return catalog.New([]models.Card{
		card("I.png", "pronouns", ""),
		card("want.png", "verbs", "A1"),
		card("go.png", "verbs", "B2"),
		card("eat.png", "verbs", ""),
		card("Happy_C1.png", "feelings", "C1"),
		card("happy.png", "feelings", "A2"),
		card("thank_you.png", "social", ""),
	})
}

func TestTemplateShapes(t *testing.T) {
	for _, size := range []models.GridSize{models.GridSmall, models.GridMedium, models.GridLarge} {
		d := DimensionsFor(size)
		assert.Len(t, Template(size), d.PerPage(), "template %s", size)
	}
	assert.Equal(t, Dimensions{Rows: 5, Cols: 9}, DimensionsFor(models.GridSmall))
	assert.Equal(t, Dimensions{Rows: 6, Cols: 11}, DimensionsFor(models.GridMedium))
	assert.Equal(t, Dimensions{Rows: 7, Cols: 13}, DimensionsFor(models.GridLarge))
}

func TestTemplateIsImmutable(t *testing.T) {
	tmpl := Template(models.GridSmall)
	tmpl[0] = "changed"
	assert.Equal(t, "i", Template(models.GridSmall)[0])
}

func TestAssembleHome(t *testing.T) {
	cat := homeCatalog()
	levelSets := [][]string{{"A1"}, {"B2"}, {"A1", "A2", "B1", "B2", "C1", "C2"}, {}}

	for _, size := range []models.GridSize{models.GridSmall, models.GridMedium, models.GridLarge} {
		tmpl := Template(size)
		for _, levels := range levelSets {
			slots := AssembleHome(cat, size, levels)
			require.Len(t, slots, len(tmpl))

			visible := levelSet(levels)
			for i, key := range tmpl {
				c, found := cat.FindByKey(key)
				want := key != Blank && found && Visible(c, visible)
				if want {
					require.NotNil(t, slots[i], "size %s key %q", size, key)
					assert.Equal(t, key, labels.BaseKey(slots[i].FileName))
				} else {
					assert.Nil(t, slots[i], "size %s key %q levels %v", size, key, levels)
				}
			}
		}
	}
}

func TestAssembleHome_LevelFilter(t *testing.T) {
	slots := AssembleHome(homeCatalog(), models.GridSmall, []string{"A1"})
	tmpl := Template(models.GridSmall)
	idx := func(key string) int {
		for i, k := range tmpl {
			if k == key {
				return i
			}
		}
		t.Fatalf("key %q not in template", key)
		return -1
	}

	assert.NotNil(t, slots[idx("i")])
	assert.NotNil(t, slots[idx("want")])
	assert.Nil(t, slots[idx("go")])
	assert.Nil(t, slots[idx("happy")])
	assert.NotNil(t, slots[idx("thank_you")])
	assert.Nil(t, slots[idx("stop")])
}

func TestAssembleCategory(t *testing.T) {
	cat := catalog.New([]models.Card{
		card("apple.png", "nouns", "A1"),
		card("pear.png", "nouns", "C2"),
		card("run.png", "verbs", ""),
		card("plum.png", "NOUNS", ""),
		card("long.png", "verbose", ""),
	})

	slots := AssembleCategory(cat, "noun", []string{"A1"})
	require.Len(t, slots, 3)
	assert.Equal(t, "apple.png", slots[0].FileName)
	assert.Nil(t, slots[1])
	assert.Equal(t, "plum.png", slots[2].FileName)

	// prefix matching also reaches unrelated folders sharing the prefix
	verbs := AssembleCategory(cat, "verb", nil)
	assert.Len(t, verbs, 2)

	assert.Empty(t, AssembleCategory(cat, "toys", nil))
}

func TestAssembleFavoritesDropsHidden(t *testing.T) {
	cat := catalog.New([]models.Card{
		card("apple.png", "nouns", "A1"),
		card("pear.png", "nouns", "C2"),
	})
	slots := AssembleFavorites(cat, []string{"pear.png", "ghost", "apple.png"}, []string{"A1"})
	require.Len(t, slots, 1)
	assert.Equal(t, "apple.png", slots[0].FileName)

	custom := AssembleList([]models.Card{card("x.png", "custom", "B1"), card("y.png", "custom", "")}, []string{"A1"})
	require.Len(t, custom, 1)
	assert.Equal(t, "y.png", custom[0].FileName)
}

func filled(n int) []*models.Card {
	slots := make([]*models.Card, n)
	for i := range slots {
		c := card(fmt.Sprintf("c%d.png", i), "nouns", "")
		slots[i] = &c
	}
	return slots
}

func TestPagination(t *testing.T) {
	slots := filled(37)
	assert.Equal(t, 3, PageCount(slots, 15))
	assert.Equal(t, 1, PageCount(nil, 15))
	assert.Equal(t, 1, PageCount([]*models.Card{nil, nil}, 15))
	assert.Equal(t, 1, ClampPage(5, 2))
	assert.Equal(t, 0, ClampPage(-3, 1))
	assert.Equal(t, 0, ClampPage(0, 0))

	page := Paginate(slots, 3, 5, 2)
	require.Len(t, page, 7)
	assert.Equal(t, "c30.png", page[0].FileName)
	assert.Empty(t, Paginate(slots, 3, 5, 3))

	// interior blanks occupy a cell but are not counted
	withBlanks := append([]*models.Card{nil, nil}, filled(15)...)
	assert.Equal(t, 1, PageCount(withBlanks, 15))
	second := Paginate(withBlanks, 3, 5, 1)
	assert.Len(t, second, 2)
}

func TestPager(t *testing.T) {
	var cards []models.Card
	var favs []string
	for i := 0; i < 140; i++ {
		c := card(fmt.Sprintf("w%03d.png", i), "nouns", "")
		cards = append(cards, c)
		favs = append(favs, c.Label)
	}
	cat := catalog.New(cards)
	p := NewPager(cat, models.UserGridSettings{GridSize: models.GridMedium})

	assert.Equal(t, ViewHome, p.View())
	assert.Equal(t, 1, p.PageCount())
	assert.Len(t, p.Current(), 66)

	p.ShowCategory("nouns")
	assert.Equal(t, 3, p.PageCount())
	assert.True(t, p.Next())
	assert.True(t, p.Next())
	assert.False(t, p.Next())
	assert.Equal(t, 2, p.Page())
	assert.Len(t, p.Current(), 8)

	p.SetLevels([]string{"A1"})
	assert.Equal(t, 0, p.Page())

	p.SetPage(2)
	p.SetSize(models.GridLarge)
	assert.Equal(t, 0, p.Page())
	assert.Equal(t, 2, p.PageCount())

	p.SetSize(models.GridMedium)
	p.ShowFavorites(favs)
	p.SetPage(5)
	assert.Equal(t, 2, p.Page())

	p.UpdateFavorites(favs[:70])
	assert.Equal(t, 2, p.PageCount())
	assert.Equal(t, 1, p.Page())

	assert.True(t, p.Prev())
	assert.False(t, p.Prev())
}
