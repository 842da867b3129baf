package catalog

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/atinyakov/SymbolBoard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func bundled() fstest.MapFS {
	return fstest.MapFS{
		"nouns/apple_A1.png":          {},
		"nouns/fruit/banana.jpg":      {},
		"nouns/fruit/exotic/kiwi.svg": {},
		"nouns/readme.txt":            {},
		"verbs/01_eat.png":            {},
		"verbs/drink_B2.png":          {},
		"zebra_stuff/stripe.png":      {},
		"feelings/happy.webp":         {},
		"logo.png":                    {},
	}
}

// mapLister is a CardSource backed by a literal map; paths listed in fail
// return an error.
type mapLister struct {
	tree map[string][]string
	fail map[string]bool
}

func (m mapLister) List(_ context.Context, p string) ([]string, error) {
	if m.fail[p] {
		return nil, errors.New("asset manager unavailable")
	}
	return m.tree[p], nil
}

func TestBuild_WalksNestedGroups(t *testing.T) {
	b := NewBuilder(nil)
	cat := b.Build(context.Background(), []Source{
		{Name: "bundled", Lister: NewFSSource(bundled(), "assets")},
	}, nil)

	byName := map[string]models.Card{}
	for _, c := range cat.Cards() {
		byName[c.FileName] = c
	}

	require.Len(t, byName, 8)
	assert.NotContains(t, byName, "readme.txt")

	apple := byName["apple_A1.png"]
	assert.Equal(t, "Apple", apple.Label)
	assert.Equal(t, "nouns", apple.Folder)
	assert.Equal(t, "A1", apple.Level)
	assert.Equal(t, "assets/nouns/apple_A1.png", apple.Path)

	assert.Equal(t, "nouns", byName["kiwi.svg"].Folder)
	assert.Equal(t, "nouns", byName["banana.jpg"].Folder)
	assert.Equal(t, "Eat", byName["01_eat.png"].Label)
	assert.Equal(t, "bundled", byName["logo.png"].Folder)
	assert.Empty(t, byName["happy.webp"].Level)
}

func TestBuild_LaterSourceWins(t *testing.T) {
	user := mapLister{tree: map[string][]string{
		"":      {"Nouns/"},
		"Nouns": {"Apple_A1.PNG", "pear.png"},
	}}

	cat := NewBuilder(nil).Build(context.Background(), []Source{
		{Name: "bundled", Lister: NewFSSource(bundled(), "assets")},
		{Name: "user", Lister: user},
	}, nil)

	seen := map[string]int{}
	for _, c := range cat.Cards() {
		seen[c.Identity()]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "duplicate identity %s", id)
	}

	apple, ok := cat.FindByKey("apple_a1")
	require.True(t, ok)
	assert.Equal(t, "user:Nouns/Apple_A1.PNG", apple.Path)
	assert.Equal(t, 9, cat.Len())

	// the winner keeps the loser's position
	assert.Equal(t, "Apple_A1.PNG", cat.Cards()[2].FileName)
}

func TestBuild_PartialSourceFailure(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	b := NewBuilder(zap.New(core))

	broken := mapLister{fail: map[string]bool{"": true}}
	halfBroken := mapLister{
		tree: map[string][]string{
			"":     {"toys/", "food/", "README"},
			"food": {"bread.png"},
		},
		fail: map[string]bool{"toys": true},
	}

	cat := b.Build(context.Background(), []Source{
		{Name: "broken", Lister: broken},
		{Name: "half", Lister: halfBroken},
	}, nil)

	require.Equal(t, 1, cat.Len())
	assert.Equal(t, "food", cat.Cards()[0].Folder)
	assert.Equal(t, 2, logs.FilterMessage("card source enumeration failed").Len())
}

func TestBuild_ExtensionlessFilesAreSkipped(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	assets := bundled()
	assets["LICENSE"] = &fstest.MapFile{}
	assets["nouns/README"] = &fstest.MapFile{}
	assets["v1.2/St.Louis.png"] = &fstest.MapFile{}

	cat := NewBuilder(zap.New(core)).Build(context.Background(), []Source{
		{Name: "bundled", Lister: NewFSSource(assets, "assets")},
	}, nil)

	assert.Equal(t, 9, cat.Len())
	assert.Equal(t, 0, logs.Len())
	card, ok := cat.LookupLabel("St.Louis")
	require.True(t, ok)
	assert.Equal(t, "v1.2", card.Folder)
}

func TestBuild_Categories(t *testing.T) {
	icons := fstest.MapFS{
		"verbs.png":       {},
		"nouns.png":       {},
		"weather.png":     {},
		"notes.txt":       {},
		"zebra_stuff.png": {},
	}
	cat := NewBuilder(nil).Build(context.Background(),
		[]Source{{Name: "bundled", Lister: NewFSSource(bundled(), "assets")}},
		&Source{Name: "categories", Lister: NewFSSource(icons, "cats")},
	)

	var keys []string
	for _, c := range cat.Categories() {
		keys = append(keys, c.Key)
	}
	assert.Equal(t, []string{"verbs", "nouns", "feelings", "weather", "bundled", "zebra_stuff"}, keys)

	cats := cat.Categories()
	assert.Equal(t, "cats/verbs.png", cats[0].Path)
	assert.Equal(t, "Zebra Stuff", cats[5].Label)
	assert.Empty(t, cats[2].Path)
}

func TestBuild_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cat := NewBuilder(nil).Build(ctx, []Source{{Name: "bundled", Lister: NewFSSource(bundled(), "")}}, nil)
	assert.Equal(t, 0, cat.Len())
}

func TestCustomWordSource(t *testing.T) {
	words := []models.CustomWord{
		{ID: "1", Label: "Grandma Rose", Category: "People", Image: "/data/img/abc.jpg"},
		{ID: "2", Label: "Slime", Image: "content://media/42"},
		{ID: "3", Label: "  "},
	}
	cat := NewBuilder(nil).Build(context.Background(), []Source{
		{Name: "custom", Lister: NewCustomWordSource(words)},
	}, nil)

	require.Equal(t, 2, cat.Len())
	rose, ok := cat.LookupLabel("grandma rose")
	require.True(t, ok)
	assert.Equal(t, "people", rose.Folder)
	assert.Equal(t, "/data/img/abc.jpg", rose.Path)

	slime, ok := cat.LookupLabel("Slime")
	require.True(t, ok)
	assert.Equal(t, "custom", slime.Folder)
	assert.Equal(t, "Slime.png", slime.FileName)
}

func TestCustomWordSource_DottedLabel(t *testing.T) {
	cat := NewBuilder(nil).Build(context.Background(), []Source{
		{Name: "custom", Lister: NewCustomWordSource([]models.CustomWord{{ID: "1", Label: "St.Louis", Image: "/img/x.jpg"}})},
	}, nil)

	require.Equal(t, 1, cat.Len())
	assert.Equal(t, "St.Louis", cat.Cards()[0].Label)
}

func TestCatalog_Lookups(t *testing.T) {
	cat := New([]models.Card{
		{FileName: "hello.png", Label: "Hello", Folder: "social"},
		{FileName: "Hello.jpg", Label: "Hello", Folder: "greetings"},
		{FileName: "hello.png", Label: "Hi", Folder: "social"},
	})

	require.Equal(t, 2, cat.Len())
	c, ok := cat.FindByKey("HELLO")
	require.True(t, ok)
	assert.Equal(t, "Hi", c.Label)

	dict := cat.Dictionary()
	assert.Equal(t, "greetings", dict["hello"].Folder)
	assert.Equal(t, "social", dict["hi"].Folder)

	var nilCat *Catalog
	assert.Equal(t, 0, nilCat.Len())
	_, ok = nilCat.FindByKey("x")
	assert.False(t, ok)
}
