package main

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/SymbolBoard/internal/catalog"
	"github.com/atinyakov/SymbolBoard/internal/client/storage"
	"github.com/atinyakov/SymbolBoard/internal/db"
	"github.com/atinyakov/SymbolBoard/internal/models"
	"github.com/atinyakov/SymbolBoard/internal/morphology"
	"github.com/atinyakov/SymbolBoard/internal/platform/gemini"
	"github.com/atinyakov/SymbolBoard/internal/service"
	"github.com/atinyakov/SymbolBoard/internal/suggest"
)

type recordingPredictor struct {
	words []string
	err   error
	last  []models.Utterance
}

func (p *recordingPredictor) Predict(_ context.Context, history []models.Utterance) ([]string, error) {
	p.last = history
	return p.words, p.err
}

type memRemote struct {
	data map[string][]byte
}

func (m *memRemote) Read(_ context.Context, owner, key string) ([]byte, bool, error) {
	p, ok := m.data[owner+"|"+key]
	return p, ok, nil
}

func (m *memRemote) Write(_ context.Context, owner, key string, payload []byte) error {
	m.data[owner+"|"+key] = payload
	return nil
}

func (m *memRemote) Delete(_ context.Context, owner, key string) error {
	delete(m.data, owner+"|"+key)
	return nil
}

// Medium home template positions used below.
const (
	slotI    = 0
	slotEat  = 11
	slotFood = 60
)

func newTestBoard(t *testing.T, input string, predictor ...suggest.Predictor) (*board, *strings.Builder, *service.SyncService) {
	t.Helper()
	conn, err := db.InitSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	assets := fstest.MapFS{
		"pronouns/i.png":   {},
		"pronouns/you.png": {},
		"verbs/eat.png":    {},
		"verbs/want.png":   {},
		"nouns/mouse.png":  {},
		"food/food.png":    {},
		"food/water.png":   {},
	}
	tables, err := morphology.LoadTables(strings.NewReader("plurals:\n  mouse: mice\nverbs:\n  eat: {past: ate, perfect: eaten}\n"))
	require.NoError(t, err)

	var p suggest.Predictor
	if len(predictor) > 0 {
		p = predictor[0]
	}
	syncService := service.NewSyncService(storage.NewSQLiteStore(conn), &memRemote{data: map[string][]byte{}}, nil)
	out := &strings.Builder{}
	b := newBoard(context.Background(), boardDeps{
		Owner:     "alice",
		Out:       out,
		Sources:   []catalog.Source{{Name: "bundled", Lister: catalog.NewFSSource(assets, "assets")}},
		Tables:    tables,
		Sync:      syncService,
		Predictor: p,
		Prompter:  storage.NewPrompter(bufio.NewScanner(strings.NewReader(input)), out),
	})
	return b, out, syncService
}

func run(t *testing.T, b *board, out *strings.Builder, line string) string {
	t.Helper()
	out.Reset()
	b.exec(context.Background(), line)
	return out.String()
}

func TestBoard_TapSuggestSay(t *testing.T) {
	b, out, _ := newTestBoard(t, "")

	got := run(t, b, out, "tap "+strconv.Itoa(slotFood))
	assert.Contains(t, got, "suggestions: Eat, Food, Water")
	assert.Contains(t, got, "sentence: food")

	got = run(t, b, out, "say")
	assert.Contains(t, got, ">> food")
	require.Len(t, b.history, 1)
	assert.True(t, b.history[0].IsLocal)
	assert.Empty(t, b.sentence)

	got = run(t, b, out, "tap 5")
	assert.Contains(t, got, "no card at 5")
}

func TestBoard_ExternalSuggestions(t *testing.T) {
	p := &recordingPredictor{words: []string{"want", "water", "unicorn"}}
	b, out, _ := newTestBoard(t, "", p)

	// ai support is off by default
	assert.Contains(t, run(t, b, out, "tap "+strconv.Itoa(slotFood)), "suggestions: Eat, Food, Water")
	assert.Nil(t, p.last)

	run(t, b, out, "say")
	run(t, b, out, "ai on")
	got := run(t, b, out, "tap "+strconv.Itoa(slotI))
	assert.Contains(t, got, "suggestions: Want, Water")
	require.Len(t, p.last, 2)
	assert.Equal(t, "food", p.last[0].Text)
	assert.Equal(t, "i", p.last[1].Text)
	assert.True(t, p.last[1].IsLocal)
}

func TestBoard_RateLimitedPredictorFallsBack(t *testing.T) {
	p := &recordingPredictor{err: fmt.Errorf("%w (429)", gemini.ErrRateLimit)}
	b, out, _ := newTestBoard(t, "", p)

	run(t, b, out, "ai on")
	got := run(t, b, out, "tap "+strconv.Itoa(slotFood))
	assert.Contains(t, got, "suggestions: Eat, Food, Water")
	require.Len(t, p.last, 1)
	assert.Equal(t, "food", p.last[0].Text)
}

func TestBoard_VariantsAndMorphology(t *testing.T) {
	b, out, _ := newTestBoard(t, "")

	assert.Contains(t, run(t, b, out, "variants "+strconv.Itoa(slotEat)), "eat | ate | eaten")
	assert.Equal(t, "mice\n", run(t, b, out, "plural mouse"))
	assert.Contains(t, run(t, b, out, "verb eat"), "eat | ate | eaten")
	assert.Equal(t, string(morphology.IconNegativePast)+"\n", run(t, b, out, "neg I didn't eat"))
}

func TestBoard_FavoritesPersist(t *testing.T) {
	b, out, svc := newTestBoard(t, "")

	assert.Contains(t, run(t, b, out, "fav "+strconv.Itoa(slotI)), "I favorite: true")
	favs, err := svc.Favorites(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"I"}, favs)

	got := run(t, b, out, "favs")
	assert.Contains(t, got, "[favorites]")
	assert.Contains(t, got, "I")

	assert.Contains(t, run(t, b, out, "fav 0"), "I favorite: false")
	assert.Contains(t, run(t, b, out, "status"), "pending: 0")
}

func TestBoard_Settings(t *testing.T) {
	b, out, svc := newTestBoard(t, "")

	assert.Contains(t, run(t, b, out, "size small"), "small 5x9")
	s, st := svc.LoadSettings(context.Background(), "alice")
	require.True(t, st.OK())
	assert.Equal(t, models.GridSmall, s.GridSize)

	assert.Contains(t, run(t, b, out, "size huge"), "invalid settings")
	assert.Equal(t, models.GridSmall, b.pager.Size())

	run(t, b, out, "levels a1 b2")
	assert.Equal(t, []string{"A1", "B2"}, b.settings.VisibleLevels)
}

func TestBoard_CategoryView(t *testing.T) {
	b, out, _ := newTestBoard(t, "")

	got := run(t, b, out, "cat verbs")
	assert.Contains(t, got, "[category verbs]")
	assert.Contains(t, got, "Want")
	assert.Contains(t, run(t, b, out, "next"), "last page")
}

func TestBoard_CustomWords(t *testing.T) {
	b, out, _ := newTestBoard(t, "Grandma\npeople\n\n")
	before := b.cat.Len()

	got := run(t, b, out, "addword")
	assert.Contains(t, got, "synced")
	assert.Equal(t, before+1, b.cat.Len())

	got = run(t, b, out, "custom")
	assert.Contains(t, got, "Grandma")

	assert.Contains(t, run(t, b, out, "words"), "Grandma (people)")
}

func TestBoard_UnknownAndExit(t *testing.T) {
	b, out, _ := newTestBoard(t, "")
	assert.Contains(t, run(t, b, out, "dance"), "Unknown command")
	assert.Contains(t, run(t, b, out, "cat"), "Usage: cat <key>")
	assert.True(t, b.exec(context.Background(), "exit"))
}
