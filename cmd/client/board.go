package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/SymbolBoard/internal/catalog"
	"github.com/atinyakov/SymbolBoard/internal/client/storage"
	"github.com/atinyakov/SymbolBoard/internal/grid"
	"github.com/atinyakov/SymbolBoard/internal/models"
	"github.com/atinyakov/SymbolBoard/internal/morphology"
	"github.com/atinyakov/SymbolBoard/internal/platform/gemini"
	"github.com/atinyakov/SymbolBoard/internal/service"
	"github.com/atinyakov/SymbolBoard/internal/suggest"
)

const helpText = `Commands:
  home | cat <key> | cats | favs | custom   switch view
  next | prev | page <n>                    paginate
  size <small|medium|large>                 change grid size
  levels <A1 B1 ...>                        set visible levels
  ai <on|off>                               toggle external suggestions
  tap <n>                                   add card n of the page to the sentence
  variants <n>                              long-press variants of card n
  fav <n>                                   toggle card n as favorite
  plural <noun> | verb <verb> | neg <text>  morphology
  suggest | say | clear                     sentence
  addword | delword <id> | words            custom words
  editcat <key>                             rename a category, replace its icon
  sync | status | exit`

// board is the interactive board session of one owner.
type board struct {
	owner string
	out   io.Writer
	log   *zap.Logger

	builder    *catalog.Builder
	sources    []catalog.Source
	categories *catalog.Source
	tables     *morphology.Tables

	sync      *service.SyncService
	refresher *suggest.Refresher
	prompter  *storage.Prompter

	cat      *catalog.Catalog
	pager    *grid.Pager
	settings models.UserGridSettings
	sentence []string
	history  []models.Utterance
	now      func() time.Time
}

type boardDeps struct {
	Owner      string
	Out        io.Writer
	Log        *zap.Logger
	Sources    []catalog.Source
	Categories *catalog.Source
	Tables     *morphology.Tables
	Sync       *service.SyncService
	Predictor  suggest.Predictor
	Prompter   *storage.Prompter
}

func newBoard(ctx context.Context, d boardDeps) *board {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Tables == nil {
		d.Tables = morphology.EmptyTables()
	}
	b := &board{
		owner:      d.Owner,
		out:        d.Out,
		log:        d.Log,
		builder:    catalog.NewBuilder(d.Log),
		sources:    d.Sources,
		categories: d.Categories,
		tables:     d.Tables,
		sync:       d.Sync,
		prompter:   d.Prompter,
		now:        time.Now,
	}
	settings, st := b.sync.LoadSettings(ctx, b.owner)
	if !st.OK() {
		fmt.Fprintln(b.out, "settings:", st)
	}
	b.settings = settings
	b.refresher = suggest.NewRefresher(nil, d.Predictor, d.Log, suggest.WithRetryable(gemini.IsRetryable))
	b.rebuild(ctx)
	b.pager = grid.NewPager(b.cat, b.settings)
	return b
}

// rebuild reassembles the catalog from the bundled sources plus the owner's
// custom words.
func (b *board) rebuild(ctx context.Context) {
	sources := append([]catalog.Source{}, b.sources...)
	words, err := b.sync.CustomWords(ctx, b.owner)
	if err != nil {
		b.log.Warn("failed to load custom words", zap.Error(err))
	}
	if len(words) > 0 {
		sources = append(sources, catalog.Source{Name: "custom", Lister: catalog.NewCustomWordSource(words)})
	}
	b.cat = b.builder.Build(ctx, sources, b.categories)
	b.refresher.SetMerger(suggest.NewMerger(b.cat, b.tables))
	if b.pager != nil {
		b.pager.SetCatalog(b.cat)
	}
}

func (b *board) printStatuses(sts ...service.Status) {
	for _, st := range sts {
		fmt.Fprintln(b.out, st)
	}
}

func (b *board) render() {
	dims := b.pager.Dimensions()
	page := b.pager.Current()
	title := b.pager.View().String()
	if b.pager.View() == grid.ViewCategory {
		title += " " + b.pager.Category()
	}
	fmt.Fprintf(b.out, "[%s] page %d/%d (%s %dx%d)\n",
		title, b.pager.Page()+1, b.pager.PageCount(), b.pager.Size(), dims.Rows, dims.Cols)
	for i, c := range page {
		label := "·"
		if c != nil {
			label = c.Label
		}
		fmt.Fprintf(b.out, "%3d %-14s", i, label)
		if (i+1)%dims.Cols == 0 || i == len(page)-1 {
			fmt.Fprintln(b.out)
		}
	}
	if len(b.sentence) > 0 {
		fmt.Fprintln(b.out, "sentence:", strings.Join(b.sentence, " "))
	}
}

// cardAt returns the card at index n of the current page.
func (b *board) cardAt(arg string) (models.Card, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return models.Card{}, fmt.Errorf("not a card number: %q", arg)
	}
	page := b.pager.Current()
	if n < 0 || n >= len(page) || page[n] == nil {
		return models.Card{}, fmt.Errorf("no card at %d", n)
	}
	return *page[n], nil
}

func (b *board) saveSettings(ctx context.Context, s models.UserGridSettings) bool {
	st := b.sync.SaveSettings(ctx, b.owner, s)
	if errors.Is(st.Err, service.ErrInvalidSettings) {
		fmt.Fprintln(b.out, "invalid settings:", st.Err)
		return false
	}
	b.settings = s.Normalize()
	if !st.OK() {
		b.printStatuses(st)
	}
	return true
}

func (b *board) showFavorites(ctx context.Context) {
	favs, err := b.sync.Favorites(ctx, b.owner)
	if err != nil {
		fmt.Fprintln(b.out, "favorites:", err)
		return
	}
	b.pager.ShowFavorites(favs)
}

func (b *board) showCustom(ctx context.Context) {
	words, err := b.sync.CustomWords(ctx, b.owner)
	if err != nil {
		fmt.Fprintln(b.out, "custom words:", err)
		return
	}
	custom := b.builder.Build(ctx, []catalog.Source{{Name: "custom", Lister: catalog.NewCustomWordSource(words)}}, nil)
	b.pager.ShowCustom(custom.Cards())
}

func (b *board) refreshSuggestions(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	cards, err := b.refresher.Refresh(ctx, suggest.Request{
		Sentence:  strings.Join(b.sentence, " "),
		AISupport: b.settings.AISupport,
		History:   b.history,
	})
	if err != nil {
		fmt.Fprintln(b.out, "suggestions:", err)
		return
	}
	labels := make([]string, len(cards))
	for i, c := range cards {
		labels[i] = c.Label
	}
	fmt.Fprintln(b.out, "suggestions:", strings.Join(labels, ", "))
}

// exec runs one command line and reports whether the session should end.
func (b *board) exec(ctx context.Context, line string) (quit bool) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), args[0]))
	need := func(n int, usage string) bool {
		if len(args) < n+1 {
			fmt.Fprintln(b.out, "Usage:", usage)
			return false
		}
		return true
	}

	switch args[0] {
	case "help":
		fmt.Fprintln(b.out, helpText)
		return false
	case "home":
		b.pager.ShowHome()
	case "cat":
		if !need(1, "cat <key>") {
			return false
		}
		b.pager.ShowCategory(args[1])
	case "cats":
		labels := map[string]string{}
		if metas, err := b.sync.Categories(ctx, b.owner); err == nil {
			for _, m := range metas {
				labels[m.Key] = m.Label
			}
		}
		for _, c := range b.cat.Categories() {
			label := c.Label
			if l, ok := labels[c.Key]; ok {
				label = l
			}
			fmt.Fprintf(b.out, "%-14s %s\n", c.Key, label)
		}
		return false
	case "favs":
		b.showFavorites(ctx)
	case "custom":
		b.showCustom(ctx)
	case "next":
		if !b.pager.Next() {
			fmt.Fprintln(b.out, "last page")
		}
	case "prev":
		if !b.pager.Prev() {
			fmt.Fprintln(b.out, "first page")
		}
	case "page":
		if !need(1, "page <n>") {
			return false
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintln(b.out, "Usage: page <n>")
			return false
		}
		b.pager.SetPage(n - 1)
	case "size":
		if !need(1, "size <small|medium|large>") {
			return false
		}
		s := b.settings
		s.GridSize = models.GridSize(strings.ToLower(args[1]))
		if !b.saveSettings(ctx, s) {
			return false
		}
		b.pager.SetSize(b.settings.GridSize)
	case "levels":
		if !need(1, "levels <A1 A2 ...>") {
			return false
		}
		s := b.settings
		s.VisibleLevels = args[1:]
		if !b.saveSettings(ctx, s) {
			return false
		}
		b.pager.SetLevels(b.settings.VisibleLevels)
	case "ai":
		if !need(1, "ai <on|off>") {
			return false
		}
		s := b.settings
		s.AISupport = args[1] == "on"
		b.saveSettings(ctx, s)
		fmt.Fprintln(b.out, "ai support:", b.settings.AISupport)
		return false
	case "tap":
		if !need(1, "tap <n>") {
			return false
		}
		card, err := b.cardAt(args[1])
		if err != nil {
			fmt.Fprintln(b.out, err)
			return false
		}
		b.sentence = append(b.sentence, strings.ToLower(card.Label))
		b.refreshSuggestions(ctx)
	case "variants":
		if !need(1, "variants <n>") {
			return false
		}
		card, err := b.cardAt(args[1])
		if err != nil {
			fmt.Fprintln(b.out, err)
			return false
		}
		fmt.Fprintln(b.out, strings.Join(morphology.Variants(card, b.tables), " | "))
		return false
	case "fav":
		if !need(1, "fav <n>") {
			return false
		}
		card, err := b.cardAt(args[1])
		if err != nil {
			fmt.Fprintln(b.out, err)
			return false
		}
		on, st := b.sync.ToggleFavorite(ctx, b.owner, card.Label)
		fmt.Fprintf(b.out, "%s favorite: %v\n", card.Label, on)
		if !st.OK() {
			b.printStatuses(st)
		}
		if b.pager.View() == grid.ViewFavorites {
			if favs, err := b.sync.Favorites(ctx, b.owner); err == nil {
				b.pager.UpdateFavorites(favs)
			}
		}
	case "plural":
		if !need(1, "plural <noun>") {
			return false
		}
		fmt.Fprintln(b.out, morphology.SuggestPlural(rest, b.tables.Plurals))
		return false
	case "verb":
		if !need(1, "verb <verb>") {
			return false
		}
		f := morphology.GetVerbForms(rest, b.tables.Verbs)
		fmt.Fprintf(b.out, "%s | %s | %s | %s\n", f.Base, f.Past, f.Perfect, strings.Join(f.Negatives, ", "))
		return false
	case "neg":
		if !need(1, "neg <text>") {
			return false
		}
		fmt.Fprintln(b.out, morphology.NegativeIconFor(rest))
		return false
	case "suggest":
		b.refreshSuggestions(ctx)
		return false
	case "say":
		text := strings.Join(b.sentence, " ")
		if text == "" {
			return false
		}
		fmt.Fprintln(b.out, ">>", text)
		b.history = append(b.history, models.Utterance{Text: text, Timestamp: b.now().UnixMilli(), IsLocal: true})
		b.sentence = nil
		return false
	case "clear":
		b.sentence = nil
	case "addword":
		w, err := b.prompter.PromptCustomWord()
		if err != nil {
			fmt.Fprintln(b.out, err)
			return false
		}
		_, st := b.sync.SaveCustomWord(ctx, b.owner, w)
		b.printStatuses(st)
		b.rebuild(ctx)
	case "delword":
		if !need(1, "delword <id>") {
			return false
		}
		b.printStatuses(b.sync.DeleteCustomWord(ctx, b.owner, args[1]))
		b.rebuild(ctx)
	case "words":
		words, err := b.sync.CustomWords(ctx, b.owner)
		if err != nil {
			fmt.Fprintln(b.out, err)
			return false
		}
		for _, w := range words {
			fmt.Fprintf(b.out, "%s  %s (%s)\n", w.ID, w.Label, w.Category)
		}
		return false
	case "editcat":
		if !need(1, "editcat <key>") {
			return false
		}
		edit, err := b.prompter.PromptCategoryEdit(args[1])
		if err != nil {
			fmt.Fprintln(b.out, err)
			return false
		}
		b.printStatuses(b.sync.SaveCategory(ctx, b.owner, edit)...)
		return false
	case "sync":
		pending := storage.SyncOnce(ctx, b.sync, b.owner, b.log)
		fmt.Fprintf(b.out, "pending: %d\n", pending)
		return false
	case "status":
		n, err := b.sync.Pending(ctx, b.owner)
		if err != nil {
			fmt.Fprintln(b.out, err)
			return false
		}
		fmt.Fprintf(b.out, "pending: %d\n", n)
		return false
	case "exit":
		fmt.Fprintln(b.out, "Bye")
		return true
	default:
		fmt.Fprintln(b.out, "Unknown command. Type 'help' for a list of commands.")
		return false
	}
	b.render()
	return false
}
