// Package main runs the interactive symbol board: it builds the card catalog
// from asset directories, keeps settings, favorites, category edits and
// custom words in a local SQLite store, and syncs them with the records
// server.
package main

import (
	"bufio"
	"cmp"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/atinyakov/SymbolBoard/internal/catalog"
	"github.com/atinyakov/SymbolBoard/internal/client/storage"
	"github.com/atinyakov/SymbolBoard/internal/config"
	"github.com/atinyakov/SymbolBoard/internal/db"
	"github.com/atinyakov/SymbolBoard/internal/logger"
	"github.com/atinyakov/SymbolBoard/internal/models"
	"github.com/atinyakov/SymbolBoard/internal/morphology"
	"github.com/atinyakov/SymbolBoard/internal/platform/gemini"
	"github.com/atinyakov/SymbolBoard/internal/service"
	"github.com/atinyakov/SymbolBoard/internal/suggest"
)

var (
	version   string
	buildDate string
)

// repl runs the interactive shell loop until exit or end of input.
func repl(ctx context.Context, b *board, scanner *bufio.Scanner) {
	b.render()
	for {
		fmt.Fprint(b.out, "board> ")
		if !scanner.Scan() {
			break
		}
		if b.exec(ctx, scanner.Text()) {
			return
		}
	}
}

// assetSources turns the configured asset directories into card sources.
// Each directory's base name is its source name.
func assetSources(dirs []string) []catalog.Source {
	sources := make([]catalog.Source, 0, len(dirs))
	for _, dir := range dirs {
		sources = append(sources, catalog.Source{
			Name:   filepath.Base(filepath.Clean(dir)),
			Lister: catalog.NewDirSource(dir),
		})
	}
	return sources
}

// startupKeys lists the owner's remote records so records created on another
// device are reconciled too. Settings are always included.
func startupKeys(ctx context.Context, remote *storage.RemoteClient, owner string, log *zap.Logger) []string {
	keys, err := remote.RemoteKeys(ctx, owner, "")
	if err != nil {
		log.Warn("failed to list remote records", zap.Error(err))
	}
	return append([]string{string(models.KindSettings)}, keys...)
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "-version" {
		fmt.Printf("SymbolBoard Client\nVersion: %s\nBuild Date: %s\n", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))
		return
	}

	opts, err := config.ParseClient(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log := logger.New()
	if err := log.Init(opts.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Log.Sync() }()
	zapLogger := log.Log.With(zap.String("owner", opts.Owner))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sqliteDB, err := db.InitSQLite(opts.DatabasePath)
	if err != nil {
		zapLogger.Fatal("cannot open local store", zap.Error(err))
	}
	defer sqliteDB.Close()

	httpClient, err := storage.NewHTTPClient(opts.ClientCert, opts.ClientKey, opts.CA)
	if err != nil {
		zapLogger.Fatal("cannot configure HTTP client", zap.Error(err))
	}
	remote := storage.NewRemoteClient(httpClient, opts.ServerURL)
	local := storage.NewSQLiteStore(sqliteDB)
	syncService := service.NewSyncService(local, remote, zapLogger)

	tables := morphology.EmptyTables()
	if opts.Overrides != "" {
		if tables, err = morphology.LoadTablesFile(opts.Overrides); err != nil {
			zapLogger.Fatal("cannot load overrides", zap.Error(err))
		}
		if len(tables.Skipped) > 0 {
			zapLogger.Warn("skipped malformed overrides", zap.Strings("entries", tables.Skipped))
		}
	}

	var predictor suggest.Predictor
	if opts.GeminiAPIKey != "" {
		gc, err := gemini.NewClient(ctx, opts.GeminiAPIKey, opts.GeminiModel)
		if err != nil {
			zapLogger.Warn("external suggestions disabled", zap.Error(err))
		} else {
			defer gc.Close()
			predictor = gc
		}
	}

	// Remote state wins for records that exist remotely; everything else
	// local is pushed.
	for _, st := range syncService.ReconcileAll(ctx, opts.Owner, startupKeys(ctx, remote, opts.Owner, zapLogger)...) {
		if !st.OK() {
			fmt.Println("sync:", st)
		}
	}
	storage.StartAutoSync(ctx, syncService, opts.Owner, opts.SyncInterval.Std(), zapLogger)

	var categories *catalog.Source
	if opts.CategoryDir != "" {
		categories = &catalog.Source{Name: "categories", Lister: catalog.NewDirSource(opts.CategoryDir)}
	}

	scanner := bufio.NewScanner(os.Stdin)
	b := newBoard(ctx, boardDeps{
		Owner:      opts.Owner,
		Out:        os.Stdout,
		Log:        zapLogger,
		Sources:    assetSources(opts.AssetDirs),
		Categories: categories,
		Tables:     tables,
		Sync:       syncService,
		Predictor:  predictor,
		Prompter:   storage.NewPrompter(scanner, os.Stdout),
	})
	fmt.Printf("SymbolBoard %s, %d cards. Type 'help' for commands.\n", cmp.Or(version, "dev"), b.cat.Len())
	repl(ctx, b, scanner)

	if n, err := syncService.Pending(context.Background(), opts.Owner); err == nil && n > 0 {
		fmt.Printf("%d %s not synced yet; they will be pushed next time.\n", n, plural(n, "change"))
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
