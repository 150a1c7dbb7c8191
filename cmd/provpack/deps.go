package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ersonp/provpack/internal/application/handlers"
	"github.com/ersonp/provpack/internal/domain/ports"
	"github.com/ersonp/provpack/internal/domain/provpack"
	"github.com/ersonp/provpack/internal/domain/services"
	"github.com/ersonp/provpack/internal/domain/validation"
	"github.com/ersonp/provpack/internal/infrastructure/config"
	mockextractor "github.com/ersonp/provpack/internal/infrastructure/extractor/mock"
	openaiextractor "github.com/ersonp/provpack/internal/infrastructure/extractor/openai"
	"github.com/ersonp/provpack/internal/infrastructure/logger"
	"github.com/ersonp/provpack/internal/infrastructure/pagestore"
	"github.com/ersonp/provpack/internal/infrastructure/relationaldb/sqlite"
	"github.com/ersonp/provpack/internal/infrastructure/summary"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - services and repositories are internal.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	Validator *validation.Validator
	Packets   *handlers.PacketHandler
	Reviews   *handlers.ReviewHandler
	Exports   *handlers.ExportHandler
	Cases     *handlers.CaseHandler
}

// internalDeps holds all dependencies including low-level components.
// Used internally by helper functions.
type internalDeps struct {
	Deps
	basePath string
	store    *sqlite.Repository
	pages    ports.PageSource
	fsPages  *pagestore.FSStore
}

// projectDir returns the --dir flag or the working directory.
func projectDir() (string, error) {
	if globalDir != "" {
		return globalDir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	return cwd, nil
}

// withDeps loads config and builds dependencies, then calls the provided function.
// It handles cleanup automatically.
func withDeps(ctx context.Context, fn func(*Deps) error) error {
	return withInternalDeps(ctx, func(d *internalDeps) error {
		return fn(&d.Deps)
	})
}

// withInternalDeps provides access to all dependencies including low-level components.
func withInternalDeps(ctx context.Context, fn func(*internalDeps) error) error {
	basePath, err := projectDir()
	if err != nil {
		return err
	}

	cfg, err := config.Load(basePath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	store, err := sqlite.NewRepository(config.SQLiteConfig{Path: cfg.DatabasePath(basePath)})
	if err != nil {
		return fmt.Errorf("creating sqlite repository: %w", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring sqlite schema: %w", err)
	}

	pages, fsPages, closePages, err := newPageSource(ctx, cfg, basePath)
	if err != nil {
		return fmt.Errorf("creating page source: %w", err)
	}
	defer closePages()

	extractor, err := newExtractor(cfg, pages)
	if err != nil {
		return fmt.Errorf("creating extractor: %w", err)
	}

	validator, err := validation.New()
	if err != nil {
		return fmt.Errorf("compiling schemas: %w", err)
	}

	locator := services.PacketLocator{
		RepoTag:        cfg.Archive.RepoTag,
		KindTag:        cfg.Archive.KindTag,
		RefPrefix:      cfg.Archive.RefPrefix,
		DefaultYear:    cfg.Archive.DefaultYear,
		SuggestedPages: cfg.Archive.SuggestedPages,
	}
	builder := services.NewCaseBuilder(services.WithSourceRepo(cfg.Archive.SourceRepo))
	assembler := provpack.NewAssembler(pages, summary.NewRenderer(),
		provpack.WithBuildOptions(provpack.Options{Validator: validator}))

	deps := &internalDeps{
		Deps: Deps{
			Config:    cfg,
			Logger:    log,
			Validator: validator,
			Packets:   handlers.NewPacketHandler(locator, pages, extractor, validator),
			Reviews:   handlers.NewReviewHandler(builder, validator, store, log),
			Exports:   handlers.NewExportHandler(store, assembler, log),
			Cases:     handlers.NewCaseHandler(store),
		},
		basePath: basePath,
		store:    store,
		pages:    pages,
		fsPages:  fsPages,
	}

	return fn(deps)
}

// withFSPages provides the local page store for commands that write pages.
func withFSPages(ctx context.Context, fn func(*pagestore.FSStore) error) error {
	return withInternalDeps(ctx, func(d *internalDeps) error {
		if d.fsPages == nil {
			return fmt.Errorf("pages backend %q is read-only; use %q to add pages", d.Config.Pages.Backend, config.PagesBackendFS)
		}
		return fn(d.fsPages)
	})
}

// newPageSource builds the configured page backend, wrapped in a cache when
// pages.cache_ttl is positive. The FSStore is returned separately when the
// fs backend is selected.
func newPageSource(ctx context.Context, cfg *config.Config, basePath string) (ports.PageSource, *pagestore.FSStore, func(), error) {
	var (
		src     ports.PageSource
		fsStore *pagestore.FSStore
		closeFn = func() {}
	)

	switch cfg.Pages.Backend {
	case config.PagesBackendFS:
		store, err := pagestore.NewFSStore(cfg.PagesDir(basePath))
		if err != nil {
			return nil, nil, nil, err
		}
		src, fsStore = store, store
	case config.PagesBackendGCS:
		store, err := pagestore.NewGCSStore(ctx, cfg.Pages.Bucket, cfg.Pages.Prefix)
		if err != nil {
			return nil, nil, nil, err
		}
		src = store
		closeFn = func() { _ = store.Close() }
	default:
		return nil, nil, nil, fmt.Errorf("unknown pages backend %q", cfg.Pages.Backend)
	}

	if cfg.Pages.CacheTTL > 0 {
		src = pagestore.NewCachedStore(src, cfg.Pages.CacheTTL)
	}
	return src, fsStore, closeFn, nil
}

// newExtractor builds the configured field extractor.
func newExtractor(cfg *config.Config, pages ports.PageSource) (ports.Extractor, error) {
	switch cfg.Extractor.Provider {
	case config.ExtractorMock:
		return mockextractor.New(), nil
	case config.ExtractorOpenAI:
		return openaiextractor.NewClient(cfg.Extractor, pages)
	default:
		return nil, errors.New("unknown extractor provider " + cfg.Extractor.Provider)
	}
}
