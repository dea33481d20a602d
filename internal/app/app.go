package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bassista/go_catalog/internal/cache"
	"github.com/bassista/go_catalog/internal/collection"
	"github.com/bassista/go_catalog/internal/config"
	"github.com/bassista/go_catalog/internal/logger"
	"github.com/bassista/go_catalog/internal/model"
	"github.com/bassista/go_catalog/internal/persistence"
	"github.com/bassista/go_catalog/internal/refresh"
	"github.com/bassista/go_catalog/internal/remote"
	"github.com/bassista/go_catalog/internal/repository"
	"github.com/bassista/go_catalog/internal/scheduler"
	"golang.org/x/sync/errgroup"
)

// App is the application container (immutable dependencies + lifecycle context).
// It is not a request context; handlers should still use gin's request context,
// except for fetches that must outlive the request.
type App struct {
	Config *config.Config
	Store  persistence.Store
	Cache  *cache.Store
	Repo   *repository.Repository
	Remote remote.Service
	Spans  *refresh.Spans

	Domains    *collection.Controller[model.Domain]
	Categories *collection.Controller[model.Category]
	Listing    *collection.Listing
	Details    *collection.DetailsLoader

	BaseCtx context.Context
	Cancel  context.CancelFunc

	shutdownOnce sync.Once
	// closed once the background refresh started by StartWatchers returns
	bgDone <-chan struct{}
}

func New(cfg *config.Config, store persistence.Store, svc remote.Service) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if store == nil {
		return nil, errors.New("store is nil")
	}
	if svc == nil {
		return nil, errors.New("remote service is nil")
	}

	domainsSpan, err := refresh.ParseSpan(cfg.Sync.DomainsSpan)
	if err != nil {
		return nil, fmt.Errorf("domains: %w", err)
	}
	categoriesSpan, err := refresh.ParseSpan(cfg.Sync.CategoriesSpan)
	if err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}

	c := cache.NewStore()
	repo, err := repository.New(c, store)
	if err != nil {
		return nil, err
	}

	spans := refresh.NewSpans(cfg.Sync.ShortSpan, cfg.Sync.LongSpan)
	domains, err := collection.NewDomains(repo, svc,
		refresh.NewPolicy(collection.DomainsKey, domainsSpan, spans, store))
	if err != nil {
		return nil, err
	}
	categories, err := collection.NewCategories(repo, svc,
		refresh.NewPolicy(collection.CategoriesKey, categoriesSpan, spans, store))
	if err != nil {
		return nil, err
	}
	listing, err := collection.NewListing(svc, repo, cfg.Sync.PageSize)
	if err != nil {
		return nil, err
	}
	details, err := collection.NewDetailsLoader(svc, repo)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		Config:     cfg,
		Store:      store,
		Cache:      c,
		Repo:       repo,
		Remote:     svc,
		Spans:      spans,
		Domains:    domains,
		Categories: categories,
		Listing:    listing,
		Details:    details,
		BaseCtx:    ctx,
		Cancel:     cancel,
	}, nil
}

// StartWatchers starts the config file watcher and the background refresh of
// the reference collections.
func (a *App) StartWatchers() {
	if config.Watch(a.ApplyConfig) {
		logger.WithComponent("app").Debug("watching config file for span and log level changes")
	}

	if a.Config.Sync.SchedulingEnabled {
		s := scheduler.NewRefreshScheduler(a.Config.Sync.SchedulingPoll, a.Domains, a.Categories)
		a.bgDone = s.Start(a.BaseCtx)
		return
	}

	done := make(chan struct{})
	a.bgDone = done
	go func() {
		defer close(done)
		if err := a.SyncAll(a.BaseCtx); err != nil {
			logger.WithComponent("app").Warnf("initial sync incomplete: %v", err)
		}
	}()
}

// ApplyConfig applies the hot-reloadable part of cfg.
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Spans.Set(cfg.Sync.ShortSpan, cfg.Sync.LongSpan)
	if err := logger.SetLevel(cfg.Misc.LogLevel); err != nil {
		logger.WithComponent("app").Warn(err)
	}
	logger.WithComponent("app").Infof("refresh spans set to short=%s long=%s", cfg.Sync.ShortSpan, cfg.Sync.LongSpan)
}

// SyncAll populates every reference collection and waits for their fetches.
// Collections sync independently: a failure in one leaves the others running.
// It fails if any collection ends in the failed state.
func (a *App) SyncAll(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return populate(ctx, a.Domains) })
	g.Go(func() error { return populate(ctx, a.Categories) })
	return g.Wait()
}

func populate[T any](ctx context.Context, c *collection.Controller[T]) error {
	c.Populate(ctx)
	c.Wait()
	if s := c.Snapshot(); s.State == model.DataStateFailed {
		return fmt.Errorf("%s: %s", c.Name(), s.Error)
	}
	return nil
}

// Shutdown cancels background work, waits for in-flight fetches and closes the store.
func (a *App) Shutdown() {
	if a == nil || a.Cancel == nil {
		return
	}
	a.shutdownOnce.Do(func() {
		a.Cancel()
		if a.bgDone != nil {
			<-a.bgDone
		}
		a.Domains.Wait()
		a.Categories.Wait()
		a.Listing.Wait()
		if err := a.Store.Close(); err != nil {
			logger.WithComponent("app").Errorf("closing store: %v", err)
		}
	})
}
