package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bassista/go_catalog/internal/cache"
	"github.com/bassista/go_catalog/internal/failure"
	"github.com/bassista/go_catalog/internal/logger"
	"github.com/bassista/go_catalog/internal/model"
)

const component = "repository"

// Repository joins the in-memory cache with the durable store. Reads that only
// need cached data stay in memory; domains, categories and downloads come from
// the store.
type Repository struct {
	cache cache.DataCache
	store DurableStore
}

var (
	_ DomainStore   = (*Repository)(nil)
	_ CategoryStore = (*Repository)(nil)
	_ Applier       = (*Repository)(nil)
)

func New(c cache.DataCache, store DurableStore) (*Repository, error) {
	if c == nil {
		return nil, errors.New("cache is nil")
	}
	if store == nil {
		return nil, errors.New("durable store is nil")
	}
	return &Repository{cache: c, store: store}, nil
}

func (r *Repository) Apply(update model.DataCacheUpdate) {
	r.cache.Apply(update)
}

// ContentSummaryStates streams the summaries of ids with their domains and
// categories resolved from the durable store.
func (r *Repository) ContentSummaryStates(ctx context.Context, ids []int) (<-chan []model.ContentSummaryState, error) {
	cached, err := r.cache.ContentSummaryStates(ctx, ids)
	if err != nil {
		return nil, err
	}
	return mapStream(ctx, cached, func(states []model.CachedContentSummaryState) []model.ContentSummaryState {
		out := make([]model.ContentSummaryState, 0, len(states))
		for _, s := range states {
			out = append(out, r.enrichSummary(s))
		}
		return out
	}), nil
}

func (r *Repository) ContentSummaryState(ctx context.Context, id int) (<-chan model.ContentSummaryState, error) {
	cached, err := r.cache.ContentSummaryState(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapStream(ctx, cached, r.enrichSummary), nil
}

func (r *Repository) ChildContentsState(ctx context.Context, id int) (<-chan model.ChildContentsState, error) {
	return r.cache.ChildContentsState(ctx, id)
}

// ContentDynamicState combines the cached progression and bookmark of id with
// its download record. It emits once both sources have produced a value and
// then only when the combined value changes.
func (r *Repository) ContentDynamicState(ctx context.Context, id int) (<-chan model.DynamicContentState, error) {
	downloads, err := r.store.WatchDownload(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("watch download of content %d: %w", id, err)
	}
	return combineDynamic(ctx, r.cache.ContentDynamicState(ctx, id), downloads), nil
}

func (r *Repository) ContentPersistableState(id int) (model.ContentPersistableState, error) {
	state, err := r.cache.ContentPersistableState(id)
	if err != nil {
		return model.ContentPersistableState{}, model.NotFoundError("content", id)
	}
	return state, nil
}

// PersistContentForOffline writes the cached subtree of id to the durable store.
func (r *Repository) PersistContentForOffline(id int) error {
	state, err := r.ContentPersistableState(id)
	if err != nil {
		return err
	}
	return r.store.PersistContent(state)
}

// Playlist returns the cached playlist of id with the download of each item.
// A download that cannot be read is treated as absent.
func (r *Repository) Playlist(id int) ([]model.VideoPlaybackState, error) {
	cached, err := r.cache.VideoPlaylist(id)
	if err != nil {
		return nil, err
	}

	playlist := make([]model.VideoPlaybackState, 0, len(cached))
	for _, item := range cached {
		download, err := r.store.Download(item.Content.ID)
		if err != nil {
			failure.Load(component, err).Log()
			download = nil
		}
		playlist = append(playlist, model.VideoPlaybackState{
			Content:     item.Content,
			Progression: item.Progression,
			Download:    download,
		})
	}
	return playlist, nil
}

func (r *Repository) Content(id int) (model.Content, bool) {
	return r.cache.Content(id)
}

func (r *Repository) Progression(contentID int) (model.Progression, bool) {
	return r.cache.Progression(contentID)
}

func (r *Repository) Bookmark(contentID int) (model.Bookmark, bool) {
	return r.cache.Bookmark(contentID)
}

func (r *Repository) ParentContent(id int) (model.Content, bool) {
	return r.cache.ParentContent(id)
}

func (r *Repository) ChildProgress(id int) (model.ChildProgress, bool) {
	return r.cache.ChildProgress(id)
}

func (r *Repository) DomainList() ([]model.Domain, error) {
	return r.store.DomainList()
}

func (r *Repository) SyncDomainList(domains []model.Domain) error {
	return r.store.SyncDomains(domains)
}

func (r *Repository) CategoryList() ([]model.Category, error) {
	return r.store.CategoryList()
}

func (r *Repository) SyncCategoryList(categories []model.Category) error {
	return r.store.SyncCategories(categories)
}

func (r *Repository) Download(contentID int) (*model.Download, error) {
	return r.store.Download(contentID)
}

func (r *Repository) SaveDownload(d model.Download) (model.Download, error) {
	return r.store.SaveDownload(d)
}

func (r *Repository) DeleteDownload(contentID int) error {
	return r.store.DeleteDownload(contentID)
}

// LoadDownloadedChildContentsIntoCache copies a downloaded content and its
// children from the durable store into the cache. Nothing is applied when
// either is missing.
func (r *Repository) LoadDownloadedChildContentsIntoCache(id int) error {
	content, err := r.store.DownloadedContent(id)
	if err != nil {
		return err
	}
	children, err := r.store.ChildContentsForDownloadedContent(id)
	if err != nil {
		return err
	}
	if content == nil || children == nil {
		return model.NotFoundError("downloaded content", id)
	}

	r.cache.Apply(model.DataCacheUpdate{
		Contents: append(append([]model.Content{}, children.Contents...), *content),
		Groups:   children.Groups,
	})
	logger.WithContent(component, id).Debugf("loaded %d downloaded children into cache", len(children.Contents))
	return nil
}

// CachedBookmarksInvalidated emits a signal whenever a batch changed bookmarks.
func (r *Repository) CachedBookmarksInvalidated(ctx context.Context) <-chan struct{} {
	return signals(ctx, r.cache.Invalidations(ctx, model.InvalidationBookmarks))
}

// CachedProgressionsInvalidated emits a signal whenever a batch changed progressions.
func (r *Repository) CachedProgressionsInvalidated(ctx context.Context) <-chan struct{} {
	return signals(ctx, r.cache.Invalidations(ctx, model.InvalidationProgressions))
}

// Invalidations exposes the raw invalidation feed restricted to categories.
func (r *Repository) Invalidations(ctx context.Context, categories ...model.Invalidation) <-chan model.Invalidation {
	return r.cache.Invalidations(ctx, categories...)
}

func (r *Repository) enrichSummary(s model.CachedContentSummaryState) model.ContentSummaryState {
	domainIDs := make([]int, 0, len(s.ContentDomains))
	for _, rel := range s.ContentDomains {
		domainIDs = append(domainIDs, rel.DomainID)
	}
	categoryIDs := make([]int, 0, len(s.ContentCategories))
	for _, rel := range s.ContentCategories {
		categoryIDs = append(categoryIDs, rel.CategoryID)
	}

	domains, err := r.store.Domains(domainIDs)
	if err != nil {
		failure.Load(component, err).Log()
		domains = []model.Domain{}
	}
	categories, err := r.store.Categories(categoryIDs)
	if err != nil {
		failure.Load(component, err).Log()
		categories = []model.Category{}
	}

	return model.ContentSummaryState{
		Content:       s.Content,
		Domains:       domains,
		Categories:    categories,
		ParentContent: s.ParentContent,
	}
}
