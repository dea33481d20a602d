package cache

import (
	"context"

	"github.com/bassista/go_catalog/internal/model"
)

// Lookup is the synchronous point-lookup API of the cache.
type Lookup interface {
	Content(id int) (model.Content, bool)
	Progression(contentID int) (model.Progression, bool)
	Bookmark(contentID int) (model.Bookmark, bool)
	ParentContent(id int) (model.Content, bool)
	ChildProgress(id int) (model.ChildProgress, bool)
	VideoPlaylist(id int) ([]model.CachedVideoPlaybackState, error)
	ContentPersistableState(id int) (model.ContentPersistableState, error)
}

// Streams is the derived-state API. Every stream closes when ctx is done.
type Streams interface {
	ContentSummaryStates(ctx context.Context, ids []int) (<-chan []model.CachedContentSummaryState, error)
	ContentSummaryState(ctx context.Context, id int) (<-chan model.CachedContentSummaryState, error)
	ChildContentsState(ctx context.Context, id int) (<-chan model.ChildContentsState, error)
	ContentDynamicState(ctx context.Context, id int) <-chan model.CachedDynamicContentState
}

// Updater applies batches.
type Updater interface {
	Apply(update model.DataCacheUpdate)
}

// Invalidations publishes which partitions changed.
type Invalidations interface {
	Invalidations(ctx context.Context, categories ...model.Invalidation) <-chan model.Invalidation
}

// DataCache is the cache contract the repository depends on.
type DataCache interface {
	Lookup
	Streams
	Updater
	Invalidations
}
