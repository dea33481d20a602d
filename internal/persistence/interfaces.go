package persistence

import (
	"context"
	"time"

	"github.com/bassista/go_catalog/internal/model"
)

// CollectionStore holds the fully-replaced reference collections.
type CollectionStore interface {
	DomainList() ([]model.Domain, error)
	SyncDomains(domains []model.Domain) error
	Domains(ids []int) ([]model.Domain, error)

	CategoryList() ([]model.Category, error)
	SyncCategories(categories []model.Category) error
	Categories(ids []int) ([]model.Category, error)
}

// OfflineStore holds content subtrees saved for offline use.
// Lookups return nil with no error when nothing is stored.
type OfflineStore interface {
	PersistContent(state model.ContentPersistableState) error
	DownloadedContent(id int) (*model.Content, error)
	ChildContentsForDownloadedContent(id int) (*model.ChildContents, error)
}

// DownloadStore holds download records and streams their changes.
type DownloadStore interface {
	Download(contentID int) (*model.Download, error)
	SaveDownload(d model.Download) (model.Download, error)
	DeleteDownload(contentID int) error
	// WatchDownload emits the current record first (nil when absent), then every change,
	// until ctx is done.
	WatchDownload(ctx context.Context, contentID int) (<-chan *model.Download, error)
}

// RefreshStore persists last-refreshed timestamps by key.
type RefreshStore interface {
	LastRefreshed(key string) (time.Time, bool, error)
	SetLastRefreshed(key string, at time.Time) error
}

// Store is the durable store used by the repository and the sync controllers.
type Store interface {
	CollectionStore
	OfflineStore
	DownloadStore
	RefreshStore
	Close() error
}
