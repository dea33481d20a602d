package repository

import (
	"github.com/bassista/go_catalog/internal/model"
	"github.com/bassista/go_catalog/internal/persistence"
)

// DurableStore is the part of the durable store the repository reads and writes.
type DurableStore interface {
	persistence.CollectionStore
	persistence.OfflineStore
	persistence.DownloadStore
}

// DomainStore is what the domain sync controller needs from the repository.
// Categories use the symmetrical CategoryStore.
type DomainStore interface {
	DomainList() ([]model.Domain, error)
	SyncDomainList(domains []model.Domain) error
}

type CategoryStore interface {
	CategoryList() ([]model.Category, error)
	SyncCategoryList(categories []model.Category) error
}

// Applier applies remote batches to the cache.
type Applier interface {
	Apply(update model.DataCacheUpdate)
}
