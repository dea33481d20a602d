package remote

import (
	"context"

	"github.com/bassista/go_catalog/internal/model"
)

type DomainsService interface {
	AllDomains(ctx context.Context) ([]model.Domain, error)
}

type CategoriesService interface {
	AllCategories(ctx context.Context) ([]model.Category, error)
}

// ContentsService fetches catalogue contents. Every call returns the cache batch
// that makes the result browsable.
type ContentsService interface {
	ContentDetails(ctx context.Context, id int) (model.Content, model.DataCacheUpdate, error)
	AllContents(ctx context.Context, params PageParams) (ContentsPage, error)
}

// Service is the full remote source of truth.
type Service interface {
	DomainsService
	CategoriesService
	ContentsService
}

// PageParams selects a 1-based page of a listing.
type PageParams struct {
	Number int `json:"number"`
	Size   int `json:"size"`
}

type ContentsPage struct {
	Contents         []model.Content       `json:"contents"`
	Update           model.DataCacheUpdate `json:"cache_update"`
	TotalResultCount int                   `json:"total_result_count"`
}

// IDs returns the content ids of the page in order.
func (p ContentsPage) IDs() []int {
	ids := make([]int, 0, len(p.Contents))
	for _, c := range p.Contents {
		ids = append(ids, c.ID)
	}
	return ids
}
