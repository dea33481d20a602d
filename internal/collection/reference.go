package collection

import (
	"github.com/bassista/go_catalog/internal/model"
	"github.com/bassista/go_catalog/internal/refresh"
	"github.com/bassista/go_catalog/internal/remote"
	"github.com/bassista/go_catalog/internal/repository"
)

const (
	DomainsKey    = "domains"
	CategoriesKey = "categories"
)

// NewDomains builds the controller of the domain list.
func NewDomains(store repository.DomainStore, svc remote.DomainsService, policy *refresh.Policy) (*Controller[model.Domain], error) {
	return New(Source[model.Domain]{
		Name:  DomainsKey,
		Load:  store.DomainList,
		Save:  store.SyncDomainList,
		Fetch: svc.AllDomains,
	}, policy)
}

// NewCategories builds the controller of the category list.
func NewCategories(store repository.CategoryStore, svc remote.CategoriesService, policy *refresh.Policy) (*Controller[model.Category], error) {
	return New(Source[model.Category]{
		Name:  CategoriesKey,
		Load:  store.CategoryList,
		Save:  store.SyncCategoryList,
		Fetch: svc.AllCategories,
	}, policy)
}
