package remote

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bassista/go_catalog/internal/logger"
	"github.com/bassista/go_catalog/internal/model"
)

// MemoryService serves a fixed catalogue from memory. It backs local development
// and tests, with optional latency and failure injection.
type MemoryService struct {
	mu         sync.RWMutex
	domains    []model.Domain
	categories []model.Category
	details    map[int]model.DataCacheUpdate
	listing    []model.Content
	latency    time.Duration
	failWith   error
	calls      map[string]int
}

var _ Service = (*MemoryService)(nil)

func NewMemoryService() *MemoryService {
	return &MemoryService{
		details: map[int]model.DataCacheUpdate{},
		calls:   map[string]int{},
	}
}

// NewMemoryServiceWithFixtures returns a MemoryService with a small sample catalogue.
func NewMemoryServiceWithFixtures() *MemoryService {
	m := NewMemoryService()
	m.SetDomains([]model.Domain{
		{ID: 1, Name: "iOS & Swift", Slug: "ios", Level: model.DomainLevelProduction, Ordinal: 1},
		{ID: 2, Name: "Android & Kotlin", Slug: "android", Level: model.DomainLevelProduction, Ordinal: 2},
		{ID: 3, Name: "Server-Side Swift", Slug: "sss", Level: model.DomainLevelArchive, Ordinal: 3},
	})
	m.SetCategories([]model.Category{
		{ID: 1, Name: "Architecture", Ordinal: 1},
		{ID: 2, Name: "Testing", Ordinal: 2},
	})

	group := 100
	released := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	collection := model.Content{ID: 1, Name: "Concurrency in Depth", ContentType: model.ContentTypeCollection, ReleasedAt: released, Duration: 3600}
	screencast := model.Content{ID: 20, Name: "Swift Testing", ContentType: model.ContentTypeScreencast, ReleasedAt: released, Duration: 600, Free: true}
	episodes := []model.Content{
		{ID: 10, Name: "Introduction", ContentType: model.ContentTypeEpisode, GroupID: &group, Ordinal: 1, Duration: 300},
		{ID: 11, Name: "Tasks", ContentType: model.ContentTypeEpisode, GroupID: &group, Ordinal: 2, Duration: 900},
	}
	m.SetContentDetails(1, model.DataCacheUpdate{
		Contents:          append([]model.Content{collection}, episodes...),
		Groups:            []model.Group{{ID: group, ContentID: 1, Name: "Basics", Ordinal: 1}},
		ContentDomains:    []model.ContentDomain{{ContentID: 1, DomainID: 1}},
		ContentCategories: []model.ContentCategory{{ContentID: 1, CategoryID: 1}},
	})
	m.SetContentDetails(20, model.DataCacheUpdate{
		Contents:          []model.Content{screencast},
		ContentDomains:    []model.ContentDomain{{ContentID: 20, DomainID: 1}},
		ContentCategories: []model.ContentCategory{{ContentID: 20, CategoryID: 2}},
	})
	m.SetListing([]model.Content{collection, screencast})
	return m
}

func (m *MemoryService) SetDomains(domains []model.Domain) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.domains = append([]model.Domain(nil), domains...)
}

func (m *MemoryService) SetCategories(categories []model.Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories = append([]model.Category(nil), categories...)
}

// SetContentDetails registers the batch returned for ContentDetails(id).
// The batch must contain the content id itself.
func (m *MemoryService) SetContentDetails(id int, update model.DataCacheUpdate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.details[id] = update
}

func (m *MemoryService) SetListing(contents []model.Content) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listing = append([]model.Content(nil), contents...)
}

// SetLatency delays every call by d.
func (m *MemoryService) SetLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latency = d
}

// FailWith makes every call fail with err until it is reset with nil.
func (m *MemoryService) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

// Calls returns how many times op was invoked.
func (m *MemoryService) Calls(op string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[op]
}

func (m *MemoryService) enter(ctx context.Context, op string) error {
	m.mu.Lock()
	m.calls[op]++
	latency, failWith := m.latency, m.failWith
	m.mu.Unlock()

	logger.WithComponent("memory-remote").Debugf("%s called", op)
	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return failWith
}

func (m *MemoryService) AllDomains(ctx context.Context) ([]model.Domain, error) {
	if err := m.enter(ctx, "domains"); err != nil {
		return nil, &model.FetchError{Source: "domains", Err: err}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Domain(nil), m.domains...), nil
}

func (m *MemoryService) AllCategories(ctx context.Context) ([]model.Category, error) {
	if err := m.enter(ctx, "categories"); err != nil {
		return nil, &model.FetchError{Source: "categories", Err: err}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Category(nil), m.categories...), nil
}

func (m *MemoryService) ContentDetails(ctx context.Context, id int) (model.Content, model.DataCacheUpdate, error) {
	source := fmt.Sprintf("content %d", id)
	if err := m.enter(ctx, "details"); err != nil {
		return model.Content{}, model.DataCacheUpdate{}, &model.FetchError{Source: source, Err: err}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	update, ok := m.details[id]
	if !ok {
		return model.Content{}, model.DataCacheUpdate{}, &model.FetchError{Source: source, Err: model.NotFoundError("content", id)}
	}
	for _, c := range update.Contents {
		if c.ID == id {
			return c, update, nil
		}
	}
	return model.Content{}, model.DataCacheUpdate{}, &model.FetchError{Source: source, Err: model.NotFoundError("content", id)}
}

func (m *MemoryService) AllContents(ctx context.Context, params PageParams) (ContentsPage, error) {
	if err := m.enter(ctx, "contents"); err != nil {
		return ContentsPage{}, &model.FetchError{Source: "contents", Err: err}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	number, size := params.Number, params.Size
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = len(m.listing)
	}
	start := (number - 1) * size
	if start > len(m.listing) {
		start = len(m.listing)
	}
	end := start + size
	if end > len(m.listing) {
		end = len(m.listing)
	}

	page := ContentsPage{
		Contents:         append([]model.Content(nil), m.listing[start:end]...),
		TotalResultCount: len(m.listing),
	}
	page.Update.Contents = page.Contents
	for _, c := range page.Contents {
		if details, ok := m.details[c.ID]; ok {
			page.Update.ContentDomains = append(page.Update.ContentDomains, details.ContentDomains...)
			page.Update.ContentCategories = append(page.Update.ContentCategories, details.ContentCategories...)
		}
	}
	return page, nil
}
