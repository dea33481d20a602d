package collection

import (
	"context"
	"errors"
	"sync"

	"github.com/bassista/go_catalog/internal/failure"
	"github.com/bassista/go_catalog/internal/logger"
	"github.com/bassista/go_catalog/internal/model"
	"github.com/bassista/go_catalog/internal/remote"
	"github.com/bassista/go_catalog/internal/repository"
)

const listingComponent = "listing"

type ListingSnapshot struct {
	State      model.DataState `json:"state"`
	ContentIDs []int           `json:"content_ids"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	Error      string          `json:"error,omitempty"`
}

// Listing is a paginated content listing. Every fetched page is applied to the
// cache; the listing itself only keeps the ordered content ids.
type Listing struct {
	svc      remote.ContentsService
	applier  repository.Applier
	pageSize int

	mu         sync.Mutex
	state      model.DataState
	ids        []int
	total      int
	page       int
	lastErr    error
	generation uint64

	inflight sync.WaitGroup
	watchers *watchers[ListingSnapshot]
}

func NewListing(svc remote.ContentsService, applier repository.Applier, pageSize int) (*Listing, error) {
	if svc == nil || applier == nil {
		return nil, errors.New("listing dependencies are nil")
	}
	if pageSize <= 0 {
		return nil, errors.New("page size must be > 0")
	}
	return &Listing{
		svc:      svc,
		applier:  applier,
		pageSize: pageSize,
		state:    model.DataStateInitial,
		ids:      []int{},
		watchers: newWatchers[ListingSnapshot](),
	}, nil
}

// Reload fetches the first page and replaces the listing with it.
func (l *Listing) Reload(ctx context.Context) bool {
	return l.start(ctx, eventFetchStarted, 1)
}

// LoadMore fetches the next page and appends it. It is a no-op while a fetch is
// in flight, before the first page, or when every result is already loaded.
func (l *Listing) LoadMore(ctx context.Context) bool {
	l.mu.Lock()
	more := len(l.ids) < l.total
	next := l.page + 1
	l.mu.Unlock()
	if !more {
		return false
	}
	return l.start(ctx, eventFetchMoreStarted, next)
}

func (l *Listing) Wait() {
	l.inflight.Wait()
}

func (l *Listing) Snapshot() ListingSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := ListingSnapshot{
		State:      l.state,
		ContentIDs: append([]int{}, l.ids...),
		Total:      l.total,
		Page:       l.page,
	}
	if l.state == model.DataStateFailed && l.lastErr != nil {
		s.Error = l.lastErr.Error()
	}
	return s
}

func (l *Listing) Watch(ctx context.Context) <-chan ListingSnapshot {
	return l.watchers.add(ctx, l.Snapshot)
}

func (l *Listing) start(ctx context.Context, ev event, number int) bool {
	l.mu.Lock()
	next, ok := transition(l.state, ev)
	if !ok {
		l.mu.Unlock()
		logger.WithComponent(listingComponent).Debugf("page %d not requested in state %s", number, l.state)
		return false
	}
	l.state = next
	l.generation++
	gen := l.generation
	l.inflight.Add(1)
	l.mu.Unlock()
	l.watchers.broadcast(l.Snapshot)

	go func() {
		defer l.inflight.Done()
		page, err := l.svc.AllContents(ctx, remote.PageParams{Number: number, Size: l.pageSize})
		l.complete(gen, number, page, err)
	}()
	return true
}

func (l *Listing) complete(gen uint64, number int, page remote.ContentsPage, err error) {
	l.mu.Lock()
	if gen != l.generation {
		l.mu.Unlock()
		logger.WithComponent(listingComponent).Debugf("discarding superseded page %d", number)
		return
	}
	if err != nil {
		l.state, _ = transition(l.state, eventFetchFailed)
		l.lastErr = err
		l.mu.Unlock()
		l.watchers.broadcast(l.Snapshot)
		failure.Fetch(listingComponent, err).Log()
		return
	}

	// contents must be cached before their ids become visible
	l.applier.Apply(page.Update)
	if number == 1 {
		l.ids = page.IDs()
	} else {
		l.ids = append(l.ids, page.IDs()...)
	}
	l.total = page.TotalResultCount
	l.page = number
	l.lastErr = nil
	l.state, _ = transition(l.state, eventFetchSucceeded)
	l.mu.Unlock()
	l.watchers.broadcast(l.Snapshot)

	logger.WithComponent(listingComponent).Debugf("page %d loaded, %d/%d contents", number, len(page.Contents), page.TotalResultCount)
}
