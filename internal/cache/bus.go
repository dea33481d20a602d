package cache

import (
	"context"
	"sync"

	"github.com/bassista/go_catalog/internal/logger"
	"github.com/bassista/go_catalog/internal/model"
	"github.com/google/uuid"
)

// InvalidationBus fans invalidation categories out to live subscribers.
// Nothing is replayed: a subscriber only sees categories published after it subscribed.
// Publish never blocks; repeated signals of a category that a subscriber has not
// read yet are merged into one.
type InvalidationBus struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]*busSubscriber
}

func NewInvalidationBus() *InvalidationBus {
	return &InvalidationBus{subs: map[uuid.UUID]*busSubscriber{}}
}

type busSubscriber struct {
	filter map[model.Invalidation]bool // nil accepts everything

	mu      sync.Mutex
	pending []model.Invalidation
	wake    chan struct{}
	out     chan model.Invalidation
}

// Subscribe returns the categories published from now on, restricted to
// categories when any are given. The channel closes when ctx is done.
func (b *InvalidationBus) Subscribe(ctx context.Context, categories ...model.Invalidation) <-chan model.Invalidation {
	sub := &busSubscriber{
		wake: make(chan struct{}, 1),
		out:  make(chan model.Invalidation),
	}
	if len(categories) > 0 {
		sub.filter = map[model.Invalidation]bool{}
		for _, c := range categories {
			sub.filter[c] = true
		}
	}

	id := uuid.New()
	b.mu.Lock()
	b.subs[id] = sub
	b.mu.Unlock()
	logger.WithComponent("bus").Tracef("subscriber %s joined for %v", id, categories)

	go func() {
		defer func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(sub.out)
		}()
		sub.pump(ctx)
	}()
	return sub.out
}

func (b *InvalidationBus) Publish(category model.Invalidation) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		sub.offer(category)
	}
}

// Subscribers returns the number of live subscribers.
func (b *InvalidationBus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (s *busSubscriber) offer(category model.Invalidation) {
	if s.filter != nil && !s.filter[category] {
		return
	}
	s.mu.Lock()
	for _, p := range s.pending {
		if p == category {
			s.mu.Unlock()
			return
		}
	}
	s.pending = append(s.pending, category)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *busSubscriber) pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		}

		s.mu.Lock()
		batch := s.pending
		s.pending = nil
		s.mu.Unlock()

		for _, category := range batch {
			select {
			case s.out <- category:
			case <-ctx.Done():
				return
			}
		}
	}
}
