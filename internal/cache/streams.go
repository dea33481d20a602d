package cache

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/bassista/go_catalog/internal/model"
)

func (s *Store) ContentSummaryStates(ctx context.Context, ids []int) (<-chan []model.CachedContentSummaryState, error) {
	if err := s.requireContents(ids...); err != nil {
		return nil, err
	}
	ids = append([]int(nil), ids...)

	return watch(ctx, s.changes, func() ([]model.CachedContentSummaryState, bool) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		states := make([]model.CachedContentSummaryState, 0, len(ids))
		for _, id := range ids {
			state, ok := s.cachedSummaryLocked(id)
			if !ok {
				return nil, false
			}
			states = append(states, state)
		}
		return states, true
	}), nil
}

func (s *Store) ContentSummaryState(ctx context.Context, id int) (<-chan model.CachedContentSummaryState, error) {
	if err := s.requireContents(id); err != nil {
		return nil, err
	}
	return watch(ctx, s.changes, func() (model.CachedContentSummaryState, bool) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.cachedSummaryLocked(id)
	}), nil
}

func (s *Store) ChildContentsState(ctx context.Context, id int) (<-chan model.ChildContentsState, error) {
	if err := s.requireContents(id); err != nil {
		return nil, err
	}
	return watch(ctx, s.changes, func() (model.ChildContentsState, bool) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.childContentsLocked(id), true
	}), nil
}

// ContentDynamicState streams the cached progression and bookmark of id.
// Unknown ids stream an empty state.
func (s *Store) ContentDynamicState(ctx context.Context, id int) <-chan model.CachedDynamicContentState {
	return watch(ctx, s.changes, func() (model.CachedDynamicContentState, bool) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.dynamicLocked(id), true
	})
}

func (s *Store) Invalidations(ctx context.Context, categories ...model.Invalidation) <-chan model.Invalidation {
	return s.bus.Subscribe(ctx, categories...)
}

func (s *Store) requireContents(ids ...int) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range ids {
		if _, ok := s.contents[id]; !ok {
			return fmt.Errorf("content %d: %w", id, model.ErrCacheMiss)
		}
	}
	return nil
}

// watch re-derives a value after every change signal and emits it when it
// differs from the last emitted one. The returned channel closes when ctx is done.
func watch[T any](ctx context.Context, changes *signal, derive func() (T, bool)) <-chan T {
	out := make(chan T)
	wake, cancel := changes.subscribe()

	go func() {
		defer close(out)
		defer cancel()

		var (
			last    T
			emitted bool
		)
		for {
			if v, ok := derive(); ok && (!emitted || !reflect.DeepEqual(v, last)) {
				select {
				case out <- v:
					last, emitted = v, true
				case <-ctx.Done():
					return
				}
			}
			select {
			case <-wake:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// signal is a payload-free change broadcast. Each subscriber holds at most
// one pending wake-up, so notify never blocks.
type signal struct {
	mu   sync.Mutex
	next uint64
	subs map[uint64]chan struct{}
}

func newSignal() *signal {
	return &signal{subs: map[uint64]chan struct{}{}}
}

func (s *signal) subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *signal) notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
