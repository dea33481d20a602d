// Package collection keeps reference collections and content listings in sync
// with the remote service.
package collection

import (
	"context"
	"errors"
	"sync"

	"github.com/bassista/go_catalog/internal/failure"
	"github.com/bassista/go_catalog/internal/logger"
	"github.com/bassista/go_catalog/internal/model"
	"github.com/bassista/go_catalog/internal/refresh"
)

// Source wires a Controller to its durable store and remote fetch.
type Source[T any] struct {
	Name  string
	Load  func() ([]T, error)
	Save  func([]T) error
	Fetch func(ctx context.Context) ([]T, error)
}

// Snapshot is a consistent view of a controller.
type Snapshot[T any] struct {
	State model.DataState `json:"state"`
	Items []T             `json:"items"`
	Error string          `json:"error,omitempty"`
}

// Controller synchronizes one fully-replaced collection. Fetches are single-flight:
// while one is in flight further refresh requests are no-ops, and a completion
// that is no longer the latest fetch is discarded.
type Controller[T any] struct {
	src    Source[T]
	policy *refresh.Policy

	mu         sync.Mutex
	state      model.DataState
	items      []T
	lastErr    error
	generation uint64 // incremented when a fetch starts
	revision   uint64 // incremented when items are replaced by a fetch

	inflight sync.WaitGroup
	watchers *watchers[Snapshot[T]]
}

func New[T any](src Source[T], policy *refresh.Policy) (*Controller[T], error) {
	if src.Name == "" {
		return nil, errors.New("collection name is empty")
	}
	if src.Load == nil || src.Save == nil || src.Fetch == nil {
		return nil, errors.New("collection source is incomplete")
	}
	if policy == nil {
		return nil, errors.New("refresh policy is nil")
	}
	return &Controller[T]{
		src:      src,
		policy:   policy,
		state:    model.DataStateInitial,
		items:    []T{},
		watchers: newWatchers[Snapshot[T]](),
	}, nil
}

func (c *Controller[T]) Name() string { return c.src.Name }

// Populate loads the stored collection, then fetches when it is stale or empty.
// A store read failure ends the call with the failed state.
func (c *Controller[T]) Populate(ctx context.Context) {
	if !c.loadFromStore() {
		return
	}

	c.mu.Lock()
	empty := len(c.items) == 0
	c.mu.Unlock()

	if empty || c.policy.ShouldRefresh() {
		c.Refresh(ctx)
	}
}

// Refresh starts a remote fetch and reports whether one was started.
func (c *Controller[T]) Refresh(ctx context.Context) bool {
	c.mu.Lock()
	next, ok := transition(c.state, eventFetchStarted)
	if !ok {
		c.mu.Unlock()
		logger.WithComponent(c.src.Name).Debug("fetch already in flight, skipping")
		return false
	}
	c.state = next
	c.generation++
	gen := c.generation
	c.inflight.Add(1)
	c.mu.Unlock()
	c.publish()

	logger.WithComponent(c.src.Name).Debugf("fetch #%d started", gen)
	go func() {
		defer c.inflight.Done()
		items, err := c.src.Fetch(ctx)
		c.complete(gen, items, err)
	}()
	return true
}

// Wait blocks until no fetch is in flight.
func (c *Controller[T]) Wait() {
	c.inflight.Wait()
}

func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Watch emits the current snapshot and then every change until ctx is done.
// A slow reader only sees the latest snapshot.
func (c *Controller[T]) Watch(ctx context.Context) <-chan Snapshot[T] {
	return c.watchers.add(ctx, c.Snapshot)
}

func (c *Controller[T]) loadFromStore() bool {
	c.mu.Lock()
	rev := c.revision
	c.mu.Unlock()

	items, err := c.src.Load()

	c.mu.Lock()
	if err != nil {
		c.state, _ = transition(c.state, eventStoreLoadFailed)
		c.lastErr = err
		c.mu.Unlock()
		c.publish()
		failure.Load(c.src.Name, err).Log()
		return false
	}
	// a fetch that landed while we were reading holds newer data
	if rev == c.revision {
		if items == nil {
			items = []T{}
		}
		c.items = items
	}
	c.state, _ = transition(c.state, eventStoreLoaded)
	c.mu.Unlock()
	c.publish()
	return true
}

func (c *Controller[T]) complete(gen uint64, items []T, err error) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		logger.WithComponent(c.src.Name).Debugf("discarding superseded fetch #%d", gen)
		return
	}

	if err != nil {
		c.state, _ = transition(c.state, eventFetchFailed)
		c.lastErr = err
		c.mu.Unlock()
		c.publish()
		failure.Fetch(c.src.Name, err).Log()
		return
	}

	if items == nil {
		items = []T{}
	}
	c.state, _ = transition(c.state, eventFetchSucceeded)
	c.items = items
	c.lastErr = nil
	c.revision++
	saved := append([]T(nil), items...)
	c.mu.Unlock()
	c.publish()

	logger.WithComponent(c.src.Name).Infof("fetched %d items", len(saved))
	if err := c.src.Save(saved); err != nil {
		failure.Save(c.src.Name, err).Log()
	}
	if err := c.policy.MarkRefreshed(); err != nil {
		failure.Save(c.src.Name, err).Log()
	}
}

func (c *Controller[T]) snapshotLocked() Snapshot[T] {
	s := Snapshot[T]{
		State: c.state,
		Items: append([]T{}, c.items...),
	}
	if c.state == model.DataStateFailed && c.lastErr != nil {
		s.Error = c.lastErr.Error()
	}
	return s
}

func (c *Controller[T]) publish() {
	c.watchers.broadcast(c.Snapshot)
}
