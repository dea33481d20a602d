package collection

import (
	"context"
	"sync"
)

// watchers hands the latest value to each subscriber without blocking the sender.
type watchers[V any] struct {
	mu   sync.Mutex
	subs map[chan V]struct{}
}

func newWatchers[V any]() *watchers[V] {
	return &watchers[V]{subs: map[chan V]struct{}{}}
}

// add registers a subscriber primed with current(). Values are computed under
// w.mu so a subscriber never receives an older value after a newer one.
func (w *watchers[V]) add(ctx context.Context, current func() V) chan V {
	ch := make(chan V, 1)
	w.mu.Lock()
	w.subs[ch] = struct{}{}
	ch <- current()
	w.mu.Unlock()

	go func() {
		<-ctx.Done()
		w.mu.Lock()
		delete(w.subs, ch)
		close(ch)
		w.mu.Unlock()
	}()
	return ch
}

func (w *watchers[V]) broadcast(current func() V) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.subs) == 0 {
		return
	}
	v := current()
	for ch := range w.subs {
		replace(ch, v)
	}
}

// replace drops any unread value of ch and sends v. Caller holds w.mu.
func replace[V any](ch chan V, v V) {
	select {
	case <-ch:
	default:
	}
	ch <- v
}
