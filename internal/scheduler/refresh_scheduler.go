package scheduler

import (
	"context"
	"time"

	"github.com/bassista/go_catalog/internal/logger"
)

// Populator is a collection that reloads itself from the durable store and
// fetches when its data is stale.
type Populator interface {
	Name() string
	Populate(ctx context.Context)
}

// RefreshScheduler populates its collections once at start and then on a fixed
// interval. Staleness is decided by each collection, so a tick over fresh data
// only reads the durable store.
type RefreshScheduler struct {
	collections []Populator
	poll        time.Duration
}

func NewRefreshScheduler(poll time.Duration, collections ...Populator) *RefreshScheduler {
	return &RefreshScheduler{collections: collections, poll: poll}
}

// Start runs the scheduler until ctx is done. The returned channel is closed
// once the loop has exited.
func (s *RefreshScheduler) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	logger.WithComponent("sched").Debugf("starting refresh scheduler with interval: %v, collections: %d", s.poll, len(s.collections))
	ticker := time.NewTicker(s.poll)
	go func() {
		defer close(done)
		defer ticker.Stop()
		s.tick(ctx)
		for {
			select {
			case <-ctx.Done():
				logger.WithComponent("sched").Info("refresh scheduler stopped")
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
	return done
}

func (s *RefreshScheduler) tick(ctx context.Context) {
	logger.WithComponent("sched").Tracef("refresh tick started")
	for _, c := range s.collections {
		if ctx.Err() != nil {
			logger.WithComponent("sched").Debugf("tick cancelled before %s", c.Name())
			return
		}
		c.Populate(ctx)
	}
}
