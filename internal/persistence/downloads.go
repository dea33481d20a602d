package persistence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bassista/go_catalog/internal/logger"
	"github.com/bassista/go_catalog/internal/model"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

func (s *BoltStore) Download(contentID int) (*model.Download, error) {
	var (
		d     model.Download
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		found, err = getJSON(tx.Bucket(bucketDownloads), itob(contentID), &d)
		return err
	})
	if err != nil {
		return nil, &model.LoadError{Op: fmt.Sprintf("download %d", contentID), Err: err}
	}
	if !found {
		return nil, nil
	}
	return &d, nil
}

// SaveDownload upserts the download record of d.ContentID, assigning an id and
// request time when missing, and notifies watchers after commit.
func (s *BoltStore) SaveDownload(d model.Download) (model.Download, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.RequestedAt.IsZero() {
		d.RequestedAt = time.Now().UTC()
	}
	if err := s.validate.Struct(d); err != nil {
		return model.Download{}, fmt.Errorf("invalid download for content %d: %w", d.ContentID, err)
	}

	if err := s.db.Update(func(tx *bolt.Tx) error {
		return putJSON(tx.Bucket(bucketDownloads), itob(d.ContentID), d)
	}); err != nil {
		return model.Download{}, err
	}

	s.watchers.publish(d.ContentID, &d)
	return d, nil
}

func (s *BoltStore) DeleteDownload(contentID int) error {
	if err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDownloads).Delete(itob(contentID))
	}); err != nil {
		return err
	}

	s.watchers.publish(contentID, nil)
	return nil
}

func (s *BoltStore) WatchDownload(ctx context.Context, contentID int) (<-chan *model.Download, error) {
	// Registering before the read means a change committed in between is
	// either seen by the read or delivered by publish.
	ch := make(chan *model.Download, 1)
	id := s.watchers.add(contentID, ch)

	current, err := s.Download(contentID)
	if err != nil {
		s.watchers.remove(contentID, id)
		return nil, err
	}
	s.watchers.prime(contentID, id, current)

	go func() {
		<-ctx.Done()
		s.watchers.remove(contentID, id)
	}()
	return ch, nil
}

// downloadWatchers fans download changes out to per-content subscribers.
// Each subscriber channel holds at most the latest record.
type downloadWatchers struct {
	mu     sync.Mutex
	subs   map[int]map[uuid.UUID]chan *model.Download
	closed bool
}

func newDownloadWatchers() *downloadWatchers {
	return &downloadWatchers{subs: map[int]map[uuid.UUID]chan *model.Download{}}
}

func (w *downloadWatchers) add(contentID int, ch chan *model.Download) uuid.UUID {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := uuid.New()
	if w.closed {
		close(ch)
		return id
	}
	if w.subs[contentID] == nil {
		w.subs[contentID] = map[uuid.UUID]chan *model.Download{}
	}
	w.subs[contentID][id] = ch
	return id
}

func (w *downloadWatchers) remove(contentID int, id uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	subs := w.subs[contentID]
	ch, ok := subs[id]
	if !ok {
		return
	}
	delete(subs, id)
	if len(subs) == 0 {
		delete(w.subs, contentID)
	}
	close(ch)
}

// prime delivers the record read at subscription time unless a newer one
// was already published to the watcher.
func (w *downloadWatchers) prime(contentID int, id uuid.UUID, d *model.Download) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ch, ok := w.subs[contentID][id]
	if !ok || len(ch) > 0 {
		return
	}
	ch <- d
}

func (w *downloadWatchers) publish(contentID int, d *model.Download) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, ch := range w.subs[contentID] {
		var value *model.Download
		if d != nil {
			copied := *d
			value = &copied
		}
		// Replace any unread value so slow readers only see the latest record.
		select {
		case <-ch:
		default:
		}
		ch <- value
	}
	logger.WithComponent("store").Tracef("published download change for content %d to %d watchers", contentID, len(w.subs[contentID]))
}

func (w *downloadWatchers) closeAll() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for contentID, subs := range w.subs {
		for id, ch := range subs {
			close(ch)
			delete(subs, id)
		}
		delete(w.subs, contentID)
	}
	w.closed = true
}
