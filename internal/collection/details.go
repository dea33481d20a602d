package collection

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/bassista/go_catalog/internal/failure"
	"github.com/bassista/go_catalog/internal/logger"
	"github.com/bassista/go_catalog/internal/model"
	"github.com/bassista/go_catalog/internal/remote"
	"github.com/bassista/go_catalog/internal/repository"
	"golang.org/x/sync/singleflight"
)

const (
	detailsComponent = "content-details"

	// bounds a shared fetch once it no longer follows any caller's context
	detailsFetchTimeout = 30 * time.Second
)

// DetailsLoader fetches the full detail batch of a content and applies it to the
// cache. Concurrent loads of the same content share one fetch.
type DetailsLoader struct {
	svc     remote.ContentsService
	applier repository.Applier
	group   singleflight.Group

	mu     sync.Mutex
	states map[int]model.DataState
}

func NewDetailsLoader(svc remote.ContentsService, applier repository.Applier) (*DetailsLoader, error) {
	if svc == nil || applier == nil {
		return nil, errors.New("details loader dependencies are nil")
	}
	return &DetailsLoader{svc: svc, applier: applier, states: map[int]model.DataState{}}, nil
}

// Load fetches content id and applies its batch. The returned bool reports
// whether the result was shared with a concurrent caller. The shared fetch is
// not cancelled when ctx is; only this caller stops waiting for it.
func (l *DetailsLoader) Load(ctx context.Context, id int) (model.Content, bool, error) {
	ch := l.group.DoChan(strconv.Itoa(id), func() (any, error) {
		l.setState(id, model.DataStateLoading)

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), detailsFetchTimeout)
		defer cancel()
		content, update, err := l.svc.ContentDetails(fetchCtx, id)
		if err != nil {
			l.setState(id, model.DataStateFailed)
			failure.Fetch(detailsComponent, err).Log()
			return nil, err
		}

		l.applier.Apply(update)
		l.setState(id, model.DataStateHasData)
		logger.WithContent(detailsComponent, id).Debugf("applied details batch with %d contents", len(update.Contents))
		return content, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return model.Content{}, res.Shared, res.Err
		}
		return res.Val.(model.Content), res.Shared, nil
	case <-ctx.Done():
		return model.Content{}, false, ctx.Err()
	}
}

// State returns the load state of id; unknown ids are initial.
func (l *DetailsLoader) State(id int) model.DataState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.states[id]
}

func (l *DetailsLoader) setState(id int, s model.DataState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states[id] = s
}
