package repository

import (
	"context"

	"github.com/bassista/go_catalog/internal/model"
)

func mapStream[In, Out any](ctx context.Context, in <-chan In, fn func(In) Out) <-chan Out {
	out := make(chan Out)
	go func() {
		defer close(out)
		for v := range in {
			select {
			case out <- fn(v):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// combineDynamic is a combine-latest of the cached dynamic state and the
// download record, deduplicated by value.
func combineDynamic(ctx context.Context, cached <-chan model.CachedDynamicContentState, downloads <-chan *model.Download) <-chan model.DynamicContentState {
	out := make(chan model.DynamicContentState)

	go func() {
		defer close(out)

		var (
			latestCached   model.CachedDynamicContentState
			latestDownload *model.Download
			haveCached     bool
			haveDownload   bool
			last           model.DynamicContentState
			emitted        bool
		)
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-cached:
				if !ok {
					return
				}
				latestCached, haveCached = v, true
			case d, ok := <-downloads:
				if !ok {
					return
				}
				latestDownload, haveDownload = d, true
			}

			if !haveCached || !haveDownload {
				continue
			}
			state := model.DynamicContentState{
				Download:    latestDownload,
				Progression: latestCached.Progression,
				Bookmark:    latestCached.Bookmark,
			}
			if emitted && state.Equal(last) {
				continue
			}
			select {
			case out <- state:
				last, emitted = state, true
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func signals(ctx context.Context, in <-chan model.Invalidation) <-chan struct{} {
	return mapStream(ctx, in, func(model.Invalidation) struct{} { return struct{}{} })
}
