package collection

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bassista/go_catalog/internal/model"
	"github.com/bassista/go_catalog/internal/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listingFixture(n int) []model.Content {
	contents := make([]model.Content, 0, n)
	for i := 1; i <= n; i++ {
		contents = append(contents, model.Content{ID: i, Name: "content", ContentType: model.ContentTypeScreencast})
	}
	return contents
}

func TestListing_ReloadAndLoadMore(t *testing.T) {
	svc := remote.NewMemoryService()
	svc.SetListing(listingFixture(5))
	repo := newRepository(t)

	l, err := NewListing(svc, repo, 2)
	require.NoError(t, err)

	assert.False(t, l.LoadMore(context.Background()), "nothing to append before the first page")

	require.True(t, l.Reload(context.Background()))
	l.Wait()
	snap := l.Snapshot()
	assert.Equal(t, model.DataStateHasData, snap.State)
	assert.Equal(t, []int{1, 2}, snap.ContentIDs)
	assert.Equal(t, 5, snap.Total)

	_, ok := repo.Content(2)
	assert.True(t, ok, "page contents are applied to the cache")

	require.True(t, l.LoadMore(context.Background()))
	l.Wait()
	require.True(t, l.LoadMore(context.Background()))
	l.Wait()
	snap = l.Snapshot()
	assert.Equal(t, []int{1, 2, 3, 4, 5}, snap.ContentIDs)
	assert.Equal(t, 3, snap.Page)
	assert.False(t, l.LoadMore(context.Background()))

	require.True(t, l.Reload(context.Background()))
	l.Wait()
	assert.Equal(t, []int{1, 2}, l.Snapshot().ContentIDs, "reload replaces the listing")
}

func TestListing_LoadingAdditionalState(t *testing.T) {
	svc := remote.NewMemoryService()
	svc.SetListing(listingFixture(4))
	l, err := NewListing(svc, newRepository(t), 2)
	require.NoError(t, err)

	l.Reload(context.Background())
	l.Wait()

	svc.SetLatency(200 * time.Millisecond)
	require.True(t, l.LoadMore(context.Background()))
	assert.Equal(t, model.DataStateLoadingAdditional, l.Snapshot().State)
	assert.Equal(t, []int{1, 2}, l.Snapshot().ContentIDs, "current ids stay visible while appending")
	assert.False(t, l.Reload(context.Background()), "no second fetch while one is in flight")

	l.Wait()
	assert.Equal(t, []int{1, 2, 3, 4}, l.Snapshot().ContentIDs)
	assert.Equal(t, 2, svc.Calls("contents"))
}

func TestListing_FailureKeepsIDs(t *testing.T) {
	svc := remote.NewMemoryService()
	svc.SetListing(listingFixture(4))
	l, err := NewListing(svc, newRepository(t), 2)
	require.NoError(t, err)

	l.Reload(context.Background())
	l.Wait()

	svc.FailWith(errors.New("bad gateway"))
	l.LoadMore(context.Background())
	l.Wait()

	snap := l.Snapshot()
	assert.Equal(t, model.DataStateFailed, snap.State)
	assert.Equal(t, []int{1, 2}, snap.ContentIDs)
	assert.Contains(t, snap.Error, "bad gateway")

	// more cannot be requested from the failed state, only a reload
	assert.False(t, l.LoadMore(context.Background()))
	svc.FailWith(nil)
	assert.True(t, l.Reload(context.Background()))
	l.Wait()
	assert.Equal(t, model.DataStateHasData, l.Snapshot().State)
}

func TestNewListing_Validation(t *testing.T) {
	_, err := NewListing(nil, newRepository(t), 10)
	assert.Error(t, err)
	_, err = NewListing(remote.NewMemoryService(), newRepository(t), 0)
	assert.Error(t, err)
}

func TestDetailsLoader_Load(t *testing.T) {
	svc := remote.NewMemoryServiceWithFixtures()
	repo := newRepository(t)
	loader, err := NewDetailsLoader(svc, repo)
	require.NoError(t, err)

	assert.Equal(t, model.DataStateInitial, loader.State(1))

	content, _, err := loader.Load(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Concurrency in Depth", content.Name)
	assert.Equal(t, model.DataStateHasData, loader.State(1))

	_, ok := repo.Content(10)
	assert.True(t, ok, "children arrive with the details batch")
	parent, ok := repo.ParentContent(10)
	require.True(t, ok)
	assert.Equal(t, 1, parent.ID)
}

func TestDetailsLoader_CollapsesConcurrentLoads(t *testing.T) {
	svc := remote.NewMemoryServiceWithFixtures()
	svc.SetLatency(100 * time.Millisecond)
	loader, err := NewDetailsLoader(svc, newRepository(t))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := loader.Load(context.Background(), 20)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, svc.Calls("details"))
}

func TestDetailsLoader_NotFound(t *testing.T) {
	svc := remote.NewMemoryServiceWithFixtures()
	loader, err := NewDetailsLoader(svc, newRepository(t))
	require.NoError(t, err)

	_, _, err = loader.Load(context.Background(), 999)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, model.DataStateFailed, loader.State(999))
}

func TestDetailsLoader_CallerCancelDoesNotAbortSharedFetch(t *testing.T) {
	svc := remote.NewMemoryServiceWithFixtures()
	svc.SetLatency(100 * time.Millisecond)
	repo := newRepository(t)
	loader, err := NewDetailsLoader(svc, repo)
	require.NoError(t, err)

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, _, err := loader.Load(first, 20)
		firstErr <- err
	}()

	// let the first caller start the fetch, then join it and walk away
	require.Eventually(t, func() bool { return svc.Calls("details") == 1 }, time.Second, 5*time.Millisecond)
	type result struct {
		content model.Content
		err     error
	}
	second := make(chan result, 1)
	go func() {
		content, _, err := loader.Load(context.Background(), 20)
		second <- result{content, err}
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-firstErr, context.Canceled)

	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, 20, res.content.ID)
	assert.Equal(t, 1, svc.Calls("details"))
	assert.Equal(t, model.DataStateHasData, loader.State(20))
	_, ok := repo.Content(20)
	assert.True(t, ok, "batch is applied although the first caller left")
}
