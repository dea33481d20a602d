package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bassista/go_catalog/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func intPtr(i int) *int {
	return &i
}

func TestNewBoltStore_EmptyPath(t *testing.T) {
	_, err := NewBoltStore("")
	assert.Error(t, err)
}

func TestBoltStore_SyncDomains_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	domains := []model.Domain{
		{ID: 2, Name: "Android", Slug: "android", Level: model.DomainLevelProduction, Ordinal: 2},
		{ID: 1, Name: "iOS & Swift", Slug: "ios", Level: model.DomainLevelProduction, Ordinal: 1},
	}
	require.NoError(t, s.SyncDomains(domains))

	got, err := s.DomainList()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, "iOS & Swift", got[0].Name)
	assert.Equal(t, 2, got[1].ID)
	assert.Equal(t, "Android", got[1].Name)
}

func TestBoltStore_SyncDomains_ReplacesWholeCollection(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SyncDomains([]model.Domain{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}))
	require.NoError(t, s.SyncDomains([]model.Domain{{ID: 3, Name: "C"}}))

	got, err := s.DomainList()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].ID)
}

func TestBoltStore_SyncDomains_RejectsInvalid(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SyncDomains([]model.Domain{{ID: 1, Name: "A"}}))

	err := s.SyncDomains([]model.Domain{{ID: 2, Name: ""}})
	assert.Error(t, err)

	got, err := s.DomainList()
	require.NoError(t, err)
	assert.Len(t, got, 1, "failed sync must leave previous collection in place")
}

func TestBoltStore_DomainsByID(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SyncDomains([]model.Domain{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}, {ID: 3, Name: "C"}}))

	got, err := s.Domains([]int{3, 99, 1})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].ID)
	assert.Equal(t, 1, got[1].ID)
}

func TestBoltStore_Categories_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SyncCategories([]model.Category{
		{ID: 10, Name: "Architecture", Ordinal: 2},
		{ID: 11, Name: "Testing", Ordinal: 1},
	}))

	list, err := s.CategoryList()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Testing", list[0].Name)

	byID, err := s.Categories([]int{10})
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, "Architecture", byID[0].Name)
}

func TestBoltStore_EmptyCollections(t *testing.T) {
	s := newTestStore(t)

	domains, err := s.DomainList()
	require.NoError(t, err)
	assert.Empty(t, domains)

	categories, err := s.CategoryList()
	require.NoError(t, err)
	assert.Empty(t, categories)
}

func TestBoltStore_LastRefreshed(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.LastRefreshed("domains")
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	require.NoError(t, s.SetLastRefreshed("domains", at))

	got, ok, err := s.LastRefreshed("domains")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, at.Equal(got))
}

func TestBoltStore_PersistContent_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	collection := model.Content{ID: 1, Name: "Collection", ContentType: model.ContentTypeCollection}
	state := model.ContentPersistableState{
		Content:        collection,
		ContentDomains: []model.ContentDomain{{ContentID: 1, DomainID: 5}},
		Groups:         []model.Group{{ID: 100, ContentID: 1, Ordinal: 0}},
		ChildContents: []model.Content{
			{ID: 3, Name: "Ep 2", ContentType: model.ContentTypeEpisode, GroupID: intPtr(100), Ordinal: 2},
			{ID: 2, Name: "Ep 1", ContentType: model.ContentTypeEpisode, GroupID: intPtr(100), Ordinal: 1},
		},
	}
	require.NoError(t, s.PersistContent(state))

	content, err := s.DownloadedContent(1)
	require.NoError(t, err)
	require.NotNil(t, content)
	assert.Equal(t, "Collection", content.Name)

	children, err := s.ChildContentsForDownloadedContent(1)
	require.NoError(t, err)
	require.NotNil(t, children)
	require.Len(t, children.Contents, 2)
	assert.Equal(t, 2, children.Contents[0].ID)
	assert.Equal(t, 3, children.Contents[1].ID)
	assert.Len(t, children.Groups, 1)
}

func TestBoltStore_DownloadedContent_Absent(t *testing.T) {
	s := newTestStore(t)

	content, err := s.DownloadedContent(42)
	require.NoError(t, err)
	assert.Nil(t, content)

	children, err := s.ChildContentsForDownloadedContent(42)
	require.NoError(t, err)
	assert.Nil(t, children)
}

func TestBoltStore_SaveDownload_AssignsDefaults(t *testing.T) {
	s := newTestStore(t)

	saved, err := s.SaveDownload(model.Download{ContentID: 7, State: model.DownloadStatePending})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.False(t, saved.RequestedAt.IsZero())

	got, err := s.Download(7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, saved.ID, got.ID)

	_, err = s.SaveDownload(model.Download{ContentID: 7, State: model.DownloadStateInProgress, Progress: 2})
	assert.Error(t, err, "progress above 1 must be rejected")
}

func TestBoltStore_WatchDownload(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.WatchDownload(ctx, 7)
	require.NoError(t, err)

	select {
	case d := <-ch:
		assert.Nil(t, d, "first value reflects absent download")
	case <-time.After(time.Second):
		t.Fatal("expected initial value")
	}

	_, err = s.SaveDownload(model.Download{ContentID: 7, State: model.DownloadStateInProgress, Progress: 0.5})
	require.NoError(t, err)

	select {
	case d := <-ch:
		require.NotNil(t, d)
		assert.Equal(t, 0.5, d.Progress)
	case <-time.After(time.Second):
		t.Fatal("expected value after save")
	}

	require.NoError(t, s.DeleteDownload(7))
	select {
	case d := <-ch:
		assert.Nil(t, d)
	case <-time.After(time.Second):
		t.Fatal("expected value after delete")
	}

	cancel()
	select {
	case _, open := <-ch:
		assert.False(t, open, "channel should close after cancel")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestBoltStore_WatchDownload_KeepsLatestOnly(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.WatchDownload(ctx, 9)
	require.NoError(t, err)

	for _, p := range []float64{0.1, 0.2, 0.3} {
		_, err := s.SaveDownload(model.Download{ContentID: 9, State: model.DownloadStateInProgress, Progress: p})
		require.NoError(t, err)
	}

	d := <-ch
	require.NotNil(t, d)
	assert.Equal(t, 0.3, d.Progress)
}

func TestBoltStore_WatchDownload_OtherContentIgnored(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.WatchDownload(ctx, 1)
	require.NoError(t, err)
	<-ch

	_, err = s.SaveDownload(model.Download{ContentID: 2, State: model.DownloadStatePending})
	require.NoError(t, err)

	select {
	case d := <-ch:
		t.Fatalf("unexpected value %+v", d)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDownloadWatchers_PrimeKeepsNewerPublish(t *testing.T) {
	w := newDownloadWatchers()
	ch := make(chan *model.Download, 1)
	id := w.add(3, ch)

	stale := &model.Download{ContentID: 3, Progress: 0.1}
	w.publish(3, &model.Download{ContentID: 3, Progress: 0.6})
	w.prime(3, id, stale)

	d := <-ch
	require.NotNil(t, d)
	assert.Equal(t, 0.6, d.Progress, "a change published after registration wins over the initial read")
}

func TestDownloadWatchers_PrimeDeliversCurrent(t *testing.T) {
	w := newDownloadWatchers()
	ch := make(chan *model.Download, 1)
	id := w.add(3, ch)

	w.prime(3, id, &model.Download{ContentID: 3, Progress: 0.2})
	d := <-ch
	require.NotNil(t, d)
	assert.Equal(t, 0.2, d.Progress)

	w.closeAll()
	w.prime(3, id, nil)
	_, open := <-ch
	assert.False(t, open, "prime after close must not send")
}

func TestBoltStore_WatchDownload_ConcurrentSaveIsNotLost(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	saved := make(chan struct{})
	go func() {
		defer close(saved)
		_, err := s.SaveDownload(model.Download{ContentID: 4, State: model.DownloadStateInProgress, Progress: 0.4})
		assert.NoError(t, err)
	}()
	ch, err := s.WatchDownload(ctx, 4)
	require.NoError(t, err)
	<-saved

	// whatever the interleaving, the latest value seen is the saved record
	var last *model.Download
	for {
		select {
		case d := <-ch:
			last = d
			continue
		case <-time.After(50 * time.Millisecond):
		}
		break
	}
	require.NotNil(t, last)
	assert.Equal(t, 0.4, last.Progress)
}
