package cache

import (
	"sort"
	"sync"

	"github.com/bassista/go_catalog/internal/logger"
	"github.com/bassista/go_catalog/internal/model"
)

// Store keeps the in-memory catalogue. All maps are guarded by mu; a batch is
// applied under a single write lock so readers never see half of it.
type Store struct {
	mu                sync.RWMutex
	contents          map[int]model.Content
	groups            map[int]model.Group
	bookmarks         map[int]model.Bookmark    // by content id
	progressions      map[int]model.Progression // by content id
	contentDomains    map[int][]model.ContentDomain
	contentCategories map[int][]model.ContentCategory

	// derived indexes, rebuilt when contents or groups change
	groupsByContent map[int][]int // parent content id -> group ids
	contentsByGroup map[int][]int // group id -> content ids

	version uint64

	bus     *InvalidationBus
	changes *signal
}

var _ DataCache = (*Store)(nil)

// NewStore creates an empty cache.
func NewStore() *Store {
	return &Store{
		contents:          map[int]model.Content{},
		groups:            map[int]model.Group{},
		bookmarks:         map[int]model.Bookmark{},
		progressions:      map[int]model.Progression{},
		contentDomains:    map[int][]model.ContentDomain{},
		contentCategories: map[int][]model.ContentCategory{},
		groupsByContent:   map[int][]int{},
		contentsByGroup:   map[int][]int{},
		bus:               NewInvalidationBus(),
		changes:           newSignal(),
	}
}

// Apply merges update into the cache as one atomic step, then publishes the
// invalidation categories the batch touched.
func (s *Store) Apply(update model.DataCacheUpdate) {
	s.mu.Lock()

	for _, c := range update.Contents {
		s.contents[c.ID] = cloneContent(c)
	}
	for _, g := range update.Groups {
		s.groups[g.ID] = g
	}

	// A batch carries the complete relationship set of each content it mentions.
	domains := map[int][]model.ContentDomain{}
	for _, rel := range update.ContentDomains {
		domains[rel.ContentID] = append(domains[rel.ContentID], rel)
	}
	for id, rels := range domains {
		s.contentDomains[id] = rels
	}
	categories := map[int][]model.ContentCategory{}
	for _, rel := range update.ContentCategories {
		categories[rel.ContentID] = append(categories[rel.ContentID], rel)
	}
	for id, rels := range categories {
		s.contentCategories[id] = rels
	}

	for _, b := range update.Bookmarks {
		s.bookmarks[b.ContentID] = b
	}
	for _, id := range update.BookmarkDeletionContentIDs {
		delete(s.bookmarks, id)
	}
	for _, p := range update.Progressions {
		s.progressions[p.ContentID] = p
	}
	for _, id := range update.ProgressionDeletionContentIDs {
		delete(s.progressions, id)
	}

	if len(update.Contents) > 0 || len(update.Groups) > 0 {
		s.reindex()
	}
	s.version++
	version := s.version
	s.mu.Unlock()

	logger.WithComponent("cache").Tracef("applied batch v%d: %d contents, %d groups, %d bookmarks, %d progressions",
		version, len(update.Contents), len(update.Groups), len(update.Bookmarks), len(update.Progressions))

	if update.TouchesBookmarks() {
		s.bus.Publish(model.InvalidationBookmarks)
	}
	if update.TouchesProgressions() {
		s.bus.Publish(model.InvalidationProgressions)
	}
	s.changes.notify()
}

// Version counts applied batches.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Store) Content(id int) (model.Content, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contents[id]
	if !ok {
		return model.Content{}, false
	}
	return cloneContent(c), true
}

func (s *Store) Progression(contentID int) (model.Progression, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.progressions[contentID]
	return p, ok
}

func (s *Store) Bookmark(contentID int) (model.Bookmark, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookmarks[contentID]
	return b, ok
}

func (s *Store) ParentContent(id int) (model.Content, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contents[id]
	if !ok {
		return model.Content{}, false
	}
	parent := s.parentLocked(c)
	if parent == nil {
		return model.Content{}, false
	}
	return *parent, true
}

// ChildProgress counts the children of id and how many of them are finished.
// It reports false when id has no cached children.
func (s *Store) ChildProgress(id int) (model.ChildProgress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	children := s.childContentsLocked(id).Contents
	if len(children) == 0 {
		return model.ChildProgress{}, false
	}
	progress := model.ChildProgress{Total: len(children)}
	for _, c := range children {
		if p, ok := s.progressions[c.ID]; ok && p.Finished() {
			progress.Completed++
		}
	}
	return progress, true
}

// reindex rebuilds the parent/child indexes. Caller holds the write lock.
func (s *Store) reindex() {
	s.groupsByContent = map[int][]int{}
	for _, g := range s.groups {
		s.groupsByContent[g.ContentID] = append(s.groupsByContent[g.ContentID], g.ID)
	}
	for _, ids := range s.groupsByContent {
		sort.Slice(ids, func(i, j int) bool {
			gi, gj := s.groups[ids[i]], s.groups[ids[j]]
			if gi.Ordinal != gj.Ordinal {
				return gi.Ordinal < gj.Ordinal
			}
			return gi.ID < gj.ID
		})
	}

	s.contentsByGroup = map[int][]int{}
	for _, c := range s.contents {
		if c.GroupID == nil {
			continue
		}
		s.contentsByGroup[*c.GroupID] = append(s.contentsByGroup[*c.GroupID], c.ID)
	}
	for _, ids := range s.contentsByGroup {
		sort.Slice(ids, func(i, j int) bool {
			ci, cj := s.contents[ids[i]], s.contents[ids[j]]
			if ci.Ordinal != cj.Ordinal {
				return ci.Ordinal < cj.Ordinal
			}
			return ci.ID < cj.ID
		})
	}
}

func (s *Store) parentLocked(c model.Content) *model.Content {
	if c.GroupID == nil {
		return nil
	}
	g, ok := s.groups[*c.GroupID]
	if !ok {
		return nil
	}
	parent, ok := s.contents[g.ContentID]
	if !ok {
		return nil
	}
	cloned := cloneContent(parent)
	return &cloned
}

func (s *Store) childContentsLocked(id int) model.ChildContentsState {
	state := model.ChildContentsState{Contents: []model.Content{}, Groups: []model.Group{}}
	for _, gid := range s.groupsByContent[id] {
		state.Groups = append(state.Groups, s.groups[gid])
		for _, cid := range s.contentsByGroup[gid] {
			state.Contents = append(state.Contents, cloneContent(s.contents[cid]))
		}
	}
	return state
}

func (s *Store) cachedSummaryLocked(id int) (model.CachedContentSummaryState, bool) {
	c, ok := s.contents[id]
	if !ok {
		return model.CachedContentSummaryState{}, false
	}
	return model.CachedContentSummaryState{
		Content:           cloneContent(c),
		ContentDomains:    append([]model.ContentDomain{}, s.contentDomains[id]...),
		ContentCategories: append([]model.ContentCategory{}, s.contentCategories[id]...),
		ParentContent:     s.parentLocked(c),
	}, true
}

func (s *Store) dynamicLocked(id int) model.CachedDynamicContentState {
	var state model.CachedDynamicContentState
	if p, ok := s.progressions[id]; ok {
		state.Progression = &p
	}
	if b, ok := s.bookmarks[id]; ok {
		state.Bookmark = &b
	}
	return state
}

// cloneContent copies c including its pointer fields.
func cloneContent(c model.Content) model.Content {
	if c.GroupID != nil {
		gid := *c.GroupID
		c.GroupID = &gid
	}
	return c
}
