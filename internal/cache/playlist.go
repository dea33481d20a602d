package cache

import (
	"fmt"

	"github.com/bassista/go_catalog/internal/model"
)

// VideoPlaylist returns what should play when id is started: the children of a
// collection, an episode followed by its later siblings, or the content alone.
func (s *Store) VideoPlaylist(id int) ([]model.CachedVideoPlaybackState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	content, ok := s.contents[id]
	if !ok {
		return nil, fmt.Errorf("content %d: %w", id, model.ErrCacheMiss)
	}

	switch {
	case content.ContentType == model.ContentTypeCollection:
		children := s.childContentsLocked(id).Contents
		if len(children) == 0 {
			return nil, fmt.Errorf("children of collection %d: %w", id, model.ErrCacheMiss)
		}
		return s.playbackStatesLocked(children), nil

	case content.ContentType == model.ContentTypeEpisode && content.GroupID != nil:
		parent := s.parentLocked(content)
		if parent == nil {
			return s.playbackStatesLocked([]model.Content{content}), nil
		}
		siblings := s.childContentsLocked(parent.ID).Contents
		for i, c := range siblings {
			if c.ID == id {
				return s.playbackStatesLocked(siblings[i:]), nil
			}
		}
		return s.playbackStatesLocked([]model.Content{content}), nil

	default:
		return s.playbackStatesLocked([]model.Content{content}), nil
	}
}

func (s *Store) playbackStatesLocked(contents []model.Content) []model.CachedVideoPlaybackState {
	states := make([]model.CachedVideoPlaybackState, 0, len(contents))
	for _, c := range contents {
		state := model.CachedVideoPlaybackState{Content: cloneContent(c)}
		if p, ok := s.progressions[c.ID]; ok {
			state.Progression = &p
		}
		states = append(states, state)
	}
	return states
}

// ContentPersistableState collects what the durable store needs to keep id offline.
func (s *Store) ContentPersistableState(id int) (model.ContentPersistableState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	content, ok := s.contents[id]
	if !ok {
		return model.ContentPersistableState{}, fmt.Errorf("content %d: %w", id, model.ErrCacheMiss)
	}

	children := s.childContentsLocked(id)
	dynamic := s.dynamicLocked(id)
	return model.ContentPersistableState{
		Content:           cloneContent(content),
		ContentDomains:    append([]model.ContentDomain{}, s.contentDomains[id]...),
		ContentCategories: append([]model.ContentCategory{}, s.contentCategories[id]...),
		Bookmark:          dynamic.Bookmark,
		ParentContent:     s.parentLocked(content),
		Progression:       dynamic.Progression,
		Groups:            children.Groups,
		ChildContents:     children.Contents,
	}, nil
}
