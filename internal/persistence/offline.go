package persistence

import (
	"fmt"
	"sort"

	"github.com/bassista/go_catalog/internal/model"
	bolt "go.etcd.io/bbolt"
)

// PersistContent stores a content together with its parent, children, groups and
// relationships so it can be browsed offline.
func (s *BoltStore) PersistContent(state model.ContentPersistableState) error {
	if err := s.validate.Struct(state.Content); err != nil {
		return fmt.Errorf("invalid content %d: %w", state.Content.ID, err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		contents := tx.Bucket(bucketContents)
		if err := putJSON(contents, itob(state.Content.ID), state.Content); err != nil {
			return err
		}
		if state.ParentContent != nil {
			if err := putJSON(contents, itob(state.ParentContent.ID), *state.ParentContent); err != nil {
				return err
			}
		}
		for _, child := range state.ChildContents {
			if err := putJSON(contents, itob(child.ID), child); err != nil {
				return err
			}
		}

		groups := tx.Bucket(bucketGroups)
		for _, g := range state.Groups {
			if err := putJSON(groups, itob(g.ID), g); err != nil {
				return err
			}
		}

		cd := tx.Bucket(bucketContentDomains)
		if err := deletePrefix(cd, itob(state.Content.ID)); err != nil {
			return err
		}
		for _, rel := range state.ContentDomains {
			if err := putJSON(cd, pairKey(rel.ContentID, rel.DomainID), rel); err != nil {
				return err
			}
		}

		cc := tx.Bucket(bucketContentCategories)
		if err := deletePrefix(cc, itob(state.Content.ID)); err != nil {
			return err
		}
		for _, rel := range state.ContentCategories {
			if err := putJSON(cc, pairKey(rel.ContentID, rel.CategoryID), rel); err != nil {
				return err
			}
		}

		key := itob(state.Content.ID)
		if state.Progression != nil {
			if err := putJSON(tx.Bucket(bucketProgressions), key, *state.Progression); err != nil {
				return err
			}
		}
		if state.Bookmark != nil {
			if err := putJSON(tx.Bucket(bucketBookmarks), key, *state.Bookmark); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) DownloadedContent(id int) (*model.Content, error) {
	var (
		content model.Content
		found   bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		found, err = getJSON(tx.Bucket(bucketContents), itob(id), &content)
		return err
	})
	if err != nil {
		return nil, &model.LoadError{Op: fmt.Sprintf("content %d", id), Err: err}
	}
	if !found {
		return nil, nil
	}
	return &content, nil
}

// ChildContentsForDownloadedContent returns the stored groups of id and the contents in them,
// or nil when no children are stored.
func (s *BoltStore) ChildContentsForDownloadedContent(id int) (*model.ChildContents, error) {
	var (
		groups   []model.Group
		children []model.Content
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		groupIDs := map[int]bool{}
		if err := forEachJSON(tx.Bucket(bucketGroups), func(g model.Group) {
			if g.ContentID == id {
				groups = append(groups, g)
				groupIDs[g.ID] = true
			}
		}); err != nil {
			return err
		}
		if len(groups) == 0 {
			return nil
		}
		return forEachJSON(tx.Bucket(bucketContents), func(c model.Content) {
			if c.GroupID != nil && groupIDs[*c.GroupID] {
				children = append(children, c)
			}
		})
	})
	if err != nil {
		return nil, &model.LoadError{Op: fmt.Sprintf("child contents of %d", id), Err: err}
	}
	if len(groups) == 0 || len(children) == 0 {
		return nil, nil
	}

	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Ordinal < groups[j].Ordinal })
	sort.SliceStable(children, func(i, j int) bool { return children[i].Ordinal < children[j].Ordinal })
	return &model.ChildContents{Contents: children, Groups: groups}, nil
}
