package model

import (
	"fmt"
	"reflect"
)

// CachedContentSummaryState is what the cache alone knows about a content.
type CachedContentSummaryState struct {
	Content           Content           `json:"content"`
	ContentDomains    []ContentDomain   `json:"content_domains"`
	ContentCategories []ContentCategory `json:"content_categories"`
	ParentContent     *Content          `json:"parent_content,omitempty"`
}

// ContentSummaryState is CachedContentSummaryState with domains and categories resolved.
type ContentSummaryState struct {
	Content       Content    `json:"content"`
	Domains       []Domain   `json:"domains"`
	Categories    []Category `json:"categories"`
	ParentContent *Content   `json:"parent_content,omitempty"`
}

type ChildContentsState struct {
	Contents []Content `json:"contents"`
	Groups   []Group   `json:"groups"`
}

type CachedDynamicContentState struct {
	Progression *Progression `json:"progression,omitempty"`
	Bookmark    *Bookmark    `json:"bookmark,omitempty"`
}

// DynamicContentState is the per-user state of a content: download, progress and bookmark.
type DynamicContentState struct {
	Download    *Download    `json:"download,omitempty"`
	Progression *Progression `json:"progression,omitempty"`
	Bookmark    *Bookmark    `json:"bookmark,omitempty"`
}

// Equal compares the three optional fields by value.
func (s DynamicContentState) Equal(other DynamicContentState) bool {
	return reflect.DeepEqual(s.Download, other.Download) &&
		reflect.DeepEqual(s.Progression, other.Progression) &&
		reflect.DeepEqual(s.Bookmark, other.Bookmark)
}

// ContentPersistableState is everything needed to store a content for offline use.
type ContentPersistableState struct {
	Content           Content           `json:"content"`
	ContentDomains    []ContentDomain   `json:"content_domains"`
	ContentCategories []ContentCategory `json:"content_categories"`
	Bookmark          *Bookmark         `json:"bookmark,omitempty"`
	ParentContent     *Content          `json:"parent_content,omitempty"`
	Progression       *Progression      `json:"progression,omitempty"`
	Groups            []Group           `json:"groups"`
	ChildContents     []Content         `json:"child_contents"`
}

type CachedVideoPlaybackState struct {
	Content     Content      `json:"content"`
	Progression *Progression `json:"progression,omitempty"`
}

type VideoPlaybackState struct {
	Content     Content      `json:"content"`
	Progression *Progression `json:"progression,omitempty"`
	Download    *Download    `json:"download,omitempty"`
}

type ChildProgress struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// ChildContents is the downloaded subtree of a content as held by the durable store.
type ChildContents struct {
	Contents []Content `json:"contents"`
	Groups   []Group   `json:"groups"`
}

// DataState is the lifecycle state of a synchronized collection.
type DataState int

const (
	DataStateInitial DataState = iota
	DataStateLoading
	DataStateLoadingAdditional
	DataStateHasData
	DataStateFailed
)

var dataStateNames = map[DataState]string{
	DataStateInitial:           "initial",
	DataStateLoading:           "loading",
	DataStateLoadingAdditional: "loadingAdditional",
	DataStateHasData:           "hasData",
	DataStateFailed:            "failed",
}

func (s DataState) String() string {
	if name, ok := dataStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("DataState(%d)", int(s))
}

// InFlight reports whether a remote fetch is outstanding.
func (s DataState) InFlight() bool {
	return s == DataStateLoading || s == DataStateLoadingAdditional
}

func (s DataState) MarshalText() ([]byte, error) {
	if _, ok := dataStateNames[s]; !ok {
		return nil, fmt.Errorf("unknown data state %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *DataState) UnmarshalText(text []byte) error {
	for state, name := range dataStateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown data state %q", string(text))
}

// Invalidation names a partition of cached data whose contents changed.
type Invalidation string

const (
	InvalidationBookmarks    Invalidation = "bookmarks"
	InvalidationProgressions Invalidation = "progressions"
)

// ParseInvalidation accepts the wire names of the fixed invalidation categories.
func ParseInvalidation(s string) (Invalidation, error) {
	switch Invalidation(s) {
	case InvalidationBookmarks, InvalidationProgressions:
		return Invalidation(s), nil
	}
	return "", fmt.Errorf("%w: unknown invalidation category %q", ErrInvalidArgument, s)
}
