package model

import "time"

type DomainLevel string

const (
	DomainLevelProduction DomainLevel = "production"
	DomainLevelBeta       DomainLevel = "beta"
	DomainLevelBlog       DomainLevel = "blog"
	DomainLevelRetired    DomainLevel = "retired"
	DomainLevelArchive    DomainLevel = "archive"
)

// Domain is a top-level subject area. Domains are replaced as a whole on every sync.
type Domain struct {
	ID          int         `json:"id" validate:"required,gt=0"`
	Name        string      `json:"name" validate:"required"`
	Slug        string      `json:"slug"`
	Description string      `json:"description,omitempty"`
	Level       DomainLevel `json:"level" validate:"omitempty,oneof=production beta blog retired archive"`
	Ordinal     int         `json:"ordinal"`
}

// Category is a tag-like grouping orthogonal to domains.
type Category struct {
	ID      int    `json:"id" validate:"required,gt=0"`
	Name    string `json:"name" validate:"required"`
	URI     string `json:"uri"`
	Ordinal int    `json:"ordinal"`
}

type ContentType string

const (
	ContentTypeCollection ContentType = "collection"
	ContentTypeEpisode    ContentType = "episode"
	ContentTypeScreencast ContentType = "screencast"
	ContentTypeArticle    ContentType = "article"
	ContentTypeProduct    ContentType = "product"
)

// Content is a catalogue item. Children point at their parent through GroupID.
type Content struct {
	ID               int         `json:"id" validate:"required,gt=0"`
	URI              string      `json:"uri"`
	Name             string      `json:"name" validate:"required"`
	Description      string      `json:"description,omitempty"`
	ReleasedAt       time.Time   `json:"released_at"`
	Free             bool        `json:"free"`
	Professional     bool        `json:"professional"`
	DifficultyLevel  string      `json:"difficulty_level,omitempty"`
	ContentType      ContentType `json:"content_type" validate:"required"`
	Duration         int         `json:"duration"`
	GroupID          *int        `json:"group_id,omitempty"`
	Ordinal          int         `json:"ordinal"`
	TechnologyTriple string      `json:"technology_triple,omitempty"`
	Contributors     string      `json:"contributors,omitempty"`
	CardArtworkURL   string      `json:"card_artwork_url,omitempty"`
}

// Group orders the children of a parent content (ContentID).
type Group struct {
	ID          int    `json:"id" validate:"required,gt=0"`
	ContentID   int    `json:"content_id" validate:"required,gt=0"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Ordinal     int    `json:"ordinal"`
}

type ContentDomain struct {
	ContentID int `json:"content_id" validate:"required,gt=0"`
	DomainID  int `json:"domain_id" validate:"required,gt=0"`
}

type ContentCategory struct {
	ContentID  int `json:"content_id" validate:"required,gt=0"`
	CategoryID int `json:"category_id" validate:"required,gt=0"`
}

// Progression is the user's watch progress for one content.
type Progression struct {
	ID        int       `json:"id"`
	ContentID int       `json:"content_id" validate:"required,gt=0"`
	Target    int       `json:"target"`
	Progress  int       `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p Progression) Finished() bool {
	return p.Target > 0 && p.Progress >= p.Target
}

// Proportion returns progress as a value in [0, 1].
func (p Progression) Proportion() float64 {
	if p.Target <= 0 {
		return 0
	}
	if p.Progress >= p.Target {
		return 1
	}
	return float64(p.Progress) / float64(p.Target)
}

type Bookmark struct {
	ID        int       `json:"id"`
	ContentID int       `json:"content_id" validate:"required,gt=0"`
	CreatedAt time.Time `json:"created_at"`
}

type DownloadState string

const (
	DownloadStatePending          DownloadState = "pending"
	DownloadStateURLRequested     DownloadState = "url_requested"
	DownloadStateReadyForDownload DownloadState = "ready_for_download"
	DownloadStateEnqueued         DownloadState = "enqueued"
	DownloadStateInProgress       DownloadState = "in_progress"
	DownloadStatePaused           DownloadState = "paused"
	DownloadStateCancelled        DownloadState = "cancelled"
	DownloadStateFailed           DownloadState = "failed"
	DownloadStateComplete         DownloadState = "complete"
	DownloadStateError            DownloadState = "error"
)

// Download is the local download record of a content. It only lives in the durable store.
type Download struct {
	ID              string        `json:"id"`
	ContentID       int           `json:"content_id" validate:"required,gt=0"`
	RequestedAt     time.Time     `json:"requested_at"`
	LastValidatedAt *time.Time    `json:"last_validated_at,omitempty"`
	FileName        string        `json:"file_name,omitempty"`
	RemoteURL       string        `json:"remote_url,omitempty"`
	Progress        float64       `json:"progress" validate:"gte=0,lte=1"`
	State           DownloadState `json:"state" validate:"required"`
}

// DataCacheUpdate is a batch of entities applied to the cache in one step.
type DataCacheUpdate struct {
	Contents                      []Content         `json:"contents,omitempty"`
	Bookmarks                     []Bookmark        `json:"bookmarks,omitempty"`
	Progressions                  []Progression     `json:"progressions,omitempty"`
	ContentDomains                []ContentDomain   `json:"content_domains,omitempty"`
	ContentCategories             []ContentCategory `json:"content_categories,omitempty"`
	Groups                        []Group           `json:"groups,omitempty"`
	BookmarkDeletionContentIDs    []int             `json:"bookmark_deletion_content_ids,omitempty"`
	ProgressionDeletionContentIDs []int             `json:"progression_deletion_content_ids,omitempty"`
}

// TouchesBookmarks reports whether applying the update changes any bookmark.
func (u DataCacheUpdate) TouchesBookmarks() bool {
	return len(u.Bookmarks) > 0 || len(u.BookmarkDeletionContentIDs) > 0
}

// TouchesProgressions reports whether applying the update changes any progression.
func (u DataCacheUpdate) TouchesProgressions() bool {
	return len(u.Progressions) > 0 || len(u.ProgressionDeletionContentIDs) > 0
}

func (u DataCacheUpdate) IsEmpty() bool {
	return len(u.Contents) == 0 && len(u.Groups) == 0 &&
		len(u.ContentDomains) == 0 && len(u.ContentCategories) == 0 &&
		!u.TouchesBookmarks() && !u.TouchesProgressions()
}

// Merge appends other to u, keeping the order of both batches.
func (u DataCacheUpdate) Merge(other DataCacheUpdate) DataCacheUpdate {
	return DataCacheUpdate{
		Contents:                      append(append([]Content{}, u.Contents...), other.Contents...),
		Bookmarks:                     append(append([]Bookmark{}, u.Bookmarks...), other.Bookmarks...),
		Progressions:                  append(append([]Progression{}, u.Progressions...), other.Progressions...),
		ContentDomains:                append(append([]ContentDomain{}, u.ContentDomains...), other.ContentDomains...),
		ContentCategories:             append(append([]ContentCategory{}, u.ContentCategories...), other.ContentCategories...),
		Groups:                        append(append([]Group{}, u.Groups...), other.Groups...),
		BookmarkDeletionContentIDs:    append(append([]int{}, u.BookmarkDeletionContentIDs...), other.BookmarkDeletionContentIDs...),
		ProgressionDeletionContentIDs: append(append([]int{}, u.ProgressionDeletionContentIDs...), other.ProgressionDeletionContentIDs...),
	}
}
