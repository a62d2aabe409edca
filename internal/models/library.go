package models

import "time"

// ResourceType categorises library resources.
type ResourceType string

const (
	ResourceBook     ResourceType = "book"
	ResourceArticle  ResourceType = "article"
	ResourceGuide    ResourceType = "guide"
	ResourceResearch ResourceType = "research"
	ResourceOther    ResourceType = "other"
)

// Valid returns true when the resource type is a supported value.
func (t ResourceType) Valid() bool {
	switch t {
	case ResourceBook, ResourceArticle, ResourceGuide, ResourceResearch, ResourceOther:
		return true
	default:
		return false
	}
}

// LibraryResource is a shared reading resource available to all teachers.
type LibraryResource struct {
	ID           string       `db:"id" json:"id"`
	Title        string       `db:"title" json:"title"`
	Author       string       `db:"author" json:"author"`
	Description  string       `db:"description" json:"description"`
	ResourceType ResourceType `db:"resource_type" json:"resource_type"`
	FilePath     *string      `db:"file_path" json:"file_path,omitempty"`
	URL          *string      `db:"url" json:"url,omitempty"`
	CoverImage   *string      `db:"cover_image" json:"cover_image,omitempty"`
	Views        int          `db:"views" json:"views"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
}

// LibraryFilter captures filtering criteria for listing resources.
type LibraryFilter struct {
	ResourceType ResourceType
	Search       string
	Page         int
	PageSize     int
}
