// Package content defines the read-only view of the content store that the
// indexing core consumes. The store itself (posts, pages, media, taxonomies)
// is an external collaborator; this package only describes items and a
// narrow paged iteration interface over them.
package content

import (
	"context"
	"errors"
	"time"
)

// Content lifecycle statuses recognised by the indexing core.
const (
	StatusPublish = "publish"
	StatusInherit = "inherit"
	StatusDraft   = "draft"
	StatusTrash   = "trash"
)

// TypeAttachment is the media content type; it uses a wider allowed-status
// set than regular content because media items inherit their parent status.
const TypeAttachment = "attachment"

// ErrNotFound is returned by Source.Get for unknown content IDs.
var ErrNotFound = errors.New("content item not found")

// Author carries the display fields attached to an item.
type Author struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Term is one taxonomy assignment on an item.
type Term struct {
	Taxonomy string `json:"taxonomy"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
}

// Item is a single content document as the store exposes it. The indexing
// core never mutates an Item.
type Item struct {
	ID           int64     `json:"id"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	Title        string    `json:"title"`
	Excerpt      string    `json:"excerpt"`
	Content      string    `json:"content"`
	Terms        []Term    `json:"terms"`
	Author       Author    `json:"author"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Permalink    string    `json:"permalink"`
	PublishedAt  time.Time `json:"published_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Source is the paged read interface over the content store. Pages are
// 1-based; an empty result slice signals the end of iteration.
type Source interface {
	ListByTypeAndStatus(ctx context.Context, types, statuses []string, page, pageSize int) ([]Item, error)
	Get(ctx context.Context, id int64) (Item, error)
}

// AllowedStatuses returns the statuses under which items of contentType are
// indexable. Attachments additionally allow "inherit" because media derives
// its visibility from the parent item.
func AllowedStatuses(contentType string) []string {
	if contentType == TypeAttachment {
		return []string{StatusPublish, StatusInherit}
	}
	return []string{StatusPublish}
}

// StatusAllowed reports whether an item of contentType with the given status
// belongs in the index.
func StatusAllowed(contentType, status string) bool {
	for _, s := range AllowedStatuses(contentType) {
		if s == status {
			return true
		}
	}
	return false
}
