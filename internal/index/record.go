// Package index converts content items into size-bounded index records and
// writes them to the shared search backend. A logical document maps to one
// or more chunk records sharing a document_id; the backend collapses chunks
// at query time via its distinct feature.
package index

import "encoding/json"

// Field names shared between records, filters and backend settings.
const (
	FieldSite       = "site"
	FieldDocumentID = "document_id"
	FieldType       = "post_type"
)

// Record is one write unit in the shared index. Chunked documents produce
// several records that differ only in ObjectID, Content and ChunkIndex.
type Record struct {
	ObjectID     string              `json:"objectID"`
	DocumentID   string              `json:"document_id"`
	Site         string              `json:"site"`
	ContentID    int64               `json:"content_id"`
	Type         string              `json:"post_type"`
	Title        string              `json:"title"`
	Excerpt      string              `json:"excerpt"`
	Content      string              `json:"content"`
	ChunkIndex   int                 `json:"chunk_index"`
	TotalChunks  int                 `json:"total_chunks"`
	Permalink    string              `json:"permalink"`
	ThumbnailURL string              `json:"thumbnail_url,omitempty"`
	AuthorName   string              `json:"author_name,omitempty"`
	AuthorURL    string              `json:"author_url,omitempty"`
	Terms        map[string][]string `json:"terms,omitempty"`
	PublishedAt  int64               `json:"published_at"`
	UpdatedAt    int64               `json:"updated_at"`
}

// EncodedSize returns the size in bytes of the record's wire form. The
// builder budgets chunk content against this so no record exceeds the
// backend's per-record ceiling.
func (r Record) EncodedSize() int {
	b, err := json.Marshal(r)
	if err != nil {
		return 0
	}
	return len(b)
}

// FilterFields exposes the fields filter expressions may restrict on.
func (r Record) FilterFields() map[string]string {
	return map[string]string{
		FieldSite:       r.Site,
		FieldDocumentID: r.DocumentID,
		FieldType:       r.Type,
	}
}
