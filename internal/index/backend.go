package index

import (
	"context"
	"errors"

	"github.com/rtCamp/onesearch/internal/filter"
)

var (
	// ErrIndexUnavailable wraps backend failures at the package boundary so
	// callers never see raw backend errors.
	ErrIndexUnavailable = errors.New("search index unavailable")
	// ErrCredentialsMissing is returned when no write credentials are
	// configured for the backend.
	ErrCredentialsMissing = errors.New("index credentials missing")
)

// Settings is the index schema configuration applied once per writer
// lifetime: which field collapses chunks, which fields are searchable and
// facetable, and which field snippets come from.
type Settings struct {
	DistinctField    string
	SearchableFields []string
	FacetFields      []string
	SnippetField     string
}

// DefaultSettings returns the schema the federated index runs with.
func DefaultSettings() Settings {
	return Settings{
		DistinctField:    FieldDocumentID,
		SearchableFields: []string{"title", "content", "excerpt"},
		FacetFields:      []string{FieldSite, FieldType},
		SnippetField:     "content",
	}
}

// Query is one search request against the backend.
type Query struct {
	Text        string
	Filter      filter.Expr // nil means unrestricted
	Page        int         // zero-based
	HitsPerPage int
	Distinct    bool // collapse records sharing the distinct field
	Highlight   bool
}

// RankingInfo carries the per-hit ranking signals some backends surface
// instead of a single score scalar.
type RankingInfo struct {
	UserScore         int
	Words             int
	Typos             int
	ProximityDistance int
	GeoDistance       int
}

// Hit is one search result record plus its relevance signals.
type Hit struct {
	Record
	Score   float64
	Ranking *RankingInfo
	Snippet string
}

// Result is one page of hits.
type Result struct {
	Hits  []Hit
	Total int
	Page  int
}

// Backend is the narrow interface the core needs from the shared search
// index. Implementations convert their native failures into
// ErrIndexUnavailable-wrapped errors.
type Backend interface {
	ApplySettings(ctx context.Context, s Settings) error
	DeleteBy(ctx context.Context, expr filter.Expr) error
	UpsertBatch(ctx context.Context, records []Record) error
	Search(ctx context.Context, q Query) (Result, error)
}
