// Package backend adapts a bleve full-text index to the Backend contract
// the indexing core depends on. One bleve index holds every scope's records;
// partitioning happens through the site field on each record.
package backend

import (
	"context"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/search/query"

	"github.com/rtCamp/onesearch/internal/filter"
	"github.com/rtCamp/onesearch/internal/index"
)

// Bleve implements index.Backend on top of a bleve index. Record metadata is
// kept in a guarded map beside the index so filter expressions and chunk
// lookups never round-trip through stored fields.
type Bleve struct {
	idx bleve.Index

	mu       sync.RWMutex
	records  map[string]index.Record
	settings index.Settings
}

// NewMemory builds an in-memory backend, used by brand-site dev setups and
// tests.
func NewMemory() (*Bleve, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", index.ErrIndexUnavailable, err)
	}
	return &Bleve{idx: idx, records: make(map[string]index.Record)}, nil
}

// Open opens or creates an on-disk backend at path.
func Open(path string) (*Bleve, error) {
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, bleve.NewIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", index.ErrIndexUnavailable, err)
	}
	return &Bleve{idx: idx, records: make(map[string]index.Record)}, nil
}

// Close releases the underlying index.
func (b *Bleve) Close() error { return b.idx.Close() }

// ApplySettings records the schema configuration. Bleve needs no remote
// call; the distinct and snippet fields are honoured at query time.
func (b *Bleve) ApplySettings(ctx context.Context, s index.Settings) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.settings = s
	return nil
}

// UpsertBatch indexes records by ObjectID; rewrites replace in place.
func (b *Bleve) UpsertBatch(ctx context.Context, records []index.Record) error {
	batch := b.idx.NewBatch()
	for _, rec := range records {
		doc := map[string]interface{}{
			"title":   rec.Title,
			"content": rec.Content,
			"excerpt": rec.Excerpt,
		}
		if err := batch.Index(rec.ObjectID, doc); err != nil {
			return fmt.Errorf("%w: index %s: %v", index.ErrIndexUnavailable, rec.ObjectID, err)
		}
	}
	if err := b.idx.Batch(batch); err != nil {
		return fmt.Errorf("%w: %v", index.ErrIndexUnavailable, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, rec := range records {
		b.records[rec.ObjectID] = rec
	}
	return nil
}

// DeleteBy removes every record matching the filter expression.
func (b *Bleve) DeleteBy(ctx context.Context, expr filter.Expr) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	batch := b.idx.NewBatch()
	for id, rec := range b.records {
		if expr == nil || expr.Matches(rec.FilterFields()) {
			batch.Delete(id)
			delete(b.records, id)
		}
	}
	if err := b.idx.Batch(batch); err != nil {
		return fmt.Errorf("%w: %v", index.ErrIndexUnavailable, err)
	}
	return nil
}

// Search runs the full-text query, applies the filter expression, optionally
// collapses chunk records by the distinct field and returns the requested
// page.
func (b *Bleve) Search(ctx context.Context, q index.Query) (index.Result, error) {
	b.mu.RLock()
	total := len(b.records)
	distinctField := b.settings.DistinctField
	b.mu.RUnlock()
	if distinctField == "" {
		distinctField = index.FieldDocumentID
	}

	var bq query.Query
	if q.Text == "" {
		bq = bleve.NewMatchAllQuery()
	} else {
		bq = bleve.NewQueryStringQuery(q.Text)
	}
	size := total
	if size < 1 {
		size = 1
	}
	req := bleve.NewSearchRequestOptions(bq, size, 0, false)
	if q.Highlight {
		req.Highlight = bleve.NewHighlightWithStyle("html")
	}

	res, err := b.idx.SearchInContext(ctx, req)
	if err != nil {
		return index.Result{}, fmt.Errorf("%w: %v", index.ErrIndexUnavailable, err)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	seen := make(map[string]bool)
	var hits []index.Hit
	for _, match := range res.Hits {
		rec, ok := b.records[match.ID]
		if !ok {
			continue
		}
		if q.Filter != nil && !q.Filter.Matches(rec.FilterFields()) {
			continue
		}
		if q.Distinct {
			if seen[rec.DocumentID] {
				continue
			}
			seen[rec.DocumentID] = true
		}
		hit := index.Hit{Record: rec, Score: match.Score}
		if frags, ok := match.Fragments[b.settings.SnippetField]; ok && len(frags) > 0 {
			hit.Snippet = frags[0]
		}
		hits = append(hits, hit)
	}

	result := index.Result{Total: len(hits), Page: q.Page}
	perPage := q.HitsPerPage
	if perPage <= 0 {
		perPage = len(hits)
	}
	start := q.Page * perPage
	if start >= len(hits) {
		return result, nil
	}
	end := start + perPage
	if end > len(hits) {
		end = len(hits)
	}
	result.Hits = hits[start:end]
	return result, nil
}
