package search

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rtCamp/onesearch/internal/content"
	"github.com/rtCamp/onesearch/internal/filter"
	"github.com/rtCamp/onesearch/internal/index"
	"github.com/rtCamp/onesearch/internal/scope"
)

// DefaultChunkBatchSize caps how many document IDs one chunk-refetch query
// carries.
const DefaultChunkBatchSize = 20

var chunkBatches = promauto.NewCounter(prometheus.CounterOpts{
	Name: "onesearch_chunk_refetch_batches_total",
	Help: "Chunk refetch queries issued while reconstructing documents.",
})

// RemoteDocument is the placeholder for a hit whose content physically lives
// on another site. Its identity uses a disjoint negative ID namespace so it
// can never collide with a locally addressable document, and its link,
// author and taxonomy data travel as plain attached fields rather than live
// relations.
type RemoteDocument struct {
	ID           int64               `json:"id"`
	Site         string              `json:"site"`
	Title        string              `json:"title"`
	Excerpt      string              `json:"excerpt"`
	Permalink    string              `json:"permalink"`
	AuthorName   string              `json:"author_name"`
	AuthorURL    string              `json:"author_url"`
	ThumbnailURL string              `json:"thumbnail_url"`
	Terms        map[string][]string `json:"terms"`
}

// RemoteID maps an original content ID into the synthetic namespace.
func RemoteID(originalID int64) int64 { return -1 - originalID }

// Document is one reconstructed search result: either the canonical local
// item or a remote placeholder, never both.
type Document struct {
	Local   *content.Item   `json:"local,omitempty"`
	Remote  *RemoteDocument `json:"remote,omitempty"`
	Content string          `json:"content"`
	Snippet string          `json:"snippet,omitempty"`
	Score   float64         `json:"score"`
}

// IsRemote reports whether the document is a placeholder for remote content.
func (d Document) IsRemote() bool { return d.Remote != nil }

// Reconstructor assembles full documents for a page of hits.
type Reconstructor struct {
	Backend        index.Backend
	Source         content.Source
	Scope          scope.Key
	Logger         *log.Logger
	ChunkBatchSize int
}

// NewReconstructor wires a Reconstructor with defaults.
func NewReconstructor(backend index.Backend, source content.Source, key scope.Key) *Reconstructor {
	return &Reconstructor{
		Backend:        backend,
		Source:         source,
		Scope:          key,
		Logger:         log.New(log.Writer(), "[SEARCH] ", log.LstdFlags),
		ChunkBatchSize: DefaultChunkBatchSize,
	}
}

func (r *Reconstructor) batchSize() int {
	if r.ChunkBatchSize > 0 {
		return r.ChunkBatchSize
	}
	return DefaultChunkBatchSize
}

// Reconstruct turns the hits of one result page into full documents. Local
// hits resolve through the content source; hits from other scopes become
// remote placeholders. Chunked documents get their remaining chunks fetched
// in batches; a failed batch degrades those documents to the single
// representative chunk instead of failing the page.
func (r *Reconstructor) Reconstruct(ctx context.Context, hits []index.Hit) []Document {
	full := r.fetchChunked(ctx, hits)

	docs := make([]Document, 0, len(hits))
	for _, hit := range hits {
		text := TrimMarker(hit.Content)
		if assembled, ok := full[hit.DocumentID]; ok {
			text = assembled
		}

		doc := Document{Content: text, Snippet: hit.Snippet, Score: CompositeScore(hit)}
		if hit.Site == r.Scope.String() && r.Source != nil {
			item, err := r.Source.Get(ctx, hit.ContentID)
			if err == nil {
				doc.Local = &item
				docs = append(docs, doc)
				continue
			}
			r.Logger.Printf("local item %d missing, serving placeholder: %v", hit.ContentID, err)
		}
		doc.Remote = &RemoteDocument{
			ID:           RemoteID(hit.ContentID),
			Site:         hit.Site,
			Title:        hit.Title,
			Excerpt:      hit.Excerpt,
			Permalink:    hit.Permalink,
			AuthorName:   hit.AuthorName,
			AuthorURL:    hit.AuthorURL,
			ThumbnailURL: hit.ThumbnailURL,
			Terms:        hit.Terms,
		}
		docs = append(docs, doc)
	}
	return docs
}

// fetchChunked refetches every chunk of multi-chunk documents and returns
// assembled full text keyed by document ID.
func (r *Reconstructor) fetchChunked(ctx context.Context, hits []index.Hit) map[string]string {
	var ids []string
	for _, hit := range hits {
		if hit.TotalChunks > 1 {
			ids = append(ids, hit.DocumentID)
		}
	}

	full := make(map[string]string)
	for start := 0; start < len(ids); start += r.batchSize() {
		end := start + r.batchSize()
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]
		chunkBatches.Inc()

		res, err := r.Backend.Search(ctx, index.Query{
			Filter:   filter.In(index.FieldDocumentID, batch...),
			Distinct: false,
		})
		if err != nil {
			r.Logger.Printf("chunk refetch for %d documents: %v", len(batch), err)
			continue
		}

		byDoc := make(map[string][]index.Record)
		for _, hit := range res.Hits {
			byDoc[hit.DocumentID] = append(byDoc[hit.DocumentID], hit.Record)
		}
		for docID, records := range byDoc {
			full[docID] = JoinChunks(records)
		}
	}
	return full
}

// JoinChunks reassembles a document's text from its chunk records, ordered
// by chunk index with continuation markers stripped. Chunks carry their own
// boundary spaces, so plain concatenation restores the original text even
// when a cut landed inside a word.
func JoinChunks(records []index.Record) string {
	sort.Slice(records, func(i, j int) bool { return records[i].ChunkIndex < records[j].ChunkIndex })
	var joined strings.Builder
	for _, rec := range records {
		joined.WriteString(TrimMarker(rec.Content))
	}
	return joined.String()
}

// TrimMarker drops the continuation marker a non-first chunk carries.
func TrimMarker(chunk string) string {
	return strings.TrimPrefix(chunk, index.ContinuationMarker)
}
