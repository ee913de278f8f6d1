package search

import (
	"context"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rtCamp/onesearch/internal/filter"
	"github.com/rtCamp/onesearch/internal/index"
)

// DefaultHitsPerPage is the page size when the caller does not choose one.
const DefaultHitsPerPage = 10

var searchesExecuted = promauto.NewCounter(prometheus.CounterOpts{
	Name: "onesearch_searches_total",
	Help: "Federated searches executed against the shared index.",
})

// Executor runs one query against the shared index. Results are distinct by
// document, so chunked documents surface at most one representative, and
// pagination counts logical documents rather than physical records.
type Executor struct {
	Backend index.Backend
}

// Search executes the query. Pages are 1-based on this side and translated
// to the backend's zero-based indexing.
func (e *Executor) Search(ctx context.Context, text string, expr filter.Expr, page, perPage int) (index.Result, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultHitsPerPage
	}
	res, err := e.Backend.Search(ctx, index.Query{
		Text:        text,
		Filter:      expr,
		Page:        page - 1,
		HitsPerPage: perPage,
		Distinct:    true,
		Highlight:   true,
	})
	if err != nil {
		return index.Result{}, err
	}
	searchesExecuted.Inc()

	sort.SliceStable(res.Hits, func(i, j int) bool {
		return CompositeScore(res.Hits[i]) > CompositeScore(res.Hits[j])
	})
	return res, nil
}

// CompositeScore prefers the backend's native ranking score and falls back
// to deriving one from per-hit ranking signals, because not every backend
// version surfaces a single scalar. Higher is better.
func CompositeScore(h index.Hit) float64 {
	if h.Score > 0 {
		return h.Score
	}
	r := h.Ranking
	if r == nil {
		return 0
	}
	return float64(r.UserScore)*1e6 +
		float64(r.Words)*1e3 -
		float64(r.Typos)*1e4 -
		float64(r.ProximityDistance) -
		float64(r.GeoDistance)/1000
}
