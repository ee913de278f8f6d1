package federation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rtCamp/onesearch/internal/scope"
)

// StatusOK marks a successful per-scope fan-out outcome.
const StatusOK = "ok"

// DefaultCallTimeout bounds each individual fan-out call.
const DefaultCallTimeout = 10 * time.Second

var fanoutFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "onesearch_fanout_failures_total",
	Help: "Individual brand-site calls that failed during fan-out.",
})

// FanoutResult aggregates the per-scope outcomes of a governing-to-brand
// fan-out. OK is true only when every call succeeded.
type FanoutResult struct {
	Results map[scope.Key]string `json:"results"`
	OK      bool                 `json:"success"`
}

// Summary renders a human-readable per-scope status, one line per scope.
func (r FanoutResult) Summary() string {
	keys := make([]string, 0, len(r.Results))
	for k := range r.Results {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", k, r.Results[scope.Key(k)]))
	}
	return strings.Join(lines, "\n")
}

// Fanout calls fn once per brand, sequentially, each call bounded by
// timeout. One unreachable brand never blocks or fails the others; every
// outcome is captured independently.
func Fanout(ctx context.Context, brands []Brand, timeout time.Duration, fn func(ctx context.Context, b Brand) error) FanoutResult {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	result := FanoutResult{Results: make(map[scope.Key]string, len(brands)), OK: true}
	for _, brand := range brands {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		err := fn(callCtx, brand)
		cancel()
		if err != nil {
			fanoutFailures.Inc()
			result.Results[brand.Scope] = "error: " + err.Error()
			result.OK = false
			continue
		}
		result.Results[brand.Scope] = StatusOK
	}
	return result
}
