// Package federation implements the cross-site sync layer: the governing
// site's registry of brand scopes, the brand side's cached view of governing
// configuration, the HTTP sync client and sequential fan-out.
package federation

import (
	"time"

	"github.com/rtCamp/onesearch/internal/index"
	"github.com/rtCamp/onesearch/internal/scope"
)

// Credentials are the search backend credentials the governing site hands
// out. Brand sites only ever receive the search-side key.
type Credentials struct {
	AppID     string `json:"app_id"`
	SearchKey string `json:"search_key"`
	AdminKey  string `json:"admin_key,omitempty"`
	IndexName string `json:"index_name"`
}

// SearchScope is one scope's visibility configuration: whether federated
// search is enabled for it and which other scopes it may search across.
type SearchScope struct {
	Enabled          bool        `json:"enabled"`
	SearchableScopes []scope.Key `json:"searchable_scopes"`
}

// Resolved returns the effective searchable scope set. The scope's own key
// is always included while the scope is enabled.
func (s SearchScope) Resolved(self scope.Key) []scope.Key {
	if !s.Enabled {
		return nil
	}
	out := make([]scope.Key, 0, len(s.SearchableScopes)+1)
	seen := map[scope.Key]bool{}
	for _, k := range append([]scope.Key{self}, s.SearchableScopes...) {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// BrandConfig is the brand-site-local materialized view of governing-site
// configuration, assembled once per fetch and cached.
type BrandConfig struct {
	Credentials     Credentials `json:"credentials"`
	SearchScope     SearchScope `json:"search_scope"`
	IndexableTypes  []string    `json:"indexable_types"`
	AvailableScopes []scope.Key `json:"available_scopes"`
	FetchedAt       time.Time   `json:"fetched_at"`
}

// Sanitize re-normalises every scope key in the config and drops entries
// that fail normalisation, protecting the cache from malformed responses.
func (c BrandConfig) Sanitize() BrandConfig {
	c.SearchScope.SearchableScopes = normalizeKeys(c.SearchScope.SearchableScopes)
	c.AvailableScopes = normalizeKeys(c.AvailableScopes)
	return c
}

// SearchableScopes resolves the brand's effective scope set: the configured
// searchable scopes intersected with what the governing site actually
// exposes.
func (c BrandConfig) SearchableScopes(self scope.Key) []scope.Key {
	resolved := c.SearchScope.Resolved(self)
	if len(c.AvailableScopes) == 0 {
		return resolved
	}
	available := map[scope.Key]bool{self: true}
	for _, k := range c.AvailableScopes {
		available[k] = true
	}
	out := resolved[:0]
	for _, k := range resolved {
		if available[k] {
			out = append(out, k)
		}
	}
	return out
}

// DocumentPush is a brand-to-governing single-document reindex event.
type DocumentPush struct {
	EventID   string         `json:"event_id"`
	Scope     scope.Key      `json:"scope"`
	ContentID int64          `json:"content_id"`
	Type      string         `json:"type"`
	OldStatus string         `json:"old_status"`
	NewStatus string         `json:"new_status"`
	Records   []index.Record `json:"records"`
}

func normalizeKeys(keys []scope.Key) []scope.Key {
	out := make([]scope.Key, 0, len(keys))
	for _, k := range keys {
		normalized, err := scope.Normalize(string(k))
		if err != nil {
			continue
		}
		out = append(out, normalized)
	}
	return out
}
