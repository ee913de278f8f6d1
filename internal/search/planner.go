// Package search executes federated queries: planning scope-restricted
// filters, running the distinct search, re-ranking hits and reassembling
// chunked documents into full results.
package search

import (
	"context"
	"fmt"

	"github.com/rtCamp/onesearch/internal/federation"
	"github.com/rtCamp/onesearch/internal/filter"
	"github.com/rtCamp/onesearch/internal/index"
	"github.com/rtCamp/onesearch/internal/scope"
)

// ScopeResolver yields the caller's effective searchable scope set.
type ScopeResolver interface {
	SearchableScopes(ctx context.Context) ([]scope.Key, error)
}

// RegistryResolver resolves scopes for the governing role straight from the
// local registry.
type RegistryResolver struct {
	Registry *federation.Registry
	Self     scope.Key
}

func (r RegistryResolver) SearchableScopes(ctx context.Context) ([]scope.Key, error) {
	ss, err := r.Registry.SearchScopeFor(ctx, r.Self)
	if err != nil {
		return nil, err
	}
	keys := ss.Resolved(r.Self)
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: %s", federation.ErrScopeNotConfigured, r.Self)
	}
	return keys, nil
}

// CacheResolver resolves scopes for the brand role from the cached brand
// config, intersected with the scopes the governing site exposes.
type CacheResolver struct {
	Cache *federation.Cache
	Self  scope.Key
}

func (r CacheResolver) SearchableScopes(ctx context.Context) ([]scope.Key, error) {
	cfg, err := r.Cache.Config(ctx)
	if err != nil {
		return nil, err
	}
	keys := cfg.SearchableScopes(r.Self)
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: %s", federation.ErrScopeNotConfigured, r.Self)
	}
	return keys, nil
}

// Planner builds the filter expression a federated query runs under.
type Planner struct {
	Scopes ScopeResolver
}

// Plan combines the caller's type restriction with the resolved scope
// restriction. Search never reaches outside the resolved scope set; a query
// with no resolvable scopes fails rather than running unrestricted.
func (p *Planner) Plan(ctx context.Context, types []string) (filter.Expr, error) {
	keys, err := p.Scopes.SearchableScopes(ctx)
	if err != nil {
		return nil, err
	}
	values := make([]string, len(keys))
	for i, k := range keys {
		values[i] = string(k)
	}
	scopeExpr := filter.In(index.FieldSite, values...)
	if len(types) == 0 {
		return scopeExpr, nil
	}
	return filter.And(filter.In(index.FieldType, types...), scopeExpr), nil
}
