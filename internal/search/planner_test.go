package search

import (
	"context"
	"errors"
	"testing"

	"github.com/rtCamp/onesearch/internal/federation"
	"github.com/rtCamp/onesearch/internal/scope"
	"github.com/rtCamp/onesearch/internal/store"
)

type staticResolver struct {
	keys []scope.Key
	err  error
}

func (r staticResolver) SearchableScopes(context.Context) ([]scope.Key, error) {
	return r.keys, r.err
}

func TestPlanScopeOnly(t *testing.T) {
	p := &Planner{Scopes: staticResolver{keys: []scope.Key{
		"https://a.example.com", "https://b.example.com",
	}}}

	expr, err := p.Plan(context.Background(), nil)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	want := `(site:"https://a.example.com" OR site:"https://b.example.com")`
	if got := expr.Render(); got != want {
		t.Errorf("Plan = %q, want %q", got, want)
	}
}

func TestPlanWithTypes(t *testing.T) {
	p := &Planner{Scopes: staticResolver{keys: []scope.Key{"https://a.example.com"}}}

	expr, err := p.Plan(context.Background(), []string{"post", "page"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	want := `((post_type:"post" OR post_type:"page") AND site:"https://a.example.com")`
	if got := expr.Render(); got != want {
		t.Errorf("Plan = %q, want %q", got, want)
	}
}

func TestPlanPropagatesResolverError(t *testing.T) {
	p := &Planner{Scopes: staticResolver{err: federation.ErrScopeNotConfigured}}
	if _, err := p.Plan(context.Background(), nil); !errors.Is(err, federation.ErrScopeNotConfigured) {
		t.Errorf("expected ErrScopeNotConfigured, got %v", err)
	}
}

func TestRegistryResolverUnconfiguredScope(t *testing.T) {
	self := scope.MustNormalize("https://gov.example.com")
	registry := federation.NewRegistry(store.NewMemoryStore(), self)
	r := RegistryResolver{Registry: registry, Self: self}

	if _, err := r.SearchableScopes(context.Background()); !errors.Is(err, federation.ErrScopeNotConfigured) {
		t.Errorf("expected ErrScopeNotConfigured, got %v", err)
	}
}

func TestRegistryResolverEnabledScope(t *testing.T) {
	self := scope.MustNormalize("https://gov.example.com")
	other := scope.MustNormalize("https://brand.example.com")
	registry := federation.NewRegistry(store.NewMemoryStore(), self)
	ctx := context.Background()

	err := registry.SetSearchScope(ctx, self, federation.SearchScope{
		Enabled:          true,
		SearchableScopes: []scope.Key{other},
	})
	if err != nil {
		t.Fatalf("SetSearchScope: %v", err)
	}

	r := RegistryResolver{Registry: registry, Self: self}
	keys, err := r.SearchableScopes(ctx)
	if err != nil {
		t.Fatalf("SearchableScopes: %v", err)
	}
	if len(keys) != 2 || keys[0] != self || keys[1] != other {
		t.Errorf("keys = %v", keys)
	}
}
