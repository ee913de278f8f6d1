package federation

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/rtCamp/onesearch/internal/scope"
	"github.com/rtCamp/onesearch/internal/store"
)

type countingFetcher struct {
	calls int
	cfg   BrandConfig
	err   error
}

func (f *countingFetcher) FetchConfig(context.Context) (BrandConfig, error) {
	f.calls++
	return f.cfg, f.err
}

func newTestCache(fetcher ConfigFetcher) *Cache {
	c := NewCache(store.NewMemoryStore(), fetcher)
	c.Logger = log.New(io.Discard, "", 0)
	return c
}

func TestCacheFetchesOnce(t *testing.T) {
	fetcher := &countingFetcher{cfg: BrandConfig{
		SearchScope:    SearchScope{Enabled: true},
		IndexableTypes: []string{"post"},
	}}
	cache := newTestCache(fetcher)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		cfg, err := cache.Config(ctx)
		if err != nil {
			t.Fatalf("Config: %v", err)
		}
		if len(cfg.IndexableTypes) != 1 || cfg.IndexableTypes[0] != "post" {
			t.Fatalf("unexpected config: %+v", cfg)
		}
	}
	if fetcher.calls != 1 {
		t.Errorf("fetched %d times, want 1", fetcher.calls)
	}
}

func TestCacheInvalidateForcesRefetch(t *testing.T) {
	fetcher := &countingFetcher{cfg: BrandConfig{SearchScope: SearchScope{Enabled: true}}}
	cache := newTestCache(fetcher)
	ctx := context.Background()

	if _, err := cache.Config(ctx); err != nil {
		t.Fatalf("Config: %v", err)
	}
	if err := cache.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := cache.Config(ctx); err != nil {
		t.Fatalf("Config after invalidate: %v", err)
	}
	if fetcher.calls != 2 {
		t.Errorf("fetched %d times, want 2", fetcher.calls)
	}
}

func TestCacheUnreachableReturnsDisabledConfig(t *testing.T) {
	fetcher := &countingFetcher{err: errors.New("connection refused")}
	cache := newTestCache(fetcher)

	cfg, err := cache.Config(context.Background())
	if !errors.Is(err, ErrRemoteUnreachable) {
		t.Fatalf("expected ErrRemoteUnreachable, got %v", err)
	}
	if cfg.SearchScope.Enabled {
		t.Error("fallback config must be disabled")
	}
	if len(cfg.SearchableScopes(scope.MustNormalize("https://brand.example.com"))) != 0 {
		t.Error("fallback config must resolve no scopes")
	}
}

func TestCacheFailureIsNotCached(t *testing.T) {
	fetcher := &countingFetcher{err: errors.New("down")}
	cache := newTestCache(fetcher)
	ctx := context.Background()

	_, _ = cache.Config(ctx)
	fetcher.err = nil
	fetcher.cfg = BrandConfig{SearchScope: SearchScope{Enabled: true}}

	cfg, err := cache.Config(ctx)
	if err != nil {
		t.Fatalf("Config after recovery: %v", err)
	}
	if !cfg.SearchScope.Enabled {
		t.Error("recovered config not served")
	}
	if fetcher.calls != 2 {
		t.Errorf("fetched %d times, want 2", fetcher.calls)
	}
}

func TestCacheSanitizesScopeKeys(t *testing.T) {
	fetcher := &countingFetcher{cfg: BrandConfig{
		SearchScope: SearchScope{
			Enabled:          true,
			SearchableScopes: []scope.Key{"HTTPS://Other.Example.COM/", "not a url %%%", ""},
		},
	}}
	cache := newTestCache(fetcher)

	cfg, err := cache.Config(context.Background())
	if err != nil {
		t.Fatalf("Config: %v", err)
	}
	got := cfg.SearchScope.SearchableScopes
	if len(got) != 1 || got[0] != "https://other.example.com" {
		t.Errorf("sanitized scopes = %v", got)
	}
	if cfg.FetchedAt.IsZero() {
		t.Error("FetchedAt not stamped")
	}
}
