package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/rtCamp/onesearch/internal/store"
)

const brandConfigKey = "brand_config"

// DefaultCacheTTL bounds how stale a cached brand config may get before the
// next read refetches it.
const DefaultCacheTTL = 7 * 24 * time.Hour

// ConfigFetcher retrieves the brand's config from the governing site.
type ConfigFetcher interface {
	FetchConfig(ctx context.Context) (BrandConfig, error)
}

// Cache is the brand-site-side cache of governing configuration. Reads are
// cache-aside: a valid cached entry never touches the network, a miss
// fetches once and caches for the TTL. Invalidate drops the entry so the
// next read refetches.
type Cache struct {
	Store   store.ConfigStore
	Fetcher ConfigFetcher
	TTL     time.Duration
	Logger  *log.Logger
}

// NewCache wires a Cache with the default TTL.
func NewCache(st store.ConfigStore, fetcher ConfigFetcher) *Cache {
	return &Cache{
		Store:   st,
		Fetcher: fetcher,
		TTL:     DefaultCacheTTL,
		Logger:  log.New(log.Writer(), "[SYNC] ", log.LstdFlags),
	}
}

func (c *Cache) ttl() time.Duration {
	if c.TTL > 0 {
		return c.TTL
	}
	return DefaultCacheTTL
}

// Config returns the cached brand config, fetching and caching it when
// absent or expired. When the governing site is unreachable it returns a
// disabled zero config alongside the error so search degrades instead of
// blocking.
func (c *Cache) Config(ctx context.Context) (BrandConfig, error) {
	if raw, ok, err := c.Store.Get(ctx, brandConfigKey); err == nil && ok {
		var cfg BrandConfig
		if err := json.Unmarshal(raw, &cfg); err == nil {
			return cfg, nil
		}
		c.Logger.Printf("discarding corrupt cached config")
		_ = c.Store.Delete(ctx, brandConfigKey)
	}

	cfg, err := c.Fetcher.FetchConfig(ctx)
	if err != nil {
		c.Logger.Printf("config fetch failed, search disabled until next attempt: %v", err)
		return BrandConfig{}, fmt.Errorf("%w: %v", ErrRemoteUnreachable, err)
	}
	cfg = cfg.Sanitize()
	cfg.FetchedAt = time.Now()

	raw, err := json.Marshal(cfg)
	if err == nil {
		if err := c.Store.Set(ctx, brandConfigKey, raw, c.ttl()); err != nil {
			c.Logger.Printf("caching config: %v", err)
		}
	}
	return cfg, nil
}

// Invalidate drops the cached entry. Called when the governing site pushes a
// change notification.
func (c *Cache) Invalidate(ctx context.Context) error {
	return c.Store.Delete(ctx, brandConfigKey)
}
