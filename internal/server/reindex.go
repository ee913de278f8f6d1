package server

import (
	"context"
	"fmt"
	"log"

	"github.com/rtCamp/onesearch/config"
	"github.com/rtCamp/onesearch/internal/federation"
	"github.com/rtCamp/onesearch/internal/index"
	"github.com/rtCamp/onesearch/internal/scope"
)

// Reindex rebuilds this site's partition of the shared index from the
// content store. On the governing site, all=true additionally triggers a
// rebuild on every registered brand and prints per-scope outcomes.
func Reindex(ctx context.Context, cfg *config.Config, all bool) error {
	self, err := scope.Normalize(cfg.General.SiteURL)
	if err != nil {
		return fmt.Errorf("normalize site url: %w", err)
	}

	configStore, err := buildConfigStore(ctx, cfg)
	if err != nil {
		return err
	}
	idx, err := buildBackend(cfg)
	if err != nil {
		return err
	}
	source, err := buildSource(ctx, cfg)
	if err != nil {
		return err
	}

	builder := index.NewBuilder(self)
	builder.SizeLimit = cfg.Index.RecordSizeLimit
	writer := index.NewWriter(idx, source, builder)
	writer.BatchSize = cfg.Index.BatchSize

	var types []string
	switch cfg.General.Role {
	case config.RoleGoverning:
		registry := federation.NewRegistry(configStore, self)
		types, err = registry.EntityMapFor(ctx, self)
		if err != nil {
			return err
		}
		if all {
			coordinator := federation.NewCoordinator(registry, cfg.Federation.PushTimeout)
			result, err := coordinator.TriggerReindexAll(ctx)
			if err != nil {
				return err
			}
			log.Printf("brand reindex fan-out:\n%s", result.Summary())
		}
	case config.RoleBrand:
		client := federation.NewClient(cfg.Federation.GoverningURL, cfg.Federation.SharedSecret, self)
		cache := federation.NewCache(configStore, client)
		cache.TTL = cfg.Federation.CacheTTL
		brandCfg, err := cache.Config(ctx)
		if err != nil {
			return err
		}
		types = brandCfg.IndexableTypes
	default:
		return fmt.Errorf("unknown role %q", cfg.General.Role)
	}

	ok, err := writer.IndexAll(ctx, types, self)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("reindex of %s completed with failed batches", self)
	}
	log.Printf("reindexed %s (%d types)", self, len(types))
	return nil
}
