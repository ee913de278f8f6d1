// Package server wires the HTTP surface: the cross-site sync protocol, the
// federated search endpoint and operational routes.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rtCamp/onesearch/config"
	"github.com/rtCamp/onesearch/internal/backend"
	"github.com/rtCamp/onesearch/internal/content"
	"github.com/rtCamp/onesearch/internal/federation"
	"github.com/rtCamp/onesearch/internal/index"
	"github.com/rtCamp/onesearch/internal/scope"
	"github.com/rtCamp/onesearch/internal/search"
	"github.com/rtCamp/onesearch/internal/store"
)

// Run builds the full dependency graph for the configured role and serves
// until the listener fails.
func Run(cfg *config.Config) error {
	e := newEcho()
	ctx := context.Background()

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

	executor := &search.Executor{Backend: idx}
	reconstructor := search.NewReconstructor(idx, source, self)
	reconstructor.ChunkBatchSize = cfg.Search.ChunkBatchSize

	switch cfg.General.Role {
	case config.RoleGoverning:
		registry := federation.NewRegistry(configStore, self)
		coordinator := federation.NewCoordinator(registry, cfg.Federation.PushTimeout)
		planner := &search.Planner{Scopes: search.RegistryResolver{Registry: registry, Self: self}}

		sync := &SyncHandler{
			Registry:    registry,
			Coordinator: coordinator,
			Writer:      writer,
			Self:        self,
			AdminSecret: cfg.Federation.SharedSecret,
			Logger:      log.New(log.Writer(), "[SYNC] ", log.LstdFlags),
		}
		sync.Register(e.Group("/sync"))

		watcher := &index.Watcher{
			Role:    config.RoleGoverning,
			Scope:   self,
			Writer:  writer,
			Builder: builder,
			Logger:  log.New(log.Writer(), "[INDEX] ", log.LstdFlags),
			IndexableTypes: func(ctx context.Context) ([]string, error) {
				return registry.EntityMapFor(ctx, self)
			},
		}
		ch := &ChangeHandler{Watcher: watcher, Secret: cfg.Federation.SharedSecret}
		ch.Register(e.Group("/sync"))

		sh := &SearchHandler{Planner: planner, Executor: executor, Reconstructor: reconstructor, PerPage: cfg.Search.HitsPerPage}
		sh.Register(e.Group("/api"))

		if spec := cfg.Index.ReindexSchedule; spec != "" {
			sched, err := NewScheduler(spec, func(ctx context.Context) error {
				types, err := registry.EntityMapFor(ctx, self)
				if err != nil {
					return err
				}
				_, err = writer.IndexAll(ctx, types, self)
				return err
			})
			if err != nil {
				return fmt.Errorf("index.reindex_schedule: %w", err)
			}
			go sched.Run(ctx)
		}

	case config.RoleBrand:
		client := federation.NewClient(cfg.Federation.GoverningURL, cfg.Federation.SharedSecret, self)
		cache := federation.NewCache(configStore, client)
		cache.TTL = cfg.Federation.CacheTTL
		planner := &search.Planner{Scopes: search.CacheResolver{Cache: cache, Self: self}}

		brand := &BrandHandler{
			Cache:  cache,
			Writer: writer,
			Cfg:    cfg,
			Self:   self,
			Logger: log.New(log.Writer(), "[SYNC] ", log.LstdFlags),
		}
		brand.Register(e.Group("/sync"))

		watcher := &index.Watcher{
			Role:    config.RoleBrand,
			Scope:   self,
			Writer:  writer,
			Builder: builder,
			Pusher:  client,
			Logger:  log.New(log.Writer(), "[INDEX] ", log.LstdFlags),
			IndexableTypes: func(ctx context.Context) ([]string, error) {
				brandCfg, err := cache.Config(ctx)
				if err != nil {
					return nil, err
				}
				return brandCfg.IndexableTypes, nil
			},
		}
		ch := &ChangeHandler{Watcher: watcher, Secret: cfg.Federation.SharedSecret}
		ch.Register(e.Group("/sync"))

		sh := &SearchHandler{Planner: planner, Executor: executor, Reconstructor: reconstructor, PerPage: cfg.Search.HitsPerPage}
		sh.Register(e.Group("/api"))

		if spec := cfg.Index.ReindexSchedule; spec != "" {
			sched, err := NewScheduler(spec, func(ctx context.Context) error {
				brandCfg, err := cache.Config(ctx)
				if err != nil {
					return err
				}
				_, err = writer.IndexAll(ctx, brandCfg.IndexableTypes, self)
				return err
			})
			if err != nil {
				return fmt.Errorf("index.reindex_schedule: %w", err)
			}
			go sched.Run(ctx)
		}

	default:
		return fmt.Errorf("unknown role %q", cfg.General.Role)
	}

	addr := cfg.General.Listen
	if addr == "" {
		addr = ":10080"
	}
	log.Printf("listening on %s as %s site %s", addr, cfg.General.Role, self)
	return e.Start(addr)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, federation.Envelope{Success: false, Message: msg})
		}
	}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	return e
}

func buildConfigStore(ctx context.Context, cfg *config.Config) (store.ConfigStore, error) {
	addr := cfg.Storage.Redis.Addr()
	if addr == "" {
		return store.NewMemoryStore(), nil
	}
	return store.NewRedisStore(ctx, addr, cfg.Storage.Redis.Password, cfg.Storage.Redis.DB, cfg.Storage.Redis.Timeout)
}

func buildBackend(cfg *config.Config) (index.Backend, error) {
	if cfg.Index.Path != "" {
		return backend.Open(cfg.Index.Path)
	}
	return backend.NewMemory()
}

func buildSource(ctx context.Context, cfg *config.Config) (content.Source, error) {
	dsn, err := cfg.Storage.Postgres.DSN()
	if err != nil {
		// No content store configured: serve search only.
		return content.NewMemorySource(), nil
	}
	return content.NewPostgresSource(ctx, dsn)
}
