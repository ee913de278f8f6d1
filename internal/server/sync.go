package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rtCamp/onesearch/internal/federation"
	"github.com/rtCamp/onesearch/internal/index"
	"github.com/rtCamp/onesearch/internal/scope"
)

// SyncHandler serves the governing side of the cross-site sync protocol.
// Brand-authenticated routes use each scope's registered secret; admin
// routes use the governing site's own shared secret.
type SyncHandler struct {
	Registry    *federation.Registry
	Coordinator *federation.Coordinator
	Writer      *index.Writer
	Self        scope.Key
	AdminSecret string
	Logger      *log.Logger
}

func (h *SyncHandler) Register(g *echo.Group) {
	brand := func(fn echo.HandlerFunc) echo.HandlerFunc { return withBrandAuth(fn, h.Registry) }
	admin := func(fn echo.HandlerFunc) echo.HandlerFunc { return withSecret(fn, h.AdminSecret) }

	g.GET("/config", brand(h.getConfig))
	g.POST("/document", brand(h.pushDocument))
	g.GET("/scopes", brand(h.getScopes))
	g.GET("/entity-map", brand(h.getEntityMap))
	g.GET("/search-scope", brand(h.getSearchScope))

	g.POST("/register", admin(h.registerBrand))
	g.POST("/credentials", admin(h.setCredentials))
	g.POST("/entity-map", admin(h.setEntityMap))
	g.POST("/search-scope", admin(h.setSearchScope))
	g.POST("/reindex", admin(h.reindex))
	g.POST("/cache-bust", admin(h.cacheBust))
}

func (h *SyncHandler) getConfig(c echo.Context) error {
	cfg, err := h.Registry.BrandConfigFor(c.Request().Context(), callerScope(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return respond(c, cfg)
}

// pushDocument applies a brand site's content change against the shared
// index on the brand's behalf: delete first, then write whatever records the
// brand built. An empty record set means the new status is not indexable and
// the delete is the whole operation.
func (h *SyncHandler) pushDocument(c echo.Context) error {
	var push federation.DocumentPush
	if err := c.Bind(&push); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	caller := callerScope(c)
	if push.Scope != caller {
		return echo.NewHTTPError(http.StatusForbidden, "push scope does not match authenticated scope")
	}
	for _, rec := range push.Records {
		if rec.Site != caller.String() {
			return echo.NewHTTPError(http.StatusBadRequest, "record site does not match push scope")
		}
	}

	ctx := c.Request().Context()
	docID := push.Scope.DocumentID(push.ContentID)
	if err := h.Writer.DeleteDocument(ctx, docID); err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	if len(push.Records) > 0 {
		if err := h.Writer.WriteBatch(ctx, push.Records); err != nil {
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		}
	}
	h.Logger.Printf("applied push %s for %s (%s -> %s, %d records)",
		push.EventID, docID, push.OldStatus, push.NewStatus, len(push.Records))
	return respond(c, map[string]int{"records": len(push.Records)})
}

func (h *SyncHandler) getScopes(c echo.Context) error {
	scopes, err := h.Registry.AvailableScopes(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return respond(c, scopes)
}

func (h *SyncHandler) getEntityMap(c echo.Context) error {
	types, err := h.Registry.EntityMapFor(c.Request().Context(), callerScope(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return respond(c, types)
}

func (h *SyncHandler) getSearchScope(c echo.Context) error {
	ss, err := h.Registry.SearchScopeFor(c.Request().Context(), callerScope(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return respond(c, ss)
}

func (h *SyncHandler) registerBrand(c echo.Context) error {
	var req struct {
		Scope  string `json:"scope"`
		URL    string `json:"url"`
		Secret string `json:"secret"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	key, err := scope.Normalize(req.Scope)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid scope")
	}
	if req.Secret == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "secret required")
	}
	if err := h.Registry.Register(c.Request().Context(), key, req.URL, req.Secret); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return respond(c, map[string]string{"scope": string(key)})
}

func (h *SyncHandler) setCredentials(c echo.Context) error {
	var creds federation.Credentials
	if err := c.Bind(&creds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.Registry.SetCredentials(c.Request().Context(), creds); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.bustBrandCaches("credentials changed")
	return respond(c, nil)
}

func (h *SyncHandler) setEntityMap(c echo.Context) error {
	var req struct {
		Scope string   `json:"scope"`
		Types []string `json:"types"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	key, err := scope.Normalize(req.Scope)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid scope")
	}
	if err := h.Registry.SetEntityMap(c.Request().Context(), key, req.Types); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.bustBrandCaches("entity map changed")
	return respond(c, nil)
}

func (h *SyncHandler) setSearchScope(c echo.Context) error {
	var req struct {
		Scope       string                 `json:"scope"`
		SearchScope federation.SearchScope `json:"search_scope"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	key, err := scope.Normalize(req.Scope)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid scope")
	}
	if err := h.Registry.SetSearchScope(c.Request().Context(), key, req.SearchScope); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.bustBrandCaches("search scope changed")
	return respond(c, nil)
}

// reindex rebuilds the governing scope. With all=true it additionally fans
// the trigger out to every registered brand and reports per-scope outcomes.
func (h *SyncHandler) reindex(c echo.Context) error {
	ctx := c.Request().Context()
	types, err := h.Registry.EntityMapFor(ctx, h.Self)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	ok, err := h.Writer.IndexAll(ctx, types, h.Self)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	if c.QueryParam("all") != "true" {
		return respond(c, map[string]bool{"success": ok})
	}
	result, err := h.Coordinator.TriggerReindexAll(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	result.Results[h.Self] = localStatus(ok)
	result.OK = result.OK && ok
	return respondMessage(c, result.Summary(), result)
}

func (h *SyncHandler) cacheBust(c echo.Context) error {
	result, err := h.Coordinator.CacheBustAll(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return respondMessage(c, result.Summary(), result)
}

// bustBrandCaches notifies brands asynchronously; the admin action that
// triggered the change never waits on, or fails because of, an unreachable
// brand.
func (h *SyncHandler) bustBrandCaches(reason string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		result, err := h.Coordinator.CacheBustAll(ctx)
		if err != nil {
			h.Logger.Printf("cache bust (%s): %v", reason, err)
			return
		}
		if !result.OK {
			h.Logger.Printf("cache bust (%s) partial:\n%s", reason, result.Summary())
		}
	}()
}

func localStatus(ok bool) string {
	if ok {
		return federation.StatusOK
	}
	return "error: some batches failed"
}
