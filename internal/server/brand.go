package server

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rtCamp/onesearch/config"
	"github.com/rtCamp/onesearch/internal/federation"
	"github.com/rtCamp/onesearch/internal/index"
	"github.com/rtCamp/onesearch/internal/scope"
)

// BrandHandler serves the brand side of the sync protocol: the governing
// site calls these routes with the shared secret.
type BrandHandler struct {
	Cache  *federation.Cache
	Writer *index.Writer
	Cfg    *config.Config
	Self   scope.Key
	Logger *log.Logger
}

func (h *BrandHandler) Register(g *echo.Group) {
	secret := h.Cfg.Federation.SharedSecret
	g.POST("/cache-bust", withSecret(h.cacheBust, secret))
	g.POST("/reindex", withSecret(h.reindex, secret))
}

func (h *BrandHandler) cacheBust(c echo.Context) error {
	if err := h.Cache.Invalidate(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.Logger.Printf("config cache invalidated by %s", c.RealIP())
	return respondMessage(c, "cache invalidated", nil)
}

// reindex rebuilds this brand's partition of the shared index using the
// entity map from the governing site's config.
func (h *BrandHandler) reindex(c echo.Context) error {
	ctx := c.Request().Context()
	cfg, err := h.Cache.Config(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	ok, err := h.Writer.IndexAll(ctx, cfg.IndexableTypes, h.Self)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return respond(c, map[string]bool{"success": ok})
}
