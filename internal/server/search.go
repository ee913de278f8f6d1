package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rtCamp/onesearch/internal/federation"
	"github.com/rtCamp/onesearch/internal/search"
)

// SearchHandler exposes the federated search endpoint.
type SearchHandler struct {
	Planner       *search.Planner
	Executor      *search.Executor
	Reconstructor *search.Reconstructor
	PerPage       int
}

func (h *SearchHandler) perPage() int {
	if h.PerPage > 0 {
		return h.PerPage
	}
	return search.DefaultHitsPerPage
}

func (h *SearchHandler) Register(g *echo.Group) {
	g.GET("/search", h.search)
}

type searchResponse struct {
	Documents []search.Document `json:"documents"`
	Total     int               `json:"total"`
	Page      int               `json:"page"`
	PerPage   int               `json:"per_page"`
}

func (h *SearchHandler) search(c echo.Context) error {
	ctx := c.Request().Context()
	q := c.QueryParam("q")
	page := atoiDefault(c.QueryParam("page"), 1)
	perPage := atoiDefault(c.QueryParam("per_page"), h.perPage())

	var types []string
	if raw := c.QueryParam("type"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				types = append(types, t)
			}
		}
	}

	expr, err := h.Planner.Plan(ctx, types)
	if err != nil {
		if errors.Is(err, federation.ErrScopeNotConfigured) {
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		if errors.Is(err, federation.ErrRemoteUnreachable) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	res, err := h.Executor.Search(ctx, q, expr, page, perPage)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	docs := h.Reconstructor.Reconstruct(ctx, res.Hits)
	return respond(c, searchResponse{
		Documents: docs,
		Total:     res.Total,
		Page:      page,
		PerPage:   perPage,
	})
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}
