package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rtCamp/onesearch/internal/content"
	"github.com/rtCamp/onesearch/internal/index"
)

// ChangeHandler receives content lifecycle notifications from the local
// content store and hands them to the change watcher. Both roles expose it;
// the watcher decides whether to apply the change locally or push upstream.
type ChangeHandler struct {
	Watcher *index.Watcher
	Secret  string
}

func (h *ChangeHandler) Register(g *echo.Group) {
	g.POST("/change", withSecret(h.change, h.Secret))
}

func (h *ChangeHandler) change(c echo.Context) error {
	var req struct {
		OldStatus string       `json:"old_status"`
		NewStatus string       `json:"new_status"`
		Item      content.Item `json:"item"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Item.ID == 0 || req.Item.Type == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "item id and type required")
	}

	ev := index.ChangeEvent{OldStatus: req.OldStatus, NewStatus: req.NewStatus, Item: req.Item}
	if err := h.Watcher.HandleChange(c.Request().Context(), ev); err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return respondMessage(c, "change processed", nil)
}
