package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rtCamp/onesearch/internal/federation"
	"github.com/rtCamp/onesearch/internal/scope"
)

// respond wraps data in the sync protocol's JSON envelope.
func respond(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, federation.Envelope{Success: true, Data: mustRaw(data)})
}

func respondMessage(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, federation.Envelope{Success: true, Message: message, Data: mustRaw(data)})
}

// withSecret guards a route with a constant-time shared-secret comparison.
func withSecret(next echo.HandlerFunc, secret string) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := c.Request().Header.Get(federation.TokenHeader)
		if secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid sync token")
		}
		return next(c)
	}
}

// withBrandAuth authenticates a brand-site caller: the scope header names
// the caller and the token must match that scope's registered secret. The
// verified scope key is stored on the request context.
func withBrandAuth(next echo.HandlerFunc, registry *federation.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		rawScope := c.Request().Header.Get(federation.ScopeHeader)
		if rawScope == "" {
			rawScope = c.QueryParam("scope")
		}
		key, err := scope.Normalize(rawScope)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "missing or invalid scope")
		}
		token := c.Request().Header.Get(federation.TokenHeader)
		if !registry.VerifySecret(c.Request().Context(), key, token) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid sync token for scope")
		}
		c.Set("scope", key)
		return next(c)
	}
}

func callerScope(c echo.Context) scope.Key {
	key, _ := c.Get("scope").(scope.Key)
	return key
}

func mustRaw(data interface{}) json.RawMessage {
	if data == nil {
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	return raw
}
