// Package middleware holds the echo middleware shared by every route group:
// access token authentication, role guards, the redis rate limiter and
// response cache, and request logging.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bookstore/internal/service"
	"github.com/iliyamo/bookstore/internal/utils"
)

const actorKey = "actor"

// JWTAuth validates a Bearer access token and stores the resulting
// service.Actor in the context.  Requests without a token are guests and are
// redirected to loginPath with 302.  A token that is present but invalid or
// expired is answered with 401 so that clients know to refresh.
func JWTAuth(secret, loginPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearer(c)
			if !ok {
				return c.Redirect(http.StatusFound, loginPath)
			}
			a, err := actorFromToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(actorKey, a)
			return next(c)
		}
	}
}

// OptionalAuth is JWTAuth for public pages: a valid token sets the actor,
// anything else continues as a guest.
func OptionalAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw, ok := bearer(c); ok {
				if a, err := actorFromToken(secret, raw); err == nil {
					c.Set(actorKey, a)
				}
			}
			return next(c)
		}
	}
}

// ActorFrom returns the authenticated actor, or a guest.
func ActorFrom(c echo.Context) service.Actor {
	if a, ok := c.Get(actorKey).(service.Actor); ok {
		return a
	}
	return service.Guest()
}

func actorFromToken(secret, raw string) (service.Actor, error) {
	id, role, err := utils.ParseAccessToken(secret, raw)
	if err != nil {
		return service.Guest(), err
	}
	return service.Actor{ID: id, Role: role}, nil
}

func bearer(c echo.Context) (string, bool) {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return raw, raw != ""
}
