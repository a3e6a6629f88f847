// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tv-show-tracker/internal/handler"
)

// RegisterPublic registers the routes that require no token: the
// service banner, the health check and login. They are still rate
// limited; their bucket identity is "anon".
func RegisterPublic(e *echo.Echo, a *handler.AuthHandler, usernames []string, limit echo.MiddlewareFunc) {
	e.GET("/", handler.Root(usernames), limit)
	e.GET("/healthz", handler.Health, limit)
	e.POST("/auth/login", a.Login, limit)
}

// RegisterShows registers the show CRUD and watch/unwatch routes. All
// of them require a verified identity; bearer runs first so the
// limiter and cache keys can include the username. The listing
// endpoints are registered with and without trailing slash so clients
// need not care.
func RegisterShows(e *echo.Echo, sh *handler.ShowHandler, wh *handler.WatchHandler, bearer, limit, cache echo.MiddlewareFunc) {
	g := e.Group("/shows", bearer, limit, cache)
	g.GET("", sh.List)
	g.GET("/", sh.List)
	g.POST("", sh.Create)
	g.POST("/", sh.Create)
	g.PATCH("/:id", sh.Update)
	g.DELETE("/:id", sh.Delete)
	g.POST("/:id/watch", wh.Watch)
	g.DELETE("/:id/watch", wh.Unwatch)
}

// RegisterUsers registers the per-user watched/unwatched listings.
func RegisterUsers(e *echo.Echo, uh *handler.UserHandler, bearer, limit, cache echo.MiddlewareFunc) {
	g := e.Group("/users", bearer, limit, cache)
	g.GET("/:username/watched", uh.Watched)
	g.GET("/:username/unwatched", uh.Unwatched)
}
