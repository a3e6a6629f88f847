package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tv-show-tracker/internal/auth"
	"github.com/iliyamo/tv-show-tracker/internal/repository"
)

// UserHandler serves the per-user watched/unwatched listings. The
// username in the path is validated against the static credential
// table: a user "exists" iff they could log in, whether or not they
// ever have. Any authenticated caller may look at any known user's
// lists.
type UserHandler struct {
	Auth   *auth.Authenticator
	Ledger repository.WatchLedger
}

func NewUserHandler(a *auth.Authenticator, ledger repository.WatchLedger) *UserHandler {
	return &UserHandler{Auth: a, Ledger: ledger}
}

// unwatchedView is the minimal shape for a show the user has not
// watched; there is no rating or timestamp to report.
type unwatchedView struct {
	ID    uint64 `json:"id"`
	Title string `json:"title"`
}

// Watched returns every show the named user has watched, with ratings.
func (h *UserHandler) Watched(c echo.Context) error {
	username := c.Param("username")
	if !h.Auth.Known(username) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	watched, err := h.Ledger.WatchedBy(ctx, username)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load watched shows failed"})
	}

	views := make([]watchView, 0, len(watched))
	for _, w := range watched {
		views = append(views, watchView{
			ID:        w.Show.ID,
			Title:     w.Show.Title,
			Rating:    w.Rating,
			WatchedAt: w.WatchedAt,
		})
	}
	return c.JSON(http.StatusOK, views)
}

// Unwatched returns every show the named user has not watched.
func (h *UserHandler) Unwatched(c echo.Context) error {
	username := c.Param("username")
	if !h.Auth.Known(username) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	shows, err := h.Ledger.UnwatchedBy(ctx, username)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load unwatched shows failed"})
	}

	views := make([]unwatchedView, 0, len(shows))
	for _, s := range shows {
		views = append(views, unwatchedView{ID: s.ID, Title: s.Title})
	}
	return c.JSON(http.StatusOK, views)
}
