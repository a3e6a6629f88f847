package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tv-show-tracker/internal/middleware"
	"github.com/iliyamo/tv-show-tracker/internal/queue"
	"github.com/iliyamo/tv-show-tracker/internal/repository"
	publisher "github.com/iliyamo/tv-show-tracker/internal/service"
)

// WatchHandler serves the mark-watched / mark-unwatched endpoints. The
// ledger owns all validation and state rules; the handler translates
// its sentinel errors to HTTP and fires the broker event afterwards.
type WatchHandler struct {
	Shows  *repository.ShowRepo
	Ledger repository.WatchLedger
	// PublishEvents enables the RabbitMQ watch event feed. Publishing
	// happens after the store commit and never affects the response.
	PublishEvents bool
}

func NewWatchHandler(shows *repository.ShowRepo, ledger repository.WatchLedger, publishEvents bool) *WatchHandler {
	return &WatchHandler{Shows: shows, Ledger: ledger, PublishEvents: publishEvents}
}

// ----- DTOs -----

type watchReq struct {
	Rating int `json:"rating"`
}

// watchView is the response shape for a watch record: the show it
// refers to plus the rating and timestamp evidence.
type watchView struct {
	ID        uint64    `json:"id"`
	Title     string    `json:"title"`
	Rating    int       `json:"rating"`
	WatchedAt time.Time `json:"watched_at"`
}

// Watch marks a show watched for the requesting identity. Re-watching
// is allowed and refreshes the rating and timestamp.
func (h *WatchHandler) Watch(c echo.Context) error {
	showID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
	}
	var req watchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	username := middleware.Username(c)
	w, err := h.Ledger.MarkWatched(ctx, username, showID, req.Rating)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInvalidRating):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
		case errors.Is(err, repository.ErrShowNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "mark watched failed"})
		}
	}

	s, err := h.Shows.GetByID(ctx, showID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load show failed"})
	}

	h.publish(queue.WatchEvent{
		Action:    queue.ActionWatched,
		Username:  username,
		ShowID:    showID,
		Title:     s.Title,
		Rating:    w.Rating,
		WatchedAt: w.WatchedAt.UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, watchView{
		ID:        s.ID,
		Title:     s.Title,
		Rating:    w.Rating,
		WatchedAt: w.WatchedAt,
	})
}

// Unwatch clears the requesting identity's watched state for a show.
// Both a missing show and a show never marked watched yield 404; the
// body distinguishes them.
func (h *WatchHandler) Unwatch(c echo.Context) error {
	showID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	username := middleware.Username(c)
	s, err := h.Shows.GetByID(ctx, showID)
	if err != nil {
		if errors.Is(err, repository.ErrShowNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load show failed"})
	}

	if err := h.Ledger.MarkUnwatched(ctx, username, showID); err != nil {
		switch {
		case errors.Is(err, repository.ErrShowNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		case errors.Is(err, repository.ErrNotWatched):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not watched"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "mark unwatched failed"})
		}
	}

	h.publish(queue.WatchEvent{
		Action:   queue.ActionUnwatched,
		Username: username,
		ShowID:   showID,
		Title:    s.Title,
	})

	return c.NoContent(http.StatusNoContent)
}

// publish fires the event on a detached context so a slow broker cannot
// hold the response. Failures are logged by the publisher and dropped.
func (h *WatchHandler) publish(ev queue.WatchEvent) {
	if !h.PublishEvents {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = publisher.PublishWatchEvent(ctx, ev)
	}()
}
