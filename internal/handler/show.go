package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tv-show-tracker/internal/middleware"
	"github.com/iliyamo/tv-show-tracker/internal/model"
	"github.com/iliyamo/tv-show-tracker/internal/repository"
)

// ShowHandler serves the show CRUD endpoints and the annotated show
// listing. It composes the show store with whichever watch ledger shape
// the server was configured with; every response is phrased in terms of
// the requesting identity's watch state, so the two shapes are
// indistinguishable on the wire.
type ShowHandler struct {
	Shows  *repository.ShowRepo
	Ledger repository.WatchLedger
}

func NewShowHandler(shows *repository.ShowRepo, ledger repository.WatchLedger) *ShowHandler {
	return &ShowHandler{Shows: shows, Ledger: ledger}
}

// ----- DTOs -----

type createShowReq struct {
	Title string `json:"title"`
}

type updateShowReq struct {
	Title *string `json:"title"`
}

// showView is a show annotated with the requesting identity's watch
// status. Rating is null and WatchedAt omitted when unwatched.
type showView struct {
	ID        uint64     `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	Watched   bool       `json:"watched"`
	Rating    *int       `json:"rating"`
	WatchedAt *time.Time `json:"watched_at,omitempty"`
}

// viewOf annotates one show with an optional watch status.
func viewOf(s model.Show, st *repository.WatchStatus) showView {
	v := showView{
		ID:        s.ID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
	}
	if st != nil {
		v.Watched = true
		rating := st.Rating
		v.Rating = &rating
		watchedAt := st.WatchedAt
		v.WatchedAt = &watchedAt
	}
	return v
}

// buildShowViews merges the full show list with one identity's watch
// map into the response shape, applying the optional watched filter.
// A show absent from the map is unwatched for this identity; with
// watchedFilter == false those are the only shows returned.
func buildShowViews(shows []model.Show, statuses map[uint64]repository.WatchStatus, watchedFilter *bool) []showView {
	views := make([]showView, 0, len(shows))
	for _, s := range shows {
		var st *repository.WatchStatus
		if got, ok := statuses[s.ID]; ok {
			st = &got
		}
		if watchedFilter != nil && *watchedFilter != (st != nil) {
			continue
		}
		views = append(views, viewOf(s, st))
	}
	return views
}

// List returns every show annotated for the requesting identity, or
// only the watched/unwatched subset when the ?watched filter is given.
func (h *ShowHandler) List(c echo.Context) error {
	var watchedFilter *bool
	if raw := c.QueryParam("watched"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "watched must be a boolean"})
		}
		watchedFilter = &b
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	username := middleware.Username(c)
	shows, err := h.Shows.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list shows failed"})
	}
	statuses, err := h.Ledger.StatusesFor(ctx, username)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load watch state failed"})
	}

	return c.JSON(http.StatusOK, buildShowViews(shows, statuses, watchedFilter))
}

// Create adds a new show. Titles are unique, case-sensitively.
func (h *ShowHandler) Create(c echo.Context) error {
	var req createShowReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Shows.Create(ctx, req.Title)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateTitle) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "show with this title already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create show failed"})
	}

	// A freshly created show is unwatched by everyone.
	return c.JSON(http.StatusCreated, viewOf(*s, nil))
}

// Update renames a show. A body without a title (or with the current
// title) is a no-op success returning the show as-is.
func (h *ShowHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
	}
	var req updateShowReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var s *model.Show
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		s, err = h.Shows.GetByID(ctx, id)
	} else {
		s, err = h.Shows.Rename(ctx, id, strings.TrimSpace(*req.Title))
	}
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrShowNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		case errors.Is(err, repository.ErrDuplicateTitle):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "show with this title already exists"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update show failed"})
		}
	}

	st, err := h.Ledger.StatusFor(ctx, middleware.Username(c), s.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load watch state failed"})
	}
	return c.JSON(http.StatusOK, viewOf(*s, st))
}

// Delete removes a show together with all watch records referencing it.
func (h *ShowHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Shows.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrShowNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete show failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
