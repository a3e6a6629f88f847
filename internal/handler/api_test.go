package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/tv-show-tracker/internal/auth"
	"github.com/iliyamo/tv-show-tracker/internal/config"
	"github.com/iliyamo/tv-show-tracker/internal/database"
	"github.com/iliyamo/tv-show-tracker/internal/handler"
	"github.com/iliyamo/tv-show-tracker/internal/middleware"
	"github.com/iliyamo/tv-show-tracker/internal/repository"
	"github.com/iliyamo/tv-show-tracker/internal/router"
)

// newTestApp wires the full HTTP surface over an in-memory SQLite
// store, in the requested watch mode.
func newTestApp(t *testing.T, mode string) *echo.Echo {
	t.Helper()

	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, database.DialectSQLite))

	authn, err := auth.New(auth.Config{
		Secret:     "test-secret",
		AccessTTL:  time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, config.ParseAuthUsers(config.DefaultAuthUsers))
	require.NoError(t, err)

	shows := repository.NewShowRepo(db)
	var ledger repository.WatchLedger
	if mode == config.WatchModeGlobal {
		ledger = repository.NewGlobalWatchRepo(db)
	} else {
		ledger = repository.NewWatchRepo(db, database.DialectSQLite)
	}

	e := echo.New()
	bearer := middleware.BearerAuth(authn)
	limit := middleware.NewTokenBucket(config.RateLimitConfig{}, nil) // disabled, pass-through
	cache := middleware.NewRedisCache(config.CacheConfig{}, nil)     // disabled, pass-through

	router.RegisterPublic(e, handler.NewAuthHandler(authn), authn.Usernames(), limit)
	router.RegisterShows(e, handler.NewShowHandler(shows, ledger),
		handler.NewWatchHandler(shows, ledger, false), bearer, limit, cache)
	router.RegisterUsers(e, handler.NewUserHandler(authn, ledger), bearer, limit, cache)
	return e
}

func doJSON(e *echo.Echo, method, target, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, e *echo.Echo, username, password string) string {
	t.Helper()
	rec := doJSON(e, http.MethodPost, "/auth/login",
		fmt.Sprintf(`{"username":%q,"password":%q}`, username, password), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		User        string `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, username, resp.User)
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	return list
}

func TestLogin(t *testing.T) {
	e := newTestApp(t, config.WatchModePerUser)

	t.Run("valid credentials", func(t *testing.T) {
		login(t, e, "ray", "password123")
	})

	t.Run("unknown user", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/auth/login",
			`{"username":"bob","password":"whatever"}`, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/auth/login",
			`{"username":"ray","password":"nope"}`, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/auth/login", `{"username":"ray"}`, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuthRequired(t *testing.T) {
	e := newTestApp(t, config.WatchModePerUser)

	t.Run("no token", func(t *testing.T) {
		rec := doJSON(e, http.MethodGet, "/shows/", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbled token", func(t *testing.T) {
		rec := doJSON(e, http.MethodGet, "/shows/", "", "garbage")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("root and healthz stay open", func(t *testing.T) {
		rec := doJSON(e, http.MethodGet, "/", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "ray")
		rec = doJSON(e, http.MethodGet, "/healthz", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

// TestWatchLifecycle runs the demo scenario end to end: create, watch,
// list filtered, unwatch, unwatch again.
func TestWatchLifecycle(t *testing.T) {
	e := newTestApp(t, config.WatchModePerUser)
	token := login(t, e, "ray", "password123")

	// Create "Foo".
	rec := doJSON(e, http.MethodPost, "/shows/", `{"title":"Foo"}`, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID      uint64 `json:"id"`
		Title   string `json:"title"`
		Watched bool   `json:"watched"`
		Rating  *int   `json:"rating"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Foo", created.Title)
	assert.False(t, created.Watched)
	assert.Nil(t, created.Rating)

	// Duplicate title.
	rec = doJSON(e, http.MethodPost, "/shows/", `{"title":"Foo"}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Mark watched with rating 5.
	path := fmt.Sprintf("/shows/%d/watch", created.ID)
	rec = doJSON(e, http.MethodPost, path, `{"rating":5}`, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var watched struct {
		ID     uint64 `json:"id"`
		Title  string `json:"title"`
		Rating int    `json:"rating"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &watched))
	assert.Equal(t, created.ID, watched.ID)
	assert.Equal(t, 5, watched.Rating)

	// Watched filter includes Foo with rating 5.
	rec = doJSON(e, http.MethodGet, "/shows/?watched=true", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeList(t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "Foo", list[0]["title"])
	assert.Equal(t, float64(5), list[0]["rating"])

	// Unwatched filter excludes it.
	rec = doJSON(e, http.MethodGet, "/shows/?watched=false", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeList(t, rec))

	// Unwatch, then unwatch again.
	rec = doJSON(e, http.MethodDelete, path, "", token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(e, http.MethodDelete, path, "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWatchValidation(t *testing.T) {
	e := newTestApp(t, config.WatchModePerUser)
	token := login(t, e, "ray", "password123")

	rec := doJSON(e, http.MethodPost, "/shows/", `{"title":"Bar"}`, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID uint64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	path := fmt.Sprintf("/shows/%d/watch", created.ID)

	for _, rating := range []int{0, 6, -1} {
		rec := doJSON(e, http.MethodPost, path, fmt.Sprintf(`{"rating":%d}`, rating), token)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "rating %d", rating)
	}

	t.Run("watch missing show", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/shows/9999/watch", `{"rating":3}`, token)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad watched query value", func(t *testing.T) {
		rec := doJSON(e, http.MethodGet, "/shows/?watched=maybe", "", token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListAnnotatesPerIdentity(t *testing.T) {
	e := newTestApp(t, config.WatchModePerUser)
	ray := login(t, e, "ray", "password123")
	dana := login(t, e, "dana", "secret")

	rec := doJSON(e, http.MethodPost, "/shows/", `{"title":"Shared"}`, ray)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID uint64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(e, http.MethodPost, fmt.Sprintf("/shows/%d/watch", created.ID), `{"rating":4}`, ray)
	require.Equal(t, http.StatusCreated, rec.Code)

	// ray sees the show watched with rating.
	rec = doJSON(e, http.MethodGet, "/shows/", "", ray)
	list := decodeList(t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, true, list[0]["watched"])
	assert.Equal(t, float64(4), list[0]["rating"])

	// dana sees the same show unwatched with a null rating.
	rec = doJSON(e, http.MethodGet, "/shows/", "", dana)
	list = decodeList(t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, false, list[0]["watched"])
	assert.Nil(t, list[0]["rating"])
}

func TestShowUpdateAndDelete(t *testing.T) {
	e := newTestApp(t, config.WatchModePerUser)
	token := login(t, e, "ray", "password123")

	mk := func(title string) uint64 {
		rec := doJSON(e, http.MethodPost, "/shows/", fmt.Sprintf(`{"title":%q}`, title), token)
		require.Equal(t, http.StatusCreated, rec.Code)
		var created struct {
			ID uint64 `json:"id"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		return created.ID
	}
	a := mk("Alpha")
	b := mk("Beta")

	t.Run("rename", func(t *testing.T) {
		rec := doJSON(e, http.MethodPatch, fmt.Sprintf("/shows/%d", a), `{"title":"Gamma"}`, token)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Gamma")
	})

	t.Run("rename onto existing title", func(t *testing.T) {
		rec := doJSON(e, http.MethodPatch, fmt.Sprintf("/shows/%d", a), `{"title":"Beta"}`, token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rename to own title is fine", func(t *testing.T) {
		rec := doJSON(e, http.MethodPatch, fmt.Sprintf("/shows/%d", b), `{"title":"Beta"}`, token)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("empty patch returns the show unchanged", func(t *testing.T) {
		rec := doJSON(e, http.MethodPatch, fmt.Sprintf("/shows/%d", b), `{}`, token)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Beta")
	})

	t.Run("patch missing show", func(t *testing.T) {
		rec := doJSON(e, http.MethodPatch, "/shows/9999", `{"title":"X"}`, token)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delete removes watch records", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, fmt.Sprintf("/shows/%d/watch", a), `{"rating":2}`, token)
		require.Equal(t, http.StatusCreated, rec.Code)
		rec = doJSON(e, http.MethodDelete, fmt.Sprintf("/shows/%d", a), "", token)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec = doJSON(e, http.MethodGet, "/users/ray/watched", "", token)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decodeList(t, rec))
	})

	t.Run("delete missing show", func(t *testing.T) {
		rec := doJSON(e, http.MethodDelete, "/shows/9999", "", token)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestUserEndpoints(t *testing.T) {
	e := newTestApp(t, config.WatchModePerUser)
	token := login(t, e, "ray", "password123")

	rec := doJSON(e, http.MethodPost, "/shows/", `{"title":"Foo"}`, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID uint64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	rec = doJSON(e, http.MethodPost, fmt.Sprintf("/shows/%d/watch", created.ID), `{"rating":5}`, token)
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("watched list", func(t *testing.T) {
		rec := doJSON(e, http.MethodGet, "/users/ray/watched", "", token)
		require.Equal(t, http.StatusOK, rec.Code)
		list := decodeList(t, rec)
		require.Len(t, list, 1)
		assert.Equal(t, "Foo", list[0]["title"])
		assert.Equal(t, float64(5), list[0]["rating"])
	})

	t.Run("unwatched list for a user who never acted", func(t *testing.T) {
		// dana has never made a request; she is still a known user.
		rec := doJSON(e, http.MethodGet, "/users/dana/unwatched", "", token)
		require.Equal(t, http.StatusOK, rec.Code)
		list := decodeList(t, rec)
		require.Len(t, list, 1)
		assert.Equal(t, "Foo", list[0]["title"])
	})

	t.Run("unknown username", func(t *testing.T) {
		rec := doJSON(e, http.MethodGet, "/users/bob/watched", "", token)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		rec = doJSON(e, http.MethodGet, "/users/bob/unwatched", "", token)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

// TestGlobalMode exercises the alternate configuration where watch
// state is a single flag on the show shared by every identity.
func TestGlobalMode(t *testing.T) {
	e := newTestApp(t, config.WatchModeGlobal)
	ray := login(t, e, "ray", "password123")
	dana := login(t, e, "dana", "secret")

	rec := doJSON(e, http.MethodPost, "/shows/", `{"title":"Foo"}`, ray)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID uint64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(e, http.MethodPost, fmt.Sprintf("/shows/%d/watch", created.ID), `{"rating":3}`, ray)
	require.Equal(t, http.StatusCreated, rec.Code)

	// dana sees ray's watch: the flag is global.
	rec = doJSON(e, http.MethodGet, "/shows/?watched=true", "", dana)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeList(t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, float64(3), list[0]["rating"])

	// dana can unwatch it too.
	rec = doJSON(e, http.MethodDelete, fmt.Sprintf("/shows/%d/watch", created.ID), "", dana)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(e, http.MethodDelete, fmt.Sprintf("/shows/%d/watch", created.ID), "", ray)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
