package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"familytree/internal/logger"
	"familytree/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(store *session.Store) *fiber.App {
	app := fiber.New()

	app.Post("/signin", func(c *fiber.Ctx) error {
		return store.SignIn(c, "anna@example.com")
	})
	app.Get("/login", RedirectAuthenticated(store), func(c *fiber.Ctx) error {
		return c.SendString("login page")
	})
	app.Get("/", AuthenticatedSession(store, logger.Discard()), func(c *fiber.Ctx) error {
		return c.SendString(Email(c))
	})
	app.Get("/api/tree", AuthenticatedAPI(store, logger.Discard()), func(c *fiber.Ctx) error {
		return c.SendString(Email(c))
	})
	return app
}

func TestAuthentication(t *testing.T) {
	store := session.NewWithStorage(nil, time.Hour, false)
	app := newApp(store)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/tree", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/signin", nil))
	require.NoError(t, err)
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	authed := func(path string) *http.Response {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	assert.Equal(t, fiber.StatusOK, authed("/").StatusCode)
	assert.Equal(t, fiber.StatusOK, authed("/api/tree").StatusCode)

	resp = authed("/login")
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))

	app := fiber.New()
	app.Use(Logger(l))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.ErrNotFound })

	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "status=204")
	assert.Contains(t, buf.String(), "level=INFO")

	buf.Reset()
	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "status=404")
	assert.Contains(t, buf.String(), "level=WARN")
}

func TestSecurityHeaders(t *testing.T) {
	app := fiber.New()
	app.Use(SecurityHeaders(), NoStore())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Contains(t, resp.Header.Get("Content-Security-Policy"), "frame-ancestors 'none'")
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	assert.Empty(t, resp.Header.Get("Strict-Transport-Security"))
}
