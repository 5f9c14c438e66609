package session

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"familytree/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeExpanded(t *testing.T) {
	encoded := encodeExpanded(map[string]bool{"b": true, "a": true, "c": false, "": true})
	assert.Equal(t, "a,b", encoded)
	assert.Equal(t, map[string]bool{"a": true, "b": true}, decodeExpanded(encoded))
	assert.Empty(t, decodeExpanded(nil))
	assert.Empty(t, decodeExpanded(""))
}

func TestNew_UnknownStorage(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Session.Storage = "cookie-jar"
	_, err := New(*cfg)
	assert.Error(t, err)

	cfg.Session.Storage = "postgres"
	cfg.Storage.DatabaseURL = ""
	_, err = New(*cfg)
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestStore_SignInFlow(t *testing.T) {
	store := NewWithStorage(nil, time.Hour, false)
	app := fiber.New()

	app.Post("/login", func(c *fiber.Ctx) error {
		return store.SignIn(c, "anna@example.com")
	})
	app.Get("/whoami", func(c *fiber.Ctx) error {
		email, err := store.Email(c)
		if err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.SendString(email)
	})
	app.Post("/expand", func(c *fiber.Ctx) error {
		return store.SetExpanded(c, map[string]bool{"1": true, "2": true})
	})
	app.Get("/expanded", func(c *fiber.Ctx) error {
		expanded, err := store.Expanded(c)
		if err != nil {
			return err
		}
		return c.JSON(expanded)
	})
	app.Post("/logout", func(c *fiber.Ctx) error {
		return store.SignOut(c)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/whoami", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	cookie := sessionCookie(t, resp)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)

	do := func(method, path string) *http.Response {
		req := httptest.NewRequest(method, path, nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: cookie.Value})
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	resp = do(http.MethodGet, "/whoami")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "anna@example.com", body(t, resp))

	do(http.MethodPost, "/expand")
	assert.JSONEq(t, `{"1":true,"2":true}`, body(t, do(http.MethodGet, "/expanded")))

	do(http.MethodPost, "/logout")
	assert.Equal(t, fiber.StatusUnauthorized, do(http.MethodGet, "/whoami").StatusCode)
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie set", CookieName)
	return nil
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}
