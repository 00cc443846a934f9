package actor

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maximo-portal/version-portal/internal/cache"
	"github.com/maximo-portal/version-portal/internal/domain"
	"github.com/maximo-portal/version-portal/internal/repository"
)

func newApp(t *testing.T) *fiber.App {
	t.Helper()
	repos := repository.NewRepositories(repository.Dependencies{Local: cache.NewMemoryCache(0), Namespace: "test"})
	require.NoError(t, repos.Users.Save(context.Background(), domain.User{ID: "usr-dev", Name: "Diego", Active: true}))

	app := fiber.New()
	app.Use(NewMiddleware(repos.Users, "usr-admin", zap.NewNop()).Handle)
	app.Get("/", func(c *fiber.Ctx) error {
		current, ok := FromContext(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(current.ID + "|" + current.Name())
	})
	return app
}

func body(t *testing.T, app *fiber.App, header, cookie string) string {
	t.Helper()
	req := httptest.NewRequest("GET", "/", nil)
	if header != "" {
		req.Header.Set(HeaderName, header)
	}
	if cookie != "" {
		req.Header.Set("Cookie", CookieName+"="+cookie)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}

func TestMiddleware_Resolution(t *testing.T) {
	app := newApp(t)

	assert.Equal(t, "usr-admin|usr-admin", body(t, app, "", ""))
	assert.Equal(t, "usr-dev|Diego", body(t, app, "", "usr-dev"))
	assert.Equal(t, "usr-other|usr-other", body(t, app, " usr-other ", "usr-dev"))
}

func TestID_WithoutMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("[" + ID(c) + "]") })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}
