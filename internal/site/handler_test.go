package site

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rambosorn/khadimy/internal/cmsclient"
	"github.com/rambosorn/khadimy/internal/engine"
)

func newSiteApp(f *fakeFetcher) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: engine.ErrorHandler(zap.NewNop())})
	RegisterRoutes(app, NewHandler(NewLoader(f, zap.NewNop()), zap.NewNop()))
	return app
}

func get(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestRoutes_Detail(t *testing.T) {
	f := newFake().on("/courses", []cmsclient.Record{{"id": float64(3), "title": "Go"}}, nil)
	app := newSiteApp(f)

	status, body := get(t, app, "GET", "/site/courses/go", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Go", body["data"].(map[string]any)["title"])

	status, body = get(t, app, "GET", "/site/pages/missing", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Nil(t, body["data"])
}

func TestRoutes_ListNeverNull(t *testing.T) {
	app := newSiteApp(newFake())
	status, body := get(t, app, "GET", "/site/experts", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []any{}, body["data"])
}

func TestRoutes_UpstreamFailure(t *testing.T) {
	app := newSiteApp(newFake().on("/events", nil, errDown))
	status, body := get(t, app, "GET", "/site/community", "")
	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Equal(t, "Content is temporarily unavailable", body["error"].(map[string]any)["message"])
}

func TestRoutes_Identity(t *testing.T) {
	app := newSiteApp(newFake().on("/site-identity", nil, errDown))
	status, body := get(t, app, "GET", "/site/identity", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Khadimy", body["data"].(map[string]any)["siteName"])
}

func TestRoutes_Register(t *testing.T) {
	f := newFake()
	app := newSiteApp(f)

	status, _ := get(t, app, "POST", "/site/registrations", `{"data":{"name":"Amina","email":"amina@example.com"}}`)
	require.Equal(t, fiber.StatusCreated, status)
	status, _ = get(t, app, "POST", "/site/registrations", `{"name":"Omar","email":"omar@example.com"}`)
	require.Equal(t, fiber.StatusCreated, status)
	require.Len(t, f.submitted, 2)
	assert.Equal(t, "Omar", f.submitted[1].Name)

	status, body := get(t, app, "POST", "/site/registrations", `{"name":"","email":"x"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, RegistrationFailedMessage, body["error"].(map[string]any)["message"])

	f.submitErr = errDown
	status, body = get(t, app, "POST", "/site/registrations", `{"name":"Sara","email":"sara@example.com"}`)
	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Equal(t, RegistrationFailedMessage, body["error"].(map[string]any)["message"])
}
