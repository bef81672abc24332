package engine

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rambosorn/khadimy/internal/cmsclient"
	"github.com/rambosorn/khadimy/internal/metadata"
)

// Both envelope versions served here must flatten to the same records.
func TestContentAPI_ClientReadsBothFormats(t *testing.T) {
	for _, format := range []string{FormatV4, FormatV5} {
		t.Run(format, func(t *testing.T) {
			app := newTestApp(t, format)

			status, body := do(t, app, "POST", "/api/courses", map[string]any{
				"title": "Data Engineering",
				"cover": map[string]any{"url": "/uploads/data.png"},
			}, metadata.RoleAdmin)
			require.Equal(t, fiber.StatusCreated, status, body)

			srv := httptest.NewServer(adaptor.FiberApp(app))
			defer srv.Close()
			client := cmsclient.New(srv.URL + "/admin/")

			res, err := client.Get(context.Background(), "/courses", cmsclient.Params{
				{Key: "filters", Value: cmsclient.Params{{Key: "slug", Value: cmsclient.Params{{Key: "$eq", Value: "data-engineering"}}}}},
				{Key: "populate", Value: "*"},
			})
			require.NoError(t, err)
			require.Len(t, res.Records, 1)

			rec := res.Records[0]
			assert.NotZero(t, rec.ID())
			assert.Equal(t, "Data Engineering", rec.String("title"))
			url, ok := cmsclient.MediaURL(client.BaseURL(), rec["cover"])
			require.True(t, ok)
			assert.Equal(t, srv.URL+"/uploads/data.png", url)

			res, err = client.Get(context.Background(), "/courses", cmsclient.Params{
				{Key: "filters", Value: cmsclient.Params{{Key: "slug", Value: cmsclient.Params{{Key: "$eq", Value: "missing"}}}}},
			})
			require.NoError(t, err)
			assert.Empty(t, res.Records)
		})
	}
}

func TestContentAPI_ClientRegistration(t *testing.T) {
	app := newTestApp(t, FormatV5)
	srv := httptest.NewServer(adaptor.FiberApp(app))
	defer srv.Close()
	client := cmsclient.New(srv.URL)

	rec, err := client.Register(context.Background(), cmsclient.RegistrationForm{
		Name: "Amina", Email: "amina@example.com", Phone: "+212600000000",
	})
	require.NoError(t, err)
	assert.NotZero(t, rec.ID())

	// public role may create but not list registrations
	_, err = client.Get(context.Background(), "/registrations", nil)
	var fe *cmsclient.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fiber.StatusForbidden, fe.Status)
}
