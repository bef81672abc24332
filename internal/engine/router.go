package engine

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterSystemRoutes mounts the health probe, the metrics endpoint and the
// uploaded files directory.
func RegisterSystemRoutes(app *fiber.App, uploadsDir string) {
	app.Get("/_health", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Static(UploadsPrefix, uploadsDir)
}

// RegisterContentRoutes mounts the content API. authMW runs before every
// handler and sets the caller; the upload route must precede /:name.
func RegisterContentRoutes(app *fiber.App, h *Handler, up *UploadHandler, authMW fiber.Handler) {
	api := app.Group("/api", authMW)

	api.Post("/upload", up.Upload)

	api.Get("/:name", h.Find)
	api.Get("/:name/:id", h.FindOne)
	api.Post("/:name", h.Create)
	api.Put("/:name", h.Update)
	api.Put("/:name/:id", h.Update)
	api.Delete("/:name", h.Delete)
	api.Delete("/:name/:id", h.Delete)
}
