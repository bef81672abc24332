package site

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/rambosorn/khadimy/internal/cmsclient"
	"github.com/rambosorn/khadimy/internal/engine"
)

type loadFunc func(ctx context.Context) ([]cmsclient.Record, error)

// Handler serves loader results as JSON under /site.
type Handler struct {
	loader *Loader
	logger *zap.Logger
}

func NewHandler(loader *Loader, logger *zap.Logger) *Handler {
	return &Handler{loader: loader, logger: logger}
}

// RegisterRoutes mounts the page endpoints on app.
func RegisterRoutes(app *fiber.App, h *Handler) {
	g := app.Group("/site")
	g.Get("/home", h.Home)
	g.Get("/identity", h.Identity)
	g.Get("/courses", h.Courses)
	g.Get("/courses/:slug", h.Course)
	g.Get("/insights", h.Insights)
	g.Get("/insights/:slug", h.Insight)
	g.Get("/experts", h.Experts)
	g.Get("/community", h.Community)
	g.Get("/pages/:slug", h.Page)
	g.Get("/registration/courses", h.RegistrationCourses)
	g.Post("/registrations", h.Register)
}

func (h *Handler) Home(c *fiber.Ctx) error {
	data, err := h.loader.Home(c.UserContext())
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(fiber.Map{"data": data})
}

func (h *Handler) Identity(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.loader.SiteIdentity(c.UserContext())})
}

func (h *Handler) Courses(c *fiber.Ctx) error {
	return h.list(c, h.loader.Courses)
}

func (h *Handler) Course(c *fiber.Ctx) error {
	rec, err := h.loader.Course(c.UserContext(), c.Params("slug"))
	return h.detail(c, rec, err)
}

func (h *Handler) Insights(c *fiber.Ctx) error {
	data, err := h.loader.Insights(c.UserContext())
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(fiber.Map{"data": data})
}

func (h *Handler) Insight(c *fiber.Ctx) error {
	rec, err := h.loader.Insight(c.UserContext(), c.Params("slug"))
	return h.detail(c, rec, err)
}

func (h *Handler) Experts(c *fiber.Ctx) error {
	return h.list(c, h.loader.Experts)
}

func (h *Handler) Community(c *fiber.Ctx) error {
	return h.list(c, h.loader.Community)
}

func (h *Handler) Page(c *fiber.Ctx) error {
	rec, err := h.loader.Page(c.UserContext(), c.Params("slug"))
	return h.detail(c, rec, err)
}

func (h *Handler) RegistrationCourses(c *fiber.Ctx) error {
	return h.list(c, h.loader.RegistrationCourses)
}

// Register accepts the registration form, either bare or wrapped in "data".
func (h *Handler) Register(c *fiber.Ctx) error {
	var body struct {
		Data *cmsclient.RegistrationForm `json:"data"`
		cmsclient.RegistrationForm
	}
	if err := c.BodyParser(&body); err != nil {
		return engine.BadRequestError("Invalid JSON body")
	}
	form := body.RegistrationForm
	if body.Data != nil {
		form = *body.Data
	}
	if err := form.Validate(); err != nil {
		return engine.BadRequestError(RegistrationFailedMessage)
	}
	if err := h.loader.SubmitRegistration(c.UserContext(), form); err != nil {
		return engine.NewAppError("ApplicationError", fiber.StatusBadGateway, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": fiber.Map{"status": "success"}})
}

func (h *Handler) list(c *fiber.Ctx, load loadFunc) error {
	records, err := load(c.UserContext())
	if err != nil {
		return h.fail(err)
	}
	if records == nil {
		records = []cmsclient.Record{}
	}
	return c.JSON(fiber.Map{"data": records})
}

func (h *Handler) detail(c *fiber.Ctx, rec cmsclient.Record, err error) error {
	if errors.Is(err, ErrNotFound) {
		return engine.NotFoundError("Not Found")
	}
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(fiber.Map{"data": rec})
}

func (h *Handler) fail(err error) error {
	h.logger.Error("site loader failed", zap.Error(err))
	return engine.NewAppError("ApplicationError", fiber.StatusBadGateway, "Content is temporarily unavailable")
}
