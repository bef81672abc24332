// Package admin serves the administrator endpoints: schema introspection and
// role permission management.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/rambosorn/khadimy/internal/content"
	"github.com/rambosorn/khadimy/internal/engine"
	"github.com/rambosorn/khadimy/internal/metadata"
	"github.com/rambosorn/khadimy/internal/store"
)

// ErrUnknownAction is returned for an action uid naming no registered content
// type or no content API action.
var ErrUnknownAction = errors.New("unknown action")

var contentActions = map[string]bool{
	metadata.ActionFind:    true,
	metadata.ActionFindOne: true,
	metadata.ActionCreate:  true,
	metadata.ActionUpdate:  true,
	metadata.ActionDelete:  true,
}

type Handler struct {
	permissions *content.Permissions
	registry    *metadata.Registry
	logger      *zap.Logger
}

func NewHandler(perms *content.Permissions, reg *metadata.Registry, logger *zap.Logger) *Handler {
	return &Handler{permissions: perms, registry: reg, logger: logger}
}

func RegisterAdminRoutes(app *fiber.App, h *Handler, authMW fiber.Handler) {
	admin := app.Group("/api/_admin", authMW, RequireAdmin())

	admin.Get("/content-types", h.ListContentTypes)
	admin.Get("/content-types/:name", h.GetContentType)

	admin.Get("/permissions", h.ListPermissions)
	admin.Post("/permissions", h.GrantPermission)
	admin.Delete("/permissions", h.RevokePermission)
}

// RequireAdmin rejects every caller whose role is not admin.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := engine.GetUser(c)
		if user.Role == metadata.RolePublic {
			return engine.UnauthorizedError("Missing or invalid credentials")
		}
		if !user.IsAdmin() {
			return engine.ForbiddenError("Forbidden")
		}
		return c.Next()
	}
}

// --- Content type endpoints ---

func (h *Handler) ListContentTypes(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.registry.All()})
}

func (h *Handler) GetContentType(c *fiber.Ctx) error {
	name := c.Params("name")
	ct := h.registry.Get(name)
	if ct == nil {
		ct = h.registry.GetByRoute(name)
	}
	if ct == nil {
		return engine.UnknownContentTypeError(name)
	}
	return c.JSON(fiber.Map{"data": ct})
}

// --- Permission endpoints ---

type permissionBody struct {
	Role   string `json:"role"`
	Action string `json:"action"`
}

func (h *Handler) ListPermissions(c *fiber.Ctx) error {
	grants, err := h.permissions.LoadGrants(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": grants})
}

func (h *Handler) GrantPermission(c *fiber.Ctx) error {
	body, err := parsePermission(c)
	if err != nil {
		return err
	}
	created, err := Grant(c.UserContext(), h.permissions, h.registry, body.Role, body.Action)
	if err != nil {
		return h.permissionError(err)
	}
	h.logger.Info("permission granted",
		zap.String("role", body.Role),
		zap.String("action", body.Action),
		zap.Bool("created", created),
	)

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"data": fiber.Map{
		"role": body.Role, "action": body.Action, "created": created,
	}})
}

func (h *Handler) RevokePermission(c *fiber.Ctx) error {
	body, err := parsePermission(c)
	if err != nil {
		return err
	}
	if err := Revoke(c.UserContext(), h.permissions, h.registry, body.Role, body.Action); err != nil {
		return h.permissionError(err)
	}
	h.logger.Info("permission revoked", zap.String("role", body.Role), zap.String("action", body.Action))
	return c.SendStatus(fiber.StatusNoContent)
}

func parsePermission(c *fiber.Ctx) (permissionBody, error) {
	var body permissionBody
	if err := c.BodyParser(&body); err != nil {
		return body, engine.BadRequestError("Invalid JSON body")
	}
	if body.Role == "" || body.Action == "" {
		return body, engine.BadRequestError("role and action are required")
	}
	return body, nil
}

func (h *Handler) permissionError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return engine.NotFoundError(err.Error())
	case errors.Is(err, ErrUnknownAction):
		return engine.BadRequestError(err.Error())
	}
	return err
}

// --- Shared with the CLI ---

// ValidateAction checks that an "api::<type>.<type>.<action>" uid names a
// registered content type and a content API action. Plugin actions
// ("plugin::...") are accepted as is.
func ValidateAction(reg *metadata.Registry, action string) error {
	if strings.HasPrefix(action, "plugin::") {
		return nil
	}
	rest, ok := strings.CutPrefix(action, "api::")
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
	parts := strings.Split(rest, ".")
	if len(parts) != 3 || parts[0] != parts[1] || reg.Get(parts[0]) == nil || !contentActions[parts[2]] {
		return fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
	return nil
}

// Grant persists action for the role type and refreshes the registry. It
// reports whether a new row was written.
func Grant(ctx context.Context, perms *content.Permissions, reg *metadata.Registry, roleType, action string) (bool, error) {
	if err := ValidateAction(reg, action); err != nil {
		return false, err
	}
	role, err := perms.FindRole(ctx, roleType)
	if err != nil {
		return false, fmt.Errorf("role %s: %w", roleType, err)
	}
	created, err := perms.Grant(ctx, action, role.ID)
	if err != nil {
		return false, err
	}
	return created, metadata.Reload(ctx, perms, reg)
}

// Revoke removes action from the role type and refreshes the registry.
func Revoke(ctx context.Context, perms *content.Permissions, reg *metadata.Registry, roleType, action string) error {
	if err := ValidateAction(reg, action); err != nil {
		return err
	}
	role, err := perms.FindRole(ctx, roleType)
	if err != nil {
		return fmt.Errorf("role %s: %w", roleType, err)
	}
	if err := perms.Revoke(ctx, action, role.ID); err != nil {
		return fmt.Errorf("revoke %s: %w", action, err)
	}
	return metadata.Reload(ctx, perms, reg)
}
