package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/rambosorn/khadimy/internal/content"
	"github.com/rambosorn/khadimy/internal/engine"
	"github.com/rambosorn/khadimy/internal/metadata"
	"github.com/rambosorn/khadimy/internal/store"
)

var validate = validator.New()

// AuthHandler handles the users-permissions endpoints.
type AuthHandler struct {
	users     *content.Users
	jwtSecret string
	logger    *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users *content.Users, jwtSecret string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, jwtSecret: jwtSecret, logger: logger}
}

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type registerRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Login handles POST /api/auth/local.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var body loginRequest
	if err := c.BodyParser(&body); err != nil {
		return engine.BadRequestError("Invalid request body")
	}
	if err := validate.Struct(body); err != nil {
		return engine.BadRequestError("identifier and password are required")
	}

	user, err := h.users.FindByIdentifier(c.UserContext(), strings.TrimSpace(body.Identifier))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return engine.BadRequestError("Invalid identifier or password")
		}
		return fmt.Errorf("find user: %w", err)
	}
	if !CheckPassword(body.Password, user.PasswordHash) {
		return engine.BadRequestError("Invalid identifier or password")
	}
	if user.Blocked {
		return engine.BadRequestError("Your account has been blocked by an administrator")
	}

	return h.respondWithToken(c, fiber.StatusOK, user)
}

// Register handles POST /api/auth/local/register. New accounts get the
// authenticated role.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var body registerRequest
	if err := c.BodyParser(&body); err != nil {
		return engine.BadRequestError("Invalid request body")
	}
	if err := validate.Struct(body); err != nil {
		return engine.ValidationError(validationDetails(err))
	}

	hash, err := HashPassword(body.Password)
	if err != nil {
		return err
	}
	user, err := h.users.Create(c.UserContext(), body.Username, body.Email, hash, metadata.RoleAuthenticated)
	if err != nil {
		if errors.Is(err, store.ErrUniqueViolation) {
			return engine.BadRequestError("Email or Username are already taken")
		}
		return fmt.Errorf("create user: %w", err)
	}

	h.logger.Info("user registered", zap.Int64("id", user.ID))
	return h.respondWithToken(c, fiber.StatusOK, user)
}

// Me handles GET /api/users/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	caller := GetUser(c)
	if caller.ID == 0 {
		return engine.UnauthorizedError("Missing or invalid credentials")
	}
	user, err := h.users.FindByID(c.UserContext(), caller.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return engine.UnauthorizedError("Missing or invalid credentials")
		}
		return fmt.Errorf("find user: %w", err)
	}
	return c.JSON(user)
}

func (h *AuthHandler) respondWithToken(c *fiber.Ctx, status int, user *content.User) error {
	token, err := GenerateToken(user.ID, user.RoleType, h.jwtSecret)
	if err != nil {
		return err
	}
	return c.Status(status).JSON(fiber.Map{"jwt": token, "user": user})
}

// RegisterAuthRoutes registers auth routes on the given Fiber app. They must be
// mounted before the dynamic content routes.
func RegisterAuthRoutes(app *fiber.App, h *AuthHandler, authMW fiber.Handler) {
	api := app.Group("/api")
	api.Post("/auth/local", h.Login)
	api.Post("/auth/local/register", h.Register)
	api.Get("/users/me", authMW, h.Me)
}

func validationDetails(err error) []engine.ErrorDetail {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []engine.ErrorDetail{{Message: err.Error(), Name: "ValidationError"}}
	}
	details := make([]engine.ErrorDetail, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		details = append(details, engine.ErrorDetail{
			Path:    []string{field},
			Message: fmt.Sprintf("%s failed %s validation", field, fe.Tag()),
			Name:    "ValidationError",
		})
	}
	return details
}
