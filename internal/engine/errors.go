package engine

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AppError struct {
	Status  int    `json:"status"`
	Name    string `json:"name"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

// ErrorDetail is one entry of a validation error's details.errors list.
type ErrorDetail struct {
	Path    []string `json:"path"`
	Message string   `json:"message"`
	Name    string   `json:"name"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) HTTPStatus() int {
	return e.Status
}

type ErrorResponse struct {
	Data  any       `json:"data"`
	Error *AppError `json:"error"`
}

func NewAppError(name string, status int, msg string) *AppError {
	return &AppError{Name: name, Status: status, Message: msg, Details: fiber.Map{}}
}

func NotFoundError(msg string) *AppError {
	return NewAppError("NotFoundError", fiber.StatusNotFound, msg)
}

func UnknownContentTypeError(name string) *AppError {
	return NotFoundError(fmt.Sprintf("Unknown content type: %s", name))
}

func BadRequestError(msg string) *AppError {
	return NewAppError("ValidationError", fiber.StatusBadRequest, msg)
}

func UnauthorizedError(msg string) *AppError {
	return NewAppError("UnauthorizedError", fiber.StatusUnauthorized, msg)
}

func ForbiddenError(msg string) *AppError {
	return NewAppError("ForbiddenError", fiber.StatusForbidden, msg)
}

func PayloadTooLargeError(msg string) *AppError {
	return NewAppError("PayloadTooLargeError", fiber.StatusRequestEntityTooLarge, msg)
}

func ValidationError(details []ErrorDetail) *AppError {
	msg := "Validation failed"
	if len(details) == 1 {
		msg = details[0].Message
	} else if len(details) > 1 {
		msg = fmt.Sprintf("%d errors occurred", len(details))
	}
	return &AppError{
		Name:    "ValidationError",
		Status:  fiber.StatusBadRequest,
		Message: msg,
		Details: fiber.Map{"errors": details},
	}
}

// ErrorHandler renders every error as {data: null, error: {...}}.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *AppError
		if errors.As(err, &appErr) {
			return c.Status(appErr.Status).JSON(ErrorResponse{Error: appErr})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			name := "ApplicationError"
			switch fiberErr.Code {
			case fiber.StatusNotFound:
				name = "NotFoundError"
			case fiber.StatusRequestEntityTooLarge:
				name = "PayloadTooLargeError"
			case fiber.StatusBadRequest:
				name = "BadRequestError"
			}
			return c.Status(fiberErr.Code).JSON(ErrorResponse{Error: NewAppError(name, fiberErr.Code, fiberErr.Message)})
		}

		logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: NewAppError("ApplicationError", fiber.StatusInternalServerError, "Internal Server Error"),
		})
	}
}
