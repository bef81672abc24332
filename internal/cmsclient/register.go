package cmsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// RegistrationsEndpoint receives course registrations.
const RegistrationsEndpoint = "/registrations"

const defaultSubmissionMessage = "Failed to submit registration"

var validate = validator.New()

// RegistrationForm is the public course registration form.
type RegistrationForm struct {
	Name       string `json:"name" validate:"required,max=200"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Interest   string `json:"interest,omitempty"`
	Background string `json:"background,omitempty"`
}

// Validate checks the form before it is sent.
func (f RegistrationForm) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("invalid registration: %w", err)
	}
	return nil
}

// SubmissionError is a rejected registration. Message is the server's
// error.message when present.
type SubmissionError struct {
	Status  int
	Message string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("registration rejected (%d): %s", e.Status, e.Message)
}

// Register validates form and posts it as {data: form}.
func (c *Client) Register(ctx context.Context, form RegistrationForm) (Record, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	body, err := c.Post(ctx, RegistrationsEndpoint, form)
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			return nil, &SubmissionError{Status: fe.Status, Message: errorMessage(fe.Body)}
		}
		return nil, err
	}

	res, err := Normalize(body)
	if err != nil {
		return nil, err
	}
	rec, _ := res.One()
	return rec, nil
}

func errorMessage(body string) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil || payload.Error.Message == "" {
		return defaultSubmissionMessage
	}
	return payload.Error.Message
}
