package engine

import (
	"fmt"

	"github.com/rambosorn/khadimy/internal/metadata"
)

// CheckPermission verifies that the caller's role holds the action on the
// content type. Admins bypass the check.
func CheckPermission(user *metadata.UserContext, ct *metadata.ContentType, action string, reg *metadata.Registry) error {
	if user == nil {
		user = metadata.Anonymous()
	}
	if user.IsAdmin() {
		return nil
	}
	if reg.Allowed(user.Role, metadata.ActionUID(ct.Name, action)) {
		return nil
	}
	return ForbiddenError(fmt.Sprintf("Forbidden: %s", metadata.ActionUID(ct.Name, action)))
}
