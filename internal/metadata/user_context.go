package metadata

// Role types shipped with every installation.
const (
	RolePublic        = "public"
	RoleAuthenticated = "authenticated"
	RoleAdmin         = "admin"
)

// UserContext represents the caller, set by auth middleware. Anonymous callers
// carry the public role.
type UserContext struct {
	ID   int64  `json:"id,omitempty"`
	Role string `json:"role"`
}

// Anonymous returns the context used for unauthenticated requests.
func Anonymous() *UserContext {
	return &UserContext{Role: RolePublic}
}

// IsAdmin checks whether the user has the admin role.
func (u *UserContext) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// UserLocalsKey is the request-local key the auth middleware stores the caller under.
const UserLocalsKey = "user"
