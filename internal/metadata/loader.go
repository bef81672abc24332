package metadata

import (
	"context"
	"fmt"
)

// GrantSource reads the persisted permission rows grouped by role type.
type GrantSource interface {
	LoadGrants(ctx context.Context) (map[string][]string, error)
}

// Reload refreshes the registry permissions from the store. Called at startup
// and after seeding.
func Reload(ctx context.Context, src GrantSource, reg *Registry) error {
	grants, err := src.LoadGrants(ctx)
	if err != nil {
		return fmt.Errorf("load grants: %w", err)
	}
	reg.LoadGrants(grants)
	return nil
}
