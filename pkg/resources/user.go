package resources

import (
	"context"
	"sort"

	"github.com/edaconf/edaconf/pkg/controller"
	"github.com/edaconf/edaconf/pkg/engine"
)

// User declares a controller user and its role assignments.
type User struct {
	// Username is the user's unique login name.
	Username string `yaml:"username" json:"username" validate:"required"`

	// NewUsername renames the user looked up via Username.
	NewUsername string `yaml:"new_username,omitempty" json:"new_username,omitempty"`

	// FirstName is submitted when non-empty.
	FirstName string `yaml:"first_name,omitempty" json:"first_name,omitempty"`

	// LastName is submitted when non-empty.
	LastName string `yaml:"last_name,omitempty" json:"last_name,omitempty"`

	// Password is always submitted. The controller never returns it, so
	// it is write-only and excluded from the diff.
	Password string `yaml:"password" json:"password" validate:"required"`

	// Roles lists role names to assign. Each resolves to a role ID
	// against the roles collection; the API expects a bare ID list.
	Roles []string `yaml:"roles" json:"roles" validate:"required,min=1"`

	// Superuser defaults to false and is always submitted.
	Superuser bool `yaml:"is_superuser,omitempty" json:"is_superuser,omitempty"`

	// State is "present" or "absent", default "present".
	State engine.State `yaml:"state,omitempty" json:"state,omitempty" validate:"omitempty,oneof=present absent"`
}

// ApplyDefaults fills the defaulted fields in place.
func (u *User) ApplyDefaults() {
	if u.State == "" {
		u.State = engine.StatePresent
	}
}

// ResourceType implements engine.Spec.
func (u *User) ResourceType() string { return "user" }

// Endpoint implements engine.Spec.
func (u *User) Endpoint() string { return "users" }

// KeyField implements engine.Spec.
func (u *User) KeyField() string { return "username" }

// Key implements engine.Spec.
func (u *User) Key() string { return u.Username }

// RenameTo implements engine.Spec.
func (u *User) RenameTo() string { return u.NewUsername }

// DesiredState implements engine.Spec.
func (u *User) DesiredState() engine.State {
	if u.State == "" {
		return engine.StatePresent
	}
	return u.State
}

// Lookup implements engine.Spec. The users list endpoint has no username
// filter, so the engine falls back to a full-collection scan.
func (u *User) Lookup() engine.LookupStrategy { return engine.LookupFullScan }

// UpdatesInPlace implements engine.Spec.
func (u *User) UpdatesInPlace() bool { return true }

// WriteOnly implements engine.Spec.
func (u *User) WriteOnly() []string { return []string{"password"} }

// Resolve implements engine.Spec. Role names resolve against the roles
// collection, which has no server-side name filter either.
func (u *User) Resolve(ctx context.Context, r *engine.Resolver, existing controller.Object) (engine.Fields, []engine.Prereq, error) {
	fields := engine.Fields{
		"password":     u.Password,
		"is_superuser": u.Superuser,
	}
	if u.FirstName != "" {
		fields["first_name"] = u.FirstName
	}
	if u.LastName != "" {
		fields["last_name"] = u.LastName
	}

	roleIDs := make([]any, 0, len(u.Roles))
	for _, name := range u.Roles {
		id, err := r.ResolveIDScan(ctx, "roles", name)
		if err != nil {
			return nil, nil, wrapResolveErr(err, "roles")
		}
		roleIDs = append(roleIDs, id)
	}
	fields["roles"] = roleIDs

	return fields, nil, nil
}

// Normalize implements engine.Spec. The controller returns a user's roles
// as full role objects but accepts only bare ID lists on submission, so
// the existing list is flattened to IDs and both sides are sorted: list
// order must never cause a spurious diff.
func (u *User) Normalize(existing controller.Object, fields engine.Fields) {
	if ids, ok := fields["roles"].([]any); ok {
		fields["roles"] = sortIDs(ids)
	}

	if existing == nil {
		return
	}
	nested, ok := existing["roles"].([]any)
	if !ok {
		return
	}
	flattened := make([]any, 0, len(nested))
	for _, entry := range nested {
		if role, ok := entry.(map[string]any); ok {
			flattened = append(flattened, role["id"])
		} else {
			flattened = append(flattened, entry)
		}
	}
	existing["roles"] = sortIDs(flattened)
}

// sortIDs orders identifiers by their string rendering, giving a stable
// basis for order-insensitive comparison of UUID and numeric IDs alike.
func sortIDs(ids []any) []any {
	sorted := make([]any, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool {
		return controller.FormatID(sorted[i]) < controller.FormatID(sorted[j])
	})
	return sorted
}
