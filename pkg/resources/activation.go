package resources

import (
	"context"
	"errors"

	"github.com/edaconf/edaconf/pkg/controller"
	"github.com/edaconf/edaconf/pkg/engine"
)

// Restart policies accepted by the controller for rulebook activations.
const (
	RestartAlways    = "always"
	RestartNever     = "never"
	RestartOnFailure = "on-failure"
)

// Activation declares a rulebook activation: a running instance binding a
// rulebook, a project, and a decision environment.
//
// Activations cannot be updated in place at the API layer. Reconciling an
// existing activation deletes it and creates a fresh one, which the engine
// surfaces as a warning. The extra-vars object referenced by a deleted
// activation is not removed: the controller has no DELETE endpoint for
// extra-vars.
type Activation struct {
	// Name is the activation's unique name within the controller.
	Name string `yaml:"name" json:"name" validate:"required"`

	// NewName renames the activation looked up via Name.
	NewName string `yaml:"new_name,omitempty" json:"new_name,omitempty"`

	// Description is submitted when non-empty.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Project is the name of the owning project. Resolved to project_id.
	Project string `yaml:"project" json:"project" validate:"required"`

	// Rulebook is the rulebook name within Project. Rulebook names are
	// unique only per project, so resolution is scoped by project_id.
	Rulebook string `yaml:"rulebook" json:"rulebook" validate:"required"`

	// DecisionEnvironment is the decision environment name. Resolved to
	// decision_environment_id.
	DecisionEnvironment string `yaml:"decision_environment" json:"decision_environment" validate:"required"`

	// RestartPolicy defaults to "always".
	RestartPolicy string `yaml:"restart_policy,omitempty" json:"restart_policy,omitempty" validate:"omitempty,oneof=always never on-failure"`

	// Enabled defaults to true.
	Enabled *bool `yaml:"is_enabled,omitempty" json:"is_enabled,omitempty"`

	// Variables are extra variables passed to the rulebook. They are
	// stored as a separate extra-vars resource created before the
	// activation that references it.
	Variables map[string]any `yaml:"variables,omitempty" json:"variables,omitempty"`

	// State is "present" or "absent", default "present".
	State engine.State `yaml:"state,omitempty" json:"state,omitempty" validate:"omitempty,oneof=present absent"`
}

// ApplyDefaults fills the defaulted fields in place.
func (a *Activation) ApplyDefaults() {
	if a.RestartPolicy == "" {
		a.RestartPolicy = RestartAlways
	}
	if a.Enabled == nil {
		enabled := true
		a.Enabled = &enabled
	}
	if a.State == "" {
		a.State = engine.StatePresent
	}
}

// ResourceType implements engine.Spec.
func (a *Activation) ResourceType() string { return "activation" }

// Endpoint implements engine.Spec.
func (a *Activation) Endpoint() string { return "activations" }

// KeyField implements engine.Spec.
func (a *Activation) KeyField() string { return "name" }

// Key implements engine.Spec.
func (a *Activation) Key() string { return a.Name }

// RenameTo implements engine.Spec.
func (a *Activation) RenameTo() string { return a.NewName }

// DesiredState implements engine.Spec.
func (a *Activation) DesiredState() engine.State {
	if a.State == "" {
		return engine.StatePresent
	}
	return a.State
}

// Lookup implements engine.Spec. The activations list endpoint filters by
// name server-side.
func (a *Activation) Lookup() engine.LookupStrategy { return engine.LookupServerFiltered }

// UpdatesInPlace implements engine.Spec. Activations are immutable in
// place; the engine deletes and recreates.
func (a *Activation) UpdatesInPlace() bool { return false }

// WriteOnly implements engine.Spec.
func (a *Activation) WriteOnly() []string { return nil }

// Resolve implements engine.Spec. Parent identifiers resolve first: the
// project id is required to scope the rulebook lookup.
func (a *Activation) Resolve(ctx context.Context, r *engine.Resolver, existing controller.Object) (engine.Fields, []engine.Prereq, error) {
	fields := engine.Fields{
		// Always submitted; both carry declared or defaulted values.
		"restart_policy": a.RestartPolicy,
		"is_enabled":     a.Enabled == nil || *a.Enabled,
	}
	// Submitted only when set.
	if a.Description != "" {
		fields["description"] = a.Description
	}

	projectID, err := r.ResolveID(ctx, "projects", a.Project)
	if err != nil {
		return nil, nil, wrapResolveErr(err, "project")
	}
	fields["project_id"] = projectID

	deID, err := r.ResolveID(ctx, "decision-environments", a.DecisionEnvironment)
	if err != nil {
		return nil, nil, wrapResolveErr(err, "decision_environment")
	}
	fields["decision_environment_id"] = deID

	rulebook, err := r.ResolveScoped(ctx, "rulebooks", a.Rulebook, map[string]string{
		"project_id": controller.FormatID(projectID),
	})
	if err != nil {
		return nil, nil, wrapResolveErr(err, "rulebook")
	}
	fields["rulebook_id"] = rulebook.ID()

	var prereqs []engine.Prereq
	if a.Variables != nil {
		prereqs = append(prereqs, engine.Prereq{
			Endpoint: "extra-vars",
			Fields:   engine.Fields{"extra_var": a.Variables},
			AssignTo: "extra_var_id",
		})
	}
	return fields, prereqs, nil
}

// Normalize implements engine.Spec. Activation submissions and
// representations share a shape; nothing to rewrite.
func (a *Activation) Normalize(existing controller.Object, fields engine.Fields) {}

// wrapResolveErr tags a resolver failure with the manifest field that
// triggered it.
func wrapResolveErr(err error, field string) error {
	var re *engine.ReconcileError
	if errors.As(err, &re) {
		return re.WithField(field)
	}
	return err
}
