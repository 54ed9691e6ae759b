package engine

import (
	"context"
	"time"

	"github.com/edaconf/edaconf/pkg/controller"
)

// State is the declared desired state of a resource.
type State string

const (
	StatePresent State = "present"
	StateAbsent  State = "absent"
)

// Outcome reports what a reconciliation did.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeUpdated   Outcome = "updated"
	OutcomeRecreated Outcome = "recreated"
	OutcomeDeleted   Outcome = "deleted"
	OutcomeUnchanged Outcome = "unchanged"
)

// Operation is the mutation a plan decided on.
type Operation string

const (
	OperationCreate   Operation = "create"
	OperationUpdate   Operation = "update"
	OperationRecreate Operation = "recreate"
	OperationDelete   Operation = "delete"
	OperationNoop     Operation = "noop"
)

// LookupStrategy selects how the existing resource is found.
type LookupStrategy string

const (
	// LookupServerFiltered queries the collection with a server-side
	// filter on the key field, then scans for an exact key match.
	LookupServerFiltered LookupStrategy = "server_filtered"

	// LookupFullScan fetches the entire collection and scans client-side.
	// This is a stopgap for collections whose list endpoint has no key
	// filter (users) and costs O(collection size) per reconcile.
	LookupFullScan LookupStrategy = "full_scan"
)

// Fields is a submission payload: field name to desired value. Only fields
// present in the map are submitted and compared.
type Fields map[string]any

// Prereq is a dependent sub-resource that must be created before the
// parent create/update that references it. The created object's "id" is
// written into the parent payload under AssignTo. This is a fixed
// two-phase write, not a transaction: the parent is never created first
// and the sub-resource is never retrofitted.
type Prereq struct {
	Endpoint string
	Fields   Fields
	AssignTo string
}

// Spec describes one resource type's reconciliation behavior. Implemented
// by the concrete resource types in pkg/resources.
type Spec interface {
	// ResourceType is the short type name used in logs, metrics, and
	// run history ("activation", "user").
	ResourceType() string

	// Endpoint is the controller collection ("activations", "users").
	Endpoint() string

	// KeyField is the natural-key field within the collection ("name",
	// "username"). The key is unique within the collection.
	KeyField() string

	// Key is the declared natural key used to find the existing resource.
	Key() string

	// RenameTo is the new key when a rename was requested, else "".
	RenameTo() string

	// DesiredState is present or absent.
	DesiredState() State

	// Lookup selects server-filtered lookup or the full-scan fallback.
	Lookup() LookupStrategy

	// UpdatesInPlace reports whether the controller can update this
	// resource type in place. Types that cannot (activations) are
	// deleted and recreated, surfaced to the caller as a warning.
	UpdatesInPlace() bool

	// WriteOnly lists fields that are submitted but never returned by
	// the controller (passwords). They are excluded from the diff so a
	// converged reconcile stays a no-op.
	WriteOnly() []string

	// Resolve builds the submission payload, resolving every foreign-key
	// name to its identifier, and returns any prerequisite sub-resource
	// writes. It must not mutate controller state.
	Resolve(ctx context.Context, r *Resolver, existing controller.Object) (Fields, []Prereq, error)

	// Normalize rewrites fields of the existing representation whose
	// structure differs from the submission representation (nested role
	// objects vs. bare identifier lists) so the diff compares like with
	// like. It may mutate both arguments.
	Normalize(existing controller.Object, fields Fields)
}

// FieldChange is one differing field between the existing resource and the
// submission payload.
type FieldChange struct {
	Field  string `json:"field"`
	Before any    `json:"before"`
	After  any    `json:"after"`
}

// Plan is the read-only phase's decision for one resource: what operation
// to perform and the exact payloads involved. Applying a plan performs the
// mutations in order and nothing else.
type Plan struct {
	ID           string            `json:"id"`
	ResourceType string            `json:"resource_type"`
	Endpoint     string            `json:"endpoint"`
	Key          string            `json:"key"`
	Operation    Operation         `json:"operation"`
	Existing     controller.Object `json:"existing,omitempty"`
	Fields       Fields            `json:"fields,omitempty"`
	Prereqs      []Prereq          `json:"prereqs,omitempty"`
	Diff         []FieldChange     `json:"diff,omitempty"`
	Warnings     []string          `json:"warnings,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Changed reports whether applying the plan will mutate controller state.
func (p *Plan) Changed() bool {
	return p.Operation != OperationNoop
}

// Result is the outcome of applying a plan.
type Result struct {
	ResourceType string            `json:"resource_type"`
	Key          string            `json:"key"`
	Outcome      Outcome           `json:"outcome"`
	Changed      bool              `json:"changed"`
	Resource     controller.Object `json:"resource,omitempty"`
	Diff         []FieldChange     `json:"diff,omitempty"`
	Warnings     []string          `json:"warnings,omitempty"`
}
