package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/edaconf/edaconf/pkg/controller"
	"github.com/edaconf/edaconf/pkg/telemetry"
)

// Reconciler drives one resource through its desired-state transition.
//
// Each invocation is a fresh cold read of controller state: nothing is
// cached between invocations, so re-running with the same desired state
// converges. There is no optimistic-concurrency token; two reconcilers
// racing on the same key is a known, unguarded limitation.
type Reconciler struct {
	api      API
	resolver *Resolver
	log      *telemetry.Logger
	metrics  *telemetry.Metrics
	tracer   trace.Tracer
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithLogger sets the structured logger.
func WithLogger(log *telemetry.Logger) ReconcilerOption {
	return func(r *Reconciler) { r.log = log }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *telemetry.Metrics) ReconcilerOption {
	return func(r *Reconciler) { r.metrics = m }
}

// NewReconciler creates a reconciler over the given transport.
func NewReconciler(api API, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		api:      api,
		resolver: NewResolver(api),
		tracer:   otel.Tracer("edaconf/engine"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = telemetry.NopLogger()
	}
	r.resolver.metrics = r.metrics
	return r
}

// Resolver exposes the reconciler's resolver, for callers that need ad-hoc
// lookups with the same transport.
func (r *Reconciler) Resolver() *Resolver {
	return r.resolver
}

// Reconcile plans and applies one resource. It is the single entry point
// for callers that do not need a separate dry-run phase.
func (r *Reconciler) Reconcile(ctx context.Context, spec Spec) (*Result, error) {
	start := time.Now()
	plan, err := r.Plan(ctx, spec)
	if err != nil {
		r.metrics.ObserveError(string(kindOf(err)))
		return nil, err
	}
	res, err := r.Apply(ctx, plan)
	if err != nil {
		r.metrics.ObserveError(string(kindOf(err)))
		return nil, err
	}
	r.metrics.ObserveReconcile(spec.ResourceType(), string(res.Outcome), time.Since(start))
	return res, nil
}

// Plan computes the mutation decision for one resource using only reads:
// find the existing resource, resolve every foreign key, normalize, and
// diff. Any resolution failure aborts here, before a single mutating call.
func (r *Reconciler) Plan(ctx context.Context, spec Spec) (*Plan, error) {
	ctx, span := r.tracer.Start(ctx, "engine.plan",
		trace.WithAttributes(
			attribute.String("resource_type", spec.ResourceType()),
			attribute.String("key", spec.Key()),
		))
	defer span.End()

	log := r.log.WithResource(spec.ResourceType(), spec.Key())

	existing, err := r.findExisting(ctx, spec)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		ID:           uuid.New().String(),
		ResourceType: spec.ResourceType(),
		Endpoint:     spec.Endpoint(),
		Key:          spec.Key(),
		Existing:     existing,
		CreatedAt:    time.Now(),
	}

	if spec.DesiredState() == StateAbsent {
		if existing == nil {
			plan.Operation = OperationNoop
			log.Debug("already absent")
			return plan, nil
		}
		plan.Operation = OperationDelete
		return plan, nil
	}

	fields, prereqs, err := spec.Resolve(ctx, r.resolver, existing)
	if err != nil {
		return nil, err
	}
	if fields == nil {
		fields = Fields{}
	}
	fields[spec.KeyField()] = submittedKey(spec, existing)
	plan.Fields = fields
	plan.Prereqs = prereqs

	// Diff against a copy: Normalize may rewrite nested structures of the
	// existing representation to match the submission shape.
	normalized := existing.Clone()
	spec.Normalize(normalized, fields)
	plan.Diff = diffFields(normalized, fields, writeOnlySet(spec))

	switch {
	case existing == nil:
		plan.Operation = OperationCreate
	case len(plan.Diff) == 0:
		plan.Operation = OperationNoop
	case !spec.UpdatesInPlace():
		// The controller cannot update this resource type in place; a
		// logical update is performed as delete plus create.
		plan.Operation = OperationRecreate
		plan.Warnings = append(plan.Warnings, fmt.Sprintf(
			"%s %q cannot be updated in place and will be deleted and recreated",
			spec.ResourceType(), spec.Key()))
	default:
		plan.Operation = OperationUpdate
	}

	log.WithField("operation", string(plan.Operation)).Debug("plan computed")
	return plan, nil
}

// Apply executes a plan's mutations strictly in order: delete the existing
// resource first for recreates, then prerequisite sub-resources, then the
// parent create or update. Mutation failures are surfaced verbatim with
// the failing endpoint; nothing is retried.
func (r *Reconciler) Apply(ctx context.Context, plan *Plan) (*Result, error) {
	ctx, span := r.tracer.Start(ctx, "engine.apply",
		trace.WithAttributes(
			attribute.String("resource_type", plan.ResourceType),
			attribute.String("key", plan.Key),
			attribute.String("operation", string(plan.Operation)),
		))
	defer span.End()

	log := r.log.WithResource(plan.ResourceType, plan.Key)
	res := &Result{
		ResourceType: plan.ResourceType,
		Key:          plan.Key,
		Diff:         plan.Diff,
		Warnings:     plan.Warnings,
	}

	switch plan.Operation {
	case OperationNoop:
		res.Outcome = OutcomeUnchanged
		res.Resource = plan.Existing
		return res, nil

	case OperationDelete:
		if err := r.api.Delete(ctx, plan.Endpoint, plan.Existing.ID()); err != nil {
			return nil, ClassifyAPIError(err, plan.Endpoint, plan.Key)
		}
		log.Info("deleted")
		res.Outcome = OutcomeDeleted
		res.Changed = true
		return res, nil

	case OperationRecreate:
		if err := r.api.Delete(ctx, plan.Endpoint, plan.Existing.ID()); err != nil {
			return nil, ClassifyAPIError(err, plan.Endpoint, plan.Key)
		}
		if err := r.applyPrereqs(ctx, plan); err != nil {
			return nil, err
		}
		created, err := r.api.Create(ctx, plan.Endpoint, plan.Fields)
		if err != nil {
			return nil, ClassifyAPIError(err, plan.Endpoint, plan.Key)
		}
		log.Info("recreated")
		res.Outcome = OutcomeRecreated
		res.Changed = true
		res.Resource = created
		return res, nil

	case OperationCreate:
		if err := r.applyPrereqs(ctx, plan); err != nil {
			return nil, err
		}
		created, err := r.api.Create(ctx, plan.Endpoint, plan.Fields)
		if err != nil {
			return nil, ClassifyAPIError(err, plan.Endpoint, plan.Key)
		}
		log.Info("created")
		res.Outcome = OutcomeCreated
		res.Changed = true
		res.Resource = created
		return res, nil

	case OperationUpdate:
		if err := r.applyPrereqs(ctx, plan); err != nil {
			return nil, err
		}
		updated, err := r.api.Update(ctx, plan.Endpoint, plan.Existing.ID(), plan.Fields)
		if err != nil {
			return nil, ClassifyAPIError(err, plan.Endpoint, plan.Key)
		}
		log.Info("updated")
		res.Outcome = OutcomeUpdated
		res.Changed = true
		res.Resource = updated
		return res, nil
	}

	return nil, fmt.Errorf("unknown plan operation %q", plan.Operation)
}

// applyPrereqs creates dependent sub-resources and wires their identifiers
// into the parent payload. Runs before the parent mutation, always.
func (r *Reconciler) applyPrereqs(ctx context.Context, plan *Plan) error {
	for _, p := range plan.Prereqs {
		created, err := r.api.Create(ctx, p.Endpoint, p.Fields)
		if err != nil {
			return ClassifyAPIError(err, p.Endpoint, plan.Key)
		}
		plan.Fields[p.AssignTo] = created.ID()
	}
	return nil
}

// findExisting looks up the resource by its natural key. Server-filtered
// lookups re-check for an exact match because the controller substring-
// matches name filters; full-scan lookups fetch the whole collection.
func (r *Reconciler) findExisting(ctx context.Context, spec Spec) (controller.Object, error) {
	var (
		results []controller.Object
		err     error
	)
	switch spec.Lookup() {
	case LookupFullScan:
		results, err = r.api.ListAll(ctx, spec.Endpoint(), nil)
	default:
		results, err = r.api.ListAll(ctx, spec.Endpoint(), map[string]string{
			spec.KeyField(): spec.Key(),
		})
	}
	if err != nil {
		return nil, ClassifyAPIError(err, spec.Endpoint(), spec.Key())
	}

	matches := exactMatches(results, spec.KeyField(), spec.Key())
	if len(matches) == 0 {
		// The key may be the identifier itself rather than the natural key.
		for _, obj := range results {
			if controller.FormatID(obj.ID()) == spec.Key() {
				matches = append(matches, obj)
			}
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}
	if len(matches) > 1 {
		return nil, NewAmbiguous(spec.Endpoint(), spec.Key(), len(matches))
	}
	return matches[0], nil
}

// submittedKey resolves the key that goes into the payload: an explicit
// rename wins, else the existing resource's current key, else the declared
// key.
func submittedKey(spec Spec, existing controller.Object) string {
	if newKey := spec.RenameTo(); newKey != "" {
		return newKey
	}
	if existing != nil {
		if current := existing.String(spec.KeyField()); current != "" {
			return current
		}
	}
	return spec.Key()
}
