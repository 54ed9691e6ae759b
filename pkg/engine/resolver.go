package engine

import (
	"context"

	"github.com/edaconf/edaconf/pkg/controller"
	"github.com/edaconf/edaconf/pkg/telemetry"
)

// Resolver maps human-readable names to backend identifiers by querying
// related collections. Resolution is read-only; every lookup must match
// exactly one object or fail with a classified error.
type Resolver struct {
	api     API
	metrics *telemetry.Metrics
}

// NewResolver creates a resolver over the given transport.
func NewResolver(api API) *Resolver {
	return &Resolver{api: api}
}

// ResolveID resolves a name to the identifier of the single matching
// object in the collection. The controller substring-matches the name
// filter, so results are re-checked for an exact match client-side.
func (r *Resolver) ResolveID(ctx context.Context, endpoint, name string) (any, error) {
	obj, err := r.resolveOne(ctx, endpoint, name, map[string]string{"name": name})
	if err != nil {
		return nil, err
	}
	return obj.ID(), nil
}

// ResolveScoped resolves a name within a composite uniqueness scope, e.g.
// a rulebook name that is unique only within its owning project. The scope
// filter must already contain resolved parent identifiers: parents resolve
// first, dependents second.
func (r *Resolver) ResolveScoped(ctx context.Context, endpoint, name string, scope map[string]string) (controller.Object, error) {
	filter := map[string]string{"name": name}
	for k, v := range scope {
		filter[k] = v
	}
	return r.resolveOne(ctx, endpoint, name, filter)
}

// ResolveIDScan resolves a name against a collection whose list endpoint
// has no name filter (roles) by scanning the full collection client-side.
// O(collection size) per call; a stopgap until the controller grows a
// server-side filter.
func (r *Resolver) ResolveIDScan(ctx context.Context, endpoint, name string) (any, error) {
	all, err := r.api.ListAll(ctx, endpoint, nil)
	if err != nil {
		r.metrics.ObserveLookup(endpoint, "error")
		return nil, ClassifyAPIError(err, endpoint, name)
	}
	obj, err := r.pickOne(endpoint, name, all)
	if err != nil {
		return nil, err
	}
	return obj.ID(), nil
}

func (r *Resolver) resolveOne(ctx context.Context, endpoint, name string, filter map[string]string) (controller.Object, error) {
	results, err := r.api.ListAll(ctx, endpoint, filter)
	if err != nil {
		r.metrics.ObserveLookup(endpoint, "error")
		return nil, ClassifyAPIError(err, endpoint, name)
	}
	return r.pickOne(endpoint, name, results)
}

// pickOne enforces exactly-one semantics over a candidate list.
func (r *Resolver) pickOne(endpoint, name string, candidates []controller.Object) (controller.Object, error) {
	matches := exactMatches(candidates, "name", name)
	switch len(matches) {
	case 0:
		r.metrics.ObserveLookup(endpoint, "not_found")
		return nil, NewNotFound(endpoint, name)
	case 1:
		r.metrics.ObserveLookup(endpoint, "resolved")
		return matches[0], nil
	default:
		r.metrics.ObserveLookup(endpoint, "ambiguous")
		return nil, NewAmbiguous(endpoint, name, len(matches))
	}
}

func exactMatches(objs []controller.Object, field, value string) []controller.Object {
	var out []controller.Object
	for _, o := range objs {
		if o.String(field) == value {
			out = append(out, o)
		}
	}
	return out
}
