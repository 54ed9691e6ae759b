package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/edaconf/edaconf/pkg/config"
	"github.com/edaconf/edaconf/pkg/controller"
	"github.com/edaconf/edaconf/pkg/engine"
	"github.com/edaconf/edaconf/pkg/stores"
	"github.com/edaconf/edaconf/pkg/telemetry"
)

// runtime holds everything a command needs to talk to the controller.
type runtime struct {
	manifest   *config.Manifest
	client     *controller.Client
	reconciler *engine.Reconciler
	tel        *telemetry.Telemetry
}

// newRuntime loads the manifest and builds the client, reconciler, and
// telemetry stack shared by the reconciling commands.
func newRuntime() (*runtime, error) {
	tel, err := newTelemetry()
	if err != nil {
		return nil, err
	}

	manifest, err := config.NewLoader().Load(manifestPath)
	if err != nil {
		return nil, err
	}

	client, err := controller.NewClient(manifest.Controller,
		controller.WithObserver(tel.Metrics.ObserveAPIRequest))
	if err != nil {
		return nil, err
	}

	reconciler := engine.NewReconciler(client,
		engine.WithLogger(tel.Logger),
		engine.WithMetrics(tel.Metrics))

	return &runtime{
		manifest:   manifest,
		client:     client,
		reconciler: reconciler,
		tel:        tel,
	}, nil
}

func newTelemetry() (*telemetry.Telemetry, error) {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceVersion = buildVersion
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return telemetry.New(cfg)
}

func (rt *runtime) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = rt.tel.Shutdown(ctx)
}

// runSummary is the aggregate of one pass over the manifest.
type runSummary struct {
	RunID   string           `json:"run_id"`
	Results []*engine.Result `json:"results"`
	Changed int              `json:"changed"`
	Failed  bool             `json:"failed"`
	Error   string           `json:"error,omitempty"`
}

// reconcileAll applies every declared resource in manifest order,
// activations before users, and stops on the first failure.
func (rt *runtime) reconcileAll(ctx context.Context, specs []engine.Spec) *runSummary {
	summary := &runSummary{RunID: uuid.New().String()}
	log := rt.tel.Logger.WithRunID(summary.RunID)

	for _, spec := range specs {
		result, err := rt.reconciler.Reconcile(ctx, spec)
		if err != nil {
			summary.Failed = true
			summary.Error = err.Error()
			log.WithResource(spec.ResourceType(), spec.Key()).WithError(err).Error("reconcile failed")
			return summary
		}
		if result.Changed {
			summary.Changed++
		}
		summary.Results = append(summary.Results, result)
	}
	return summary
}

// planAll computes every plan without mutating the controller.
func (rt *runtime) planAll(ctx context.Context, specs []engine.Spec) ([]*engine.Plan, error) {
	plans := make([]*engine.Plan, 0, len(specs))
	for _, spec := range specs {
		plan, err := rt.reconciler.Plan(ctx, spec)
		if err != nil {
			return nil, fmt.Errorf("plan %s %q: %w", spec.ResourceType(), spec.Key(), err)
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

// recordRun persists the summary to the run-history store if one is
// configured. History failures are reported but never fail the run.
func recordRun(ctx context.Context, dbPath string, summary *runSummary, log *telemetry.Logger) {
	if dbPath == "" {
		return
	}
	store, err := stores.NewHistoryStore(dbPath)
	if err != nil {
		log.WithError(err).Warn("run history disabled")
		return
	}
	if err := store.Init(ctx); err != nil {
		log.WithError(err).Warn("run history disabled")
		return
	}
	defer store.Close()

	run := &stores.Run{
		ID:           summary.RunID,
		ManifestPath: manifestPath,
		Status:       stores.RunStatusRunning,
		StartedAt:    time.Now(),
	}
	if err := store.CreateRun(ctx, run); err != nil {
		log.WithError(err).Warn("failed to record run")
		return
	}

	for _, result := range summary.Results {
		var diff *string
		if len(result.Diff) > 0 {
			if data, err := json.Marshal(result.Diff); err == nil {
				s := string(data)
				diff = &s
			}
		}
		rec := &stores.Result{
			RunID:        summary.RunID,
			ResourceType: result.ResourceType,
			Key:          result.Key,
			Outcome:      string(result.Outcome),
			Changed:      result.Changed,
			Diff:         diff,
			Timestamp:    time.Now(),
		}
		if err := store.AppendResult(ctx, rec); err != nil {
			log.WithError(err).Warn("failed to record result")
		}
	}

	status := stores.RunStatusCompleted
	var errMsg *string
	if summary.Failed {
		status = stores.RunStatusFailed
		errMsg = &summary.Error
	}
	if err := store.FinishRun(ctx, summary.RunID, status, errMsg); err != nil {
		log.WithError(err).Warn("failed to finish run")
	}
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
