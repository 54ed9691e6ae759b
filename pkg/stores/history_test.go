package stores

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// setupTestStore creates a file-backed store in a temp directory
func setupTestStore(t *testing.T) *HistoryStore {
	t.Helper()

	store, err := NewHistoryStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testRun(id string) *Run {
	return &Run{
		ID:           id,
		ManifestPath: "edaconf.yaml",
		Status:       RunStatusRunning,
		StartedAt:    time.Now(),
	}
}

// TestStoreLifecycle tests initialization and closure
func TestStoreLifecycle(t *testing.T) {
	store, err := NewHistoryStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	if err := store.HealthCheck(ctx); err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

// TestRunLifecycle tests creating, finishing, and fetching a run
func TestRunLifecycle(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.CreateRun(ctx, testRun("run-1")); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	if err := store.FinishRun(ctx, "run-1", RunStatusCompleted, nil); err != nil {
		t.Fatalf("failed to finish run: %v", err)
	}

	run, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if run.Status != RunStatusCompleted {
		t.Errorf("expected completed, got %s", run.Status)
	}
	if run.CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}
	if run.Error != nil {
		t.Errorf("expected no error, got %v", *run.Error)
	}
}

// TestFailedRunRecordsError tests error persistence
func TestFailedRunRecordsError(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.CreateRun(ctx, testRun("run-1")); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	msg := "resolver: projects \"missing\" not found"
	if err := store.FinishRun(ctx, "run-1", RunStatusFailed, &msg); err != nil {
		t.Fatalf("failed to finish run: %v", err)
	}

	run, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if run.Status != RunStatusFailed || run.Error == nil || *run.Error != msg {
		t.Errorf("unexpected run: %+v", run)
	}
}

// TestResultsByRun tests appending and listing per-resource results
func TestResultsByRun(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.CreateRun(ctx, testRun("run-1")); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	diff := `[{"field":"restart_policy","before":"never","after":"always"}]`
	records := []*Result{
		{RunID: "run-1", ResourceType: "activation", Key: "alerts", Outcome: "recreated", Changed: true, Diff: &diff, Timestamp: time.Now()},
		{RunID: "run-1", ResourceType: "user", Key: "alice", Outcome: "unchanged", Changed: false, Timestamp: time.Now()},
	}
	for _, r := range records {
		if err := store.AppendResult(ctx, r); err != nil {
			t.Fatalf("failed to append result: %v", err)
		}
		if r.ID == 0 {
			t.Error("expected assigned result ID")
		}
	}

	results, err := store.ListResultsByRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("failed to list results: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Key != "alerts" || results[1].Key != "alice" {
		t.Errorf("expected insertion order, got %v, %v", results[0].Key, results[1].Key)
	}
	if results[0].Diff == nil || *results[0].Diff != diff {
		t.Errorf("expected diff persisted, got %v", results[0].Diff)
	}
}

// TestListRuns tests ordering and pagination
func TestListRuns(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"run-1", "run-2", "run-3"} {
		run := testRun(id)
		run.StartedAt = base.Add(time.Duration(i) * time.Minute)
		if err := store.CreateRun(ctx, run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
	}

	runs, err := store.ListRuns(ctx, 2, 0)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "run-3" {
		t.Errorf("expected most recent first, got %s", runs[0].ID)
	}
}

// TestDeleteRunCascades tests that deleting a run removes its results
func TestDeleteRunCascades(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.CreateRun(ctx, testRun("run-1")); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}
	result := &Result{RunID: "run-1", ResourceType: "user", Key: "alice", Outcome: "created", Changed: true, Timestamp: time.Now()}
	if err := store.AppendResult(ctx, result); err != nil {
		t.Fatalf("failed to append result: %v", err)
	}

	if err := store.DeleteRun(ctx, "run-1"); err != nil {
		t.Fatalf("failed to delete run: %v", err)
	}

	if _, err := store.GetRun(ctx, "run-1"); err == nil {
		t.Error("expected run to be gone")
	}
	results, err := store.ListResultsByRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("failed to list results: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected cascade delete, got %d results", len(results))
	}
}

// TestUnknownRun tests not-found handling
func TestUnknownRun(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if _, err := store.GetRun(ctx, "nope"); err == nil {
		t.Error("expected error for unknown run")
	}
	if err := store.FinishRun(ctx, "nope", RunStatusCompleted, nil); err == nil {
		t.Error("expected error finishing unknown run")
	}
	if err := store.DeleteRun(ctx, "nope"); err == nil {
		t.Error("expected error deleting unknown run")
	}
}
