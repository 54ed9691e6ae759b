package engine

import (
	"testing"

	"github.com/edaconf/edaconf/pkg/controller"
)

// TestDiffFieldsTypeInsensitive verifies structurally equal values of
// different Go types do not count as drift
func TestDiffFieldsTypeInsensitive(t *testing.T) {
	existing := controller.Object{
		"project_id": float64(7),
		"roles":      []any{float64(1), float64(2)},
	}
	fields := Fields{
		"project_id": 7,
		"roles":      []int{1, 2},
	}

	if changes := diffFields(existing, fields, nil); len(changes) != 0 {
		t.Errorf("expected no changes, got %v", changes)
	}
}

// TestDiffFieldsReportsDrift verifies differing fields are reported in
// sorted order with before and after values
func TestDiffFieldsReportsDrift(t *testing.T) {
	existing := controller.Object{
		"restart_policy": "never",
		"is_enabled":     true,
	}
	fields := Fields{
		"restart_policy": "always",
		"is_enabled":     false,
	}

	changes := diffFields(existing, fields, nil)
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %v", changes)
	}
	if changes[0].Field != "is_enabled" || changes[1].Field != "restart_policy" {
		t.Errorf("expected sorted field order, got %v", changes)
	}
	if changes[1].Before != "never" || changes[1].After != "always" {
		t.Errorf("unexpected change values: %+v", changes[1])
	}
}

// TestDiffFieldsMissingCountsAsChange verifies a payload field the existing
// resource lacks is a change
func TestDiffFieldsMissingCountsAsChange(t *testing.T) {
	existing := controller.Object{"name": "alerts"}
	fields := Fields{"name": "alerts", "description": "prod alerts"}

	changes := diffFields(existing, fields, nil)
	if len(changes) != 1 || changes[0].Field != "description" {
		t.Errorf("expected description change, got %v", changes)
	}
}

// TestDiffFieldsSkipsWriteOnly verifies write-only fields never count as
// drift, since the controller never echoes them back
func TestDiffFieldsSkipsWriteOnly(t *testing.T) {
	existing := controller.Object{"username": "alice"}
	fields := Fields{"username": "alice", "password": "hunter2"}

	changes := diffFields(existing, fields, map[string]bool{"password": true})
	if len(changes) != 0 {
		t.Errorf("expected no changes, got %v", changes)
	}
}

// TestDiffFieldsListOrderMatters verifies unordered equality is the
// responsibility of Normalize, not the diff
func TestDiffFieldsListOrderMatters(t *testing.T) {
	existing := controller.Object{"roles": []any{float64(2), float64(1)}}
	fields := Fields{"roles": []any{float64(1), float64(2)}}

	if changes := diffFields(existing, fields, nil); len(changes) != 1 {
		t.Errorf("expected order difference to register, got %v", changes)
	}
}
