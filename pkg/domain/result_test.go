package domain

import (
	"errors"
	"testing"
)

func TestResultMergeAndBlocking(t *testing.T) {
	var result Result
	result.Merge(Result{Violations: []Violation{Warn("ambiguous_part", "p1", "listed twice")}})
	if result.HasBlocking() {
		t.Fatalf("expected no blocking violations")
	}
	if err := result.Err(); err != nil {
		t.Fatalf("expected nil error for warnings only, got %v", err)
	}
	result.Merge(Result{Violations: []Violation{Block("part_locations", "p2", &NotFoundError{Name: "p2"})}})
	if !result.HasBlocking() {
		t.Fatalf("expected blocking violation")
	}
	if got := len(result.Warnings()); got != 1 {
		t.Fatalf("expected 1 warning, got %d", got)
	}
}

func TestResultMergeEmptyInput(t *testing.T) {
	original := Result{Violations: []Violation{{Rule: "existing", Severity: SeverityWarn}}}
	original.Merge(Result{})
	if len(original.Violations) != 1 || original.Violations[0].Rule != "existing" {
		t.Fatalf("expected original violations to remain, got %+v", original.Violations)
	}
}

func TestRuleViolationErrorUnwrapsTypedErrors(t *testing.T) {
	var result Result
	result.Add(Block("part_locations", "pX", &NotFoundError{Name: "pX"}))
	result.Add(Block("output_capacity", "", &CapacityExceededError{Resource: "output wells", Requested: 200, Capacity: 192}))
	err := result.Err()
	if !IsRuleViolation(err) {
		t.Fatalf("expected rule violation error, got %T", err)
	}
	if !errors.Is(err, ErrNotFound) || !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected typed sentinels to match: %v", err)
	}
	if errors.Is(err, ErrConfiguration) {
		t.Fatalf("unexpected configuration match")
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Name != "pX" {
		t.Fatalf("expected NotFoundError for pX, got %+v", nf)
	}
}

func TestConfigurationErrorMessage(t *testing.T) {
	err := Configf("shared_volume", "computed %.1f", -1.5)
	if err.Error() != "invalid configuration shared_volume: computed -1.5" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration match")
	}
}
