package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities decide whether planning may continue.
const (
	// SeverityBlock aborts planning before any robot command is issued.
	SeverityBlock Severity = "block"
	// SeverityWarn is reported but does not stop planning.
	SeverityWarn Severity = "warn"
)

// Violation describes a single rule finding. Err carries the typed planning
// error for blocking findings.
type Violation struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Subject  string   `json:"subject,omitempty"`
	Err      error    `json:"-"`
}

// Result aggregates rule violations.
type Result struct {
	Violations []Violation `json:"violations,omitempty"`
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// Add appends a single violation.
func (r *Result) Add(v Violation) {
	r.Violations = append(r.Violations, v)
}

// HasBlocking reports whether any violation blocks planning.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// Warnings returns the non-blocking violations.
func (r Result) Warnings() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity != SeverityBlock {
			out = append(out, v)
		}
	}
	return out
}

// Err returns a RuleViolationError when blocking violations are present.
func (r Result) Err() error {
	if !r.HasBlocking() {
		return nil
	}
	return RuleViolationError{Result: r}
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	var msgs []string
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			msgs = append(msgs, fmt.Sprintf("%s: %s", v.Rule, v.Message))
		}
	}
	return "recipe rejected: " + strings.Join(msgs, "; ")
}

// Unwrap exposes the typed errors of blocking violations so callers can use
// errors.Is and errors.As against NotFoundError and friends.
func (e RuleViolationError) Unwrap() []error {
	var errs []error
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock && v.Err != nil {
			errs = append(errs, v.Err)
		}
	}
	return errs
}

// Block builds a blocking violation from a typed error.
func Block(rule, subject string, err error) Violation {
	return Violation{Rule: rule, Severity: SeverityBlock, Message: err.Error(), Subject: subject, Err: err}
}

// Warn builds a warning violation.
func Warn(rule, subject, message string) Violation {
	return Violation{Rule: rule, Severity: SeverityWarn, Message: message, Subject: subject}
}

// IsRuleViolation reports whether err carries a RuleViolationError.
func IsRuleViolation(err error) bool {
	var rv RuleViolationError
	return errors.As(err, &rv)
}
