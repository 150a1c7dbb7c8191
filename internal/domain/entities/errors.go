package entities

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingRequiredField is matched by *MissingFieldError.
	ErrMissingRequiredField = errors.New("missing required field")
	// ErrReferentialViolation is matched by *ReferentialError.
	ErrReferentialViolation = errors.New("referential violation")
	// ErrPersistence is matched by *PersistenceError.
	ErrPersistence = errors.New("persistence failure")
	// ErrArtifactUnavailable marks a page image or summary document that
	// could not be obtained. Archives degrade the entry instead of failing.
	ErrArtifactUnavailable = errors.New("artifact unavailable")
	// ErrCaseNotFound is returned when no case has the requested id.
	ErrCaseNotFound = errors.New("case not found")
	// ErrInvalidInput is matched by *ValidationError.
	ErrInvalidInput = errors.New("validation failed")
)

// Violation is one field-level problem found while validating input.
type Violation struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

func (v Violation) String() string {
	if v.Path == "" {
		return v.Reason
	}
	return v.Path + ": " + v.Reason
}

// ValidationError carries every violation found in one validation pass.
type ValidationError struct {
	Subject    string      `json:"subject"`
	Violations []Violation `json:"violations"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Subject, joinViolations(e.Violations))
}

// Is lets errors.Is match ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// MissingFieldError reports a mandatory field the case builder could not populate.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// Is lets errors.Is match ErrMissingRequiredField.
func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingRequiredField
}

// ReferentialError reports identifiers that do not resolve inside a case.
type ReferentialError struct {
	CaseID     string
	Violations []Violation
}

func (e *ReferentialError) Error() string {
	return fmt.Sprintf("case %s references unknown entities: %s", e.CaseID, joinViolations(e.Violations))
}

// Is lets errors.Is match ErrReferentialViolation.
func (e *ReferentialError) Is(target error) bool {
	return target == ErrReferentialViolation
}

// PersistenceError reports a store failure. The store rolls back the whole
// case before returning it.
type PersistenceError struct {
	Op     string
	CaseID string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s case %s: %v", e.Op, e.CaseID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match ErrPersistence.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

func joinViolations(vs []Violation) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, "; ")
}
