// Package ports defines interfaces for external service communication.
package ports

import (
	"context"

	"github.com/ersonp/provpack/internal/domain/entities"
)

// CaseStore defines the persistence operations for approved cases.
// CreateCase applies the full case graph atomically: on any error nothing of
// the case is visible to readers.
type CaseStore interface {
	// EnsureSchema creates the database schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	// CreateCase stores a case with all persons, events, participants,
	// relationships, sources and citations in one transaction.
	CreateCase(ctx context.Context, c *entities.Case) error

	// FindCase loads a case by id. Returns entities.ErrCaseNotFound if absent.
	FindCase(ctx context.Context, caseID string) (*entities.Case, error)

	// ListCases lists stored cases, most recent first.
	ListCases(ctx context.Context, limit, offset int) ([]entities.CaseSummary, error)

	// LogAction logs an action to the audit log.
	LogAction(ctx context.Context, action string, caseID string, details map[string]any) error

	// FindAuditLog finds audit log entries for a specific case.
	FindAuditLog(ctx context.Context, caseID string) ([]entities.AuditEntry, error)

	// FindAuditLogByAction finds the most recent audit log entries of one
	// action across all cases.
	FindAuditLogByAction(ctx context.Context, action string, limit int) ([]entities.AuditEntry, error)
}
