package entities

import "time"

// Audit actions recorded by the application handlers.
const (
	ActionCaseApproved = "case.approved"
	ActionCaseExported = "case.exported"
)

// IsAuditAction reports whether action is one the handlers record.
func IsAuditAction(action string) bool {
	return action == ActionCaseApproved || action == ActionCaseExported
}

// AuditEntry represents a logged action in the system.
type AuditEntry struct {
	ID        int64          `json:"id"`
	Action    string         `json:"action"`
	CaseID    string         `json:"case_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
