package mocks

import (
	"context"
	"sort"
	"time"

	"github.com/ersonp/provpack/internal/domain/entities"
)

// CaseStore is a mock implementation of ports.CaseStore.
type CaseStore struct {
	Cases map[string]*entities.Case
	Audit []entities.AuditEntry
	Err   error

	// CreateErr fails CreateCase without touching Cases.
	CreateErr error

	// Call tracking
	CreateCallCount int
}

// NewCaseStore creates a new mock CaseStore.
func NewCaseStore() *CaseStore {
	return &CaseStore{
		Cases: make(map[string]*entities.Case),
	}
}

// EnsureSchema creates the database schema if it doesn't exist.
func (m *CaseStore) EnsureSchema(_ context.Context) error {
	return m.Err
}

// Close closes the database connection.
func (m *CaseStore) Close() error {
	return nil
}

// CreateCase stores the case.
func (m *CaseStore) CreateCase(_ context.Context, c *entities.Case) error {
	m.CreateCallCount++
	if m.CreateErr != nil {
		return &entities.PersistenceError{Op: "creating", CaseID: c.CaseID, Err: m.CreateErr}
	}
	if m.Err != nil {
		return m.Err
	}
	stored := *c
	m.Cases[c.CaseID] = &stored
	return nil
}

// FindCase loads a case by id.
func (m *CaseStore) FindCase(_ context.Context, caseID string) (*entities.Case, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	c, ok := m.Cases[caseID]
	if !ok {
		return nil, entities.ErrCaseNotFound
	}
	found := *c
	return &found, nil
}

// ListCases lists stored cases ordered by id for deterministic test results.
func (m *CaseStore) ListCases(_ context.Context, limit, offset int) ([]entities.CaseSummary, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	result := make([]entities.CaseSummary, 0, len(m.Cases))
	for _, c := range m.Cases {
		result = append(result, c.Summary())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CaseID < result[j].CaseID
	})
	if offset >= len(result) {
		return []entities.CaseSummary{}, nil
	}
	result = result[offset:]
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

// LogAction records an audit entry.
func (m *CaseStore) LogAction(_ context.Context, action string, caseID string, details map[string]any) error {
	if m.Err != nil {
		return m.Err
	}
	m.Audit = append(m.Audit, entities.AuditEntry{
		ID:        int64(len(m.Audit) + 1),
		Action:    action,
		CaseID:    caseID,
		Details:   details,
		CreatedAt: time.Now(),
	})
	return nil
}

// FindAuditLog returns the audit entries recorded for a case.
func (m *CaseStore) FindAuditLog(_ context.Context, caseID string) ([]entities.AuditEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var result []entities.AuditEntry
	for _, e := range m.Audit {
		if e.CaseID == caseID {
			result = append(result, e)
		}
	}
	return result, nil
}

// FindAuditLogByAction returns entries of one action, most recent first.
func (m *CaseStore) FindAuditLogByAction(_ context.Context, action string, limit int) ([]entities.AuditEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var result []entities.AuditEntry
	for i := len(m.Audit) - 1; i >= 0; i-- {
		if m.Audit[i].Action != action {
			continue
		}
		result = append(result, m.Audit[i])
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}
