package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/provpack/internal/domain/entities"
	"github.com/ersonp/provpack/internal/domain/ports"
)

// CaseHandler reads stored cases.
type CaseHandler struct {
	store ports.CaseStore
}

// NewCaseHandler creates a new case handler.
func NewCaseHandler(store ports.CaseStore) *CaseHandler {
	return &CaseHandler{store: store}
}

// CaseDetail is a case with its audit history.
type CaseDetail struct {
	Case  *entities.Case
	Audit []entities.AuditEntry
}

// HandleList lists stored cases, most recent first.
func (h *CaseHandler) HandleList(ctx context.Context, limit, offset int) ([]entities.CaseSummary, error) {
	if offset < 0 {
		return nil, fmt.Errorf("offset must not be negative, got %d", offset)
	}
	cases, err := h.store.ListCases(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing cases: %w", err)
	}
	return cases, nil
}

// HandleActivity lists the most recent audit entries of one action.
func (h *CaseHandler) HandleActivity(ctx context.Context, action string, limit int) ([]entities.AuditEntry, error) {
	if !entities.IsAuditAction(action) {
		return nil, fmt.Errorf("%w: unknown audit action %q", entities.ErrInvalidInput, action)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", entities.ErrInvalidInput, limit)
	}
	entries, err := h.store.FindAuditLogByAction(ctx, action, limit)
	if err != nil {
		return nil, fmt.Errorf("loading audit log: %w", err)
	}
	return entries, nil
}

// HandleShow loads one case and its audit history.
func (h *CaseHandler) HandleShow(ctx context.Context, caseID string) (*CaseDetail, error) {
	c, err := h.store.FindCase(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("loading case: %w", err)
	}
	audit, err := h.store.FindAuditLog(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("loading audit log: %w", err)
	}
	return &CaseDetail{Case: c, Audit: audit}, nil
}
