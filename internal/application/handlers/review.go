package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/provpack/internal/domain/entities"
	"github.com/ersonp/provpack/internal/domain/ports"
	"github.com/ersonp/provpack/internal/domain/services"
	"github.com/ersonp/provpack/internal/domain/validation"
	"github.com/ersonp/provpack/internal/infrastructure/logger"
)

// ReviewHandler turns reviewed extractions into stored cases.
type ReviewHandler struct {
	builder   *services.CaseBuilder
	validator *validation.Validator
	store     ports.CaseStore
	log       *logger.Logger
}

// NewReviewHandler creates a new review handler.
func NewReviewHandler(builder *services.CaseBuilder, validator *validation.Validator, store ports.CaseStore, log *logger.Logger) *ReviewHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &ReviewHandler{
		builder:   builder,
		validator: validator,
		store:     store,
		log:       log,
	}
}

// ApproveResult contains the stored case.
type ApproveResult struct {
	CaseID string
	Case   *entities.Case
}

// HandleApprove validates the extraction, builds the case, validates it and
// stores it in one transaction. Nothing is stored unless every step passes.
func (h *ReviewHandler) HandleApprove(ctx context.Context, packetID string, x *entities.Extraction) (*ApproveResult, error) {
	if err := h.validator.ValidateExtraction(x); err != nil {
		return nil, err
	}

	c, err := h.builder.Build(packetID, x)
	if err != nil {
		return nil, fmt.Errorf("building case: %w", err)
	}
	if err := h.validator.ValidateCase(c); err != nil {
		return nil, err
	}
	if err := c.CheckReferences(); err != nil {
		return nil, err
	}

	if err := h.store.CreateCase(ctx, c); err != nil {
		h.log.Error("case approval failed", "packet_id", packetID, "case_id", c.CaseID, "error", err)
		return nil, fmt.Errorf("storing case: %w", err)
	}

	details := map[string]any{
		"packet_id": packetID,
		"persons":   len(c.Persons),
		"citations": len(c.Citations),
	}
	if err := h.store.LogAction(ctx, entities.ActionCaseApproved, c.CaseID, details); err != nil {
		h.log.Warn("audit log write failed", "case_id", c.CaseID, "error", err)
	}
	h.log.Info("case approved", "case_id", c.CaseID, "packet_id", packetID, "persons", len(c.Persons))

	return &ApproveResult{CaseID: c.CaseID, Case: c}, nil
}
