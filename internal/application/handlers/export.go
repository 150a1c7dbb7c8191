package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/provpack/internal/domain/entities"
	"github.com/ersonp/provpack/internal/domain/ports"
	"github.com/ersonp/provpack/internal/domain/provpack"
	"github.com/ersonp/provpack/internal/infrastructure/logger"
)

// ExportHandler builds provenance archives for stored cases.
type ExportHandler struct {
	store     ports.CaseStore
	assembler *provpack.Assembler
	log       *logger.Logger
}

// NewExportHandler creates a new export handler.
func NewExportHandler(store ports.CaseStore, assembler *provpack.Assembler, log *logger.Logger) *ExportHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &ExportHandler{
		store:     store,
		assembler: assembler,
		log:       log,
	}
}

// HandleExport loads the case and assembles its archive. pages adds page
// images beyond the cited ones.
func (h *ExportHandler) HandleExport(ctx context.Context, caseID string, pages []int) (*provpack.Archive, error) {
	c, err := h.store.FindCase(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("loading case: %w", err)
	}

	archive, err := h.assembler.Assemble(ctx, c, pages)
	if err != nil {
		return nil, fmt.Errorf("building archive: %w", err)
	}

	for _, d := range archive.Manifest.Degraded {
		h.log.Warn("archive entry degraded", "case_id", caseID, "path", d.Path, "reason", d.Reason)
	}

	details := map[string]any{
		"filename": archive.Filename,
		"files":    len(archive.Manifest.Files),
		"degraded": len(archive.Manifest.Degraded),
	}
	if err := h.store.LogAction(ctx, entities.ActionCaseExported, caseID, details); err != nil {
		h.log.Warn("audit log write failed", "case_id", caseID, "error", err)
	}
	h.log.Info("case exported", "case_id", caseID, "filename", archive.Filename, "bytes", len(archive.Data))

	return archive, nil
}
