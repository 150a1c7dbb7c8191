package mocks

import (
	"context"

	"github.com/ersonp/provpack/internal/domain/entities"
)

// SummaryRenderer is a mock implementation of ports.SummaryRenderer.
type SummaryRenderer struct {
	Data []byte
	Err  error
	Ext  string
}

// RenderSummary returns the configured document or error.
func (m *SummaryRenderer) RenderSummary(_ context.Context, _ *entities.Case) ([]byte, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Data, nil
}

// Extension returns Ext, defaulting to "pdf".
func (m *SummaryRenderer) Extension() string {
	if m.Ext == "" {
		return "pdf"
	}
	return m.Ext
}
