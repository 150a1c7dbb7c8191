// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"

	"github.com/ersonp/provpack/internal/domain/entities"
)

// Extractor is a mock implementation of ports.Extractor.
type Extractor struct {
	Result *entities.Extraction
	Err    error

	LastPacketID string
	LastPages    []int
}

// Extract returns the configured extraction or error.
func (m *Extractor) Extract(_ context.Context, packetID string, pages []int) (*entities.Extraction, error) {
	m.LastPacketID = packetID
	m.LastPages = pages
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}
