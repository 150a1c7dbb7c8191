// Package mock provides an offline Extractor that returns a recorded J294
// extraction, for demos and for running without an API key.
package mock

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/ersonp/provpack/internal/domain/entities"
)

//go:embed meyer.json
var meyerFixture []byte

// Extractor returns the same recorded extraction for every packet.
type Extractor struct {
	fixture []byte
}

// New returns an extractor serving the built-in Meyer estate sample.
func New() *Extractor {
	return &Extractor{fixture: meyerFixture}
}

// NewWithFixture returns an extractor serving the given extraction JSON.
func NewWithFixture(fixture []byte) *Extractor {
	return &Extractor{fixture: fixture}
}

// Extract decodes a fresh copy of the fixture. Pages are ignored.
func (e *Extractor) Extract(ctx context.Context, packetID string, _ []int) (*entities.Extraction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var x entities.Extraction
	if err := json.Unmarshal(e.fixture, &x); err != nil {
		return nil, fmt.Errorf("decoding fixture for %s: %w", packetID, err)
	}
	return &x, nil
}
