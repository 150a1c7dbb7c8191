package ports

import (
	"context"

	"github.com/ersonp/provpack/internal/domain/entities"
)

// Extractor produces candidate fields for the given pages of a packet.
// Results are unvalidated; callers pass them through the schema validator.
type Extractor interface {
	Extract(ctx context.Context, packetID string, pages []int) (*entities.Extraction, error)
}
