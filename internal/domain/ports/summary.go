package ports

import (
	"context"

	"github.com/ersonp/provpack/internal/domain/entities"
)

// SummaryRenderer produces the human-readable summary document of a case.
type SummaryRenderer interface {
	RenderSummary(ctx context.Context, c *entities.Case) ([]byte, error)

	// Extension is the file extension of rendered documents, without the dot.
	Extension() string
}
