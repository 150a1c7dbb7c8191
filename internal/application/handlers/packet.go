package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ersonp/provpack/internal/domain/entities"
	"github.com/ersonp/provpack/internal/domain/ports"
	"github.com/ersonp/provpack/internal/domain/services"
	"github.com/ersonp/provpack/internal/domain/validation"
)

// ErrEmptyReference is returned when a packet is located without a reference.
var ErrEmptyReference = errors.New("reference is required")

// PacketHandler locates packets, lists their pages and extracts candidate fields.
type PacketHandler struct {
	locator   services.PacketLocator
	pages     ports.PageSource
	extractor ports.Extractor
	validator *validation.Validator
}

// NewPacketHandler creates a new packet handler. pages and extractor may be
// nil for commands that only locate packets.
func NewPacketHandler(
	locator services.PacketLocator,
	pages ports.PageSource,
	extractor ports.Extractor,
	validator *validation.Validator,
) *PacketHandler {
	return &PacketHandler{
		locator:   locator,
		pages:     pages,
		extractor: extractor,
		validator: validator,
	}
}

// ExtractResult contains a validated extraction and the pages it was read from.
type ExtractResult struct {
	PacketID   string
	Pages      []int
	Extraction *entities.Extraction
}

// HandleLocate resolves a catalogue reference such as "2322/60".
func (h *PacketHandler) HandleLocate(reference string, year int) (services.Location, error) {
	if strings.TrimSpace(reference) == "" {
		return services.Location{}, ErrEmptyReference
	}
	if year < 0 {
		return services.Location{}, fmt.Errorf("year must not be negative, got %d", year)
	}
	return h.locator.Resolve(reference, year), nil
}

// HandleListPages returns the page numbers available for a packet.
func (h *PacketHandler) HandleListPages(ctx context.Context, packetID string) ([]int, error) {
	if h.pages == nil {
		return nil, errors.New("no page source configured")
	}
	pages, err := h.pages.ListPages(ctx, packetID)
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	return pages, nil
}

// HandlePage returns the image of one page.
func (h *PacketHandler) HandlePage(ctx context.Context, packetID string, page int) ([]byte, error) {
	if h.pages == nil {
		return nil, errors.New("no page source configured")
	}
	if page < 1 {
		return nil, fmt.Errorf("page must be positive, got %d", page)
	}
	return h.pages.PageBytes(ctx, packetID, page)
}

// HandleExtract runs the extractor over the given pages and validates the
// result. Without explicit pages, every available page is used, falling back
// to the locator's suggested pages when the packet has none on record.
func (h *PacketHandler) HandleExtract(ctx context.Context, packetID string, pages []int) (*ExtractResult, error) {
	if h.extractor == nil {
		return nil, errors.New("no extractor configured")
	}
	if strings.TrimSpace(packetID) == "" {
		return nil, &entities.MissingFieldError{Field: "packetId"}
	}

	if len(pages) == 0 {
		if h.pages != nil {
			available, err := h.pages.ListPages(ctx, packetID)
			if err != nil {
				return nil, fmt.Errorf("listing pages: %w", err)
			}
			pages = available
		}
		if len(pages) == 0 {
			pages = append([]int(nil), h.locator.SuggestedPages...)
		}
	}

	x, err := h.extractor.Extract(ctx, packetID, pages)
	if err != nil {
		return nil, fmt.Errorf("extracting fields: %w", err)
	}
	if err := h.validator.ValidateExtraction(x); err != nil {
		return nil, err
	}

	return &ExtractResult{
		PacketID:   packetID,
		Pages:      pages,
		Extraction: x,
	}, nil
}
