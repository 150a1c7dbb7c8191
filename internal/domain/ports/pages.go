package ports

import (
	"context"
	"errors"
)

// ErrPageNotFound is returned by a PageSource when a page has no image.
var ErrPageNotFound = errors.New("page not found")

// PageSource retrieves scanned page images.
type PageSource interface {
	// PageBytes returns the raw image bytes of one page of a packet.
	PageBytes(ctx context.Context, packetID string, page int) ([]byte, error)

	// ListPages returns the page numbers available for a packet, ascending.
	ListPages(ctx context.Context, packetID string) ([]int, error)
}
