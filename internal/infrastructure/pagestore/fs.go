package pagestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ersonp/provpack/internal/domain/ports"
)

// FSStore reads page images from a directory tree.
type FSStore struct {
	root string
}

// NewFSStore creates a store rooted at dir.
func NewFSStore(dir string) (*FSStore, error) {
	if dir == "" {
		return nil, errors.New("pages directory is required")
	}
	return &FSStore{root: dir}, nil
}

// Root returns the store's root directory.
func (s *FSStore) Root() string {
	return s.root
}

// PageBytes returns the image of one page.
func (s *FSStore) PageBytes(ctx context.Context, packetID string, page int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.root, packetDir(packetID))
	for _, ext := range imageExts {
		data, err := os.ReadFile(filepath.Join(dir, pageBase(page)+"."+ext))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading page %d of %s: %w", page, packetID, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("packet %s page %d: %w", packetID, page, ports.ErrPageNotFound)
}

// ListPages returns the page numbers present for a packet.
func (s *FSStore) ListPages(ctx context.Context, packetID string) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(s.root, packetDir(packetID)))
	if errors.Is(err, os.ErrNotExist) {
		return []int{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing pages of %s: %w", packetID, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return collectPages(names), nil
}

// PutPage stores an image for a page, replacing any earlier one.
func (s *FSStore) PutPage(packetID string, page int, ext string, data []byte) error {
	if page < 1 {
		return fmt.Errorf("page must be positive, got %d", page)
	}
	if !isImageExt(ext) {
		return fmt.Errorf("unsupported page image extension %q", ext)
	}
	dir := filepath.Join(s.root, packetDir(packetID))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating packet directory: %w", err)
	}
	for _, e := range imageExts {
		_ = os.Remove(filepath.Join(dir, pageBase(page)+"."+e))
	}
	if err := os.WriteFile(filepath.Join(dir, pageBase(page)+"."+ext), data, 0644); err != nil {
		return fmt.Errorf("writing page %d of %s: %w", page, packetID, err)
	}
	return nil
}
