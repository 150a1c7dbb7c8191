package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/ersonp/provpack/internal/domain/ports"
)

// PageSource is a mock implementation of ports.PageSource. It is safe for
// concurrent use because archive assembly fetches pages in parallel.
type PageSource struct {
	mu sync.Mutex

	// Pages maps page number to image bytes; missing pages return ports.ErrPageNotFound.
	Pages map[int][]byte
	// Errs forces an error for specific pages.
	Errs map[int]error

	Calls []int
}

// NewPageSource creates a mock serving the given pages.
func NewPageSource(pages map[int][]byte) *PageSource {
	return &PageSource{Pages: pages, Errs: make(map[int]error)}
}

// PageBytes returns the configured bytes for page.
func (m *PageSource) PageBytes(_ context.Context, _ string, page int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, page)
	if err, ok := m.Errs[page]; ok {
		return nil, err
	}
	data, ok := m.Pages[page]
	if !ok {
		return nil, ports.ErrPageNotFound
	}
	return data, nil
}

// ListPages returns the configured page numbers.
func (m *PageSource) ListPages(_ context.Context, _ string) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pages := make([]int, 0, len(m.Pages))
	for p := range m.Pages {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages, nil
}

// CallCount returns how many page reads were made.
func (m *PageSource) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
