package provpack

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ersonp/provpack/internal/domain/entities"
	"github.com/ersonp/provpack/internal/domain/ports"
)

const defaultFetchConcurrency = 4

// Assembler gathers a case's page images and summary document and builds
// the archive. Reads run concurrently; a failed read degrades its entry.
type Assembler struct {
	pages       ports.PageSource
	summary     ports.SummaryRenderer
	opts        Options
	concurrency int
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithBuildOptions sets the options passed to Build.
func WithBuildOptions(opts Options) AssemblerOption {
	return func(a *Assembler) {
		a.opts = opts
	}
}

// WithConcurrency bounds the number of simultaneous artifact reads.
func WithConcurrency(n int) AssemblerOption {
	return func(a *Assembler) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// NewAssembler creates a new assembler. Either port may be nil, in which case
// the corresponding entries are placeholders.
func NewAssembler(pages ports.PageSource, summary ports.SummaryRenderer, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		pages:       pages,
		summary:     summary,
		concurrency: defaultFetchConcurrency,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble fetches the given pages plus every cited page, renders the
// summary and builds the archive once all reads have finished.
func (a *Assembler) Assemble(ctx context.Context, c *entities.Case, pages []int) (*Archive, error) {
	if c == nil {
		return nil, errors.New("case is required")
	}

	wanted := pageSet(c, nil)
	seen := make(map[int]bool, len(wanted))
	for _, p := range wanted {
		seen[p] = true
	}
	for _, p := range pages {
		if p > 0 && !seen[p] {
			seen[p] = true
			wanted = append(wanted, p)
		}
	}
	sort.Ints(wanted)

	blobs := make([]PageBlob, len(wanted))
	var summary SummaryBlob

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, page := range wanted {
		g.Go(func() error {
			blobs[i] = a.fetchPage(gctx, c.PacketID, page)
			return nil
		})
	}
	g.Go(func() error {
		summary = a.renderSummary(gctx, c)
		return nil
	})

	// Reads never fail the group; a cancelled context is the only abort.
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("assembling case %s: %w", c.CaseID, err)
	}

	byPage := make(map[int]PageBlob, len(wanted))
	for i, page := range wanted {
		byPage[page] = blobs[i]
	}
	return Build(c, byPage, summary, a.opts)
}

func (a *Assembler) fetchPage(ctx context.Context, packetID string, page int) PageBlob {
	if a.pages == nil {
		return PageBlob{Err: fmt.Errorf("%w: no page source configured", entities.ErrArtifactUnavailable)}
	}
	data, err := a.pages.PageBytes(ctx, packetID, page)
	if err != nil {
		return PageBlob{Err: fmt.Errorf("%w: page %d: %w", entities.ErrArtifactUnavailable, page, err)}
	}
	return PageBlob{Data: data}
}

func (a *Assembler) renderSummary(ctx context.Context, c *entities.Case) SummaryBlob {
	if a.summary == nil {
		return SummaryBlob{Err: fmt.Errorf("%w: no summary renderer configured", entities.ErrArtifactUnavailable)}
	}
	data, err := a.summary.RenderSummary(ctx, c)
	if err != nil {
		return SummaryBlob{Err: fmt.Errorf("%w: summary: %w", entities.ErrArtifactUnavailable, err)}
	}
	return SummaryBlob{Data: data, Ext: a.summary.Extension()}
}
