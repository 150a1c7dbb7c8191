// Package provpack assembles a case into a self-verifying zip archive.
//
// An archive holds case.json (canonical JSON), one image per page, a summary
// document and manifest.json, which lists a SHA-256 digest for every other
// entry. Missing page images or a failed summary are replaced by placeholder
// entries and recorded in the manifest; only an invalid case is fatal.
package provpack

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"time"

	"github.com/ersonp/provpack/internal/domain/entities"
	"github.com/ersonp/provpack/internal/domain/validation"
)

// PageBlob is the fetched image of one page. A nil Data or a non-nil Err
// yields a placeholder entry.
type PageBlob struct {
	Data []byte
	Err  error
}

// SummaryBlob is the rendered summary document. Ext is the file extension
// without the dot.
type SummaryBlob struct {
	Data []byte
	Ext  string
	Err  error
}

// CaseValidator validates a case before it is archived.
type CaseValidator interface {
	ValidateCase(c *entities.Case) error
}

// Options configures Build.
type Options struct {
	// Now returns the archive creation time. Defaults to time.Now.
	Now func() time.Time
	// Validator, when set, is run on the case before anything is written.
	Validator CaseValidator
}

// Archive is a built archive.
type Archive struct {
	Data     []byte
	Manifest Manifest
	Filename string
}

type entry struct {
	path string
	data []byte
}

var reUnsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Filename returns the download name of the archive for a packet.
func Filename(packetID string) string {
	return "provpack_" + reUnsafeFilename.ReplaceAllString(packetID, "_") + ".zip"
}

// Build writes the archive for c. pages maps page numbers to fetched images;
// every page cited by the case is included even when absent from pages.
func Build(c *entities.Case, pages map[int]PageBlob, summary SummaryBlob, opts Options) (*Archive, error) {
	if c == nil {
		return nil, errors.New("case is required")
	}
	if opts.Validator != nil {
		if err := opts.Validator.ValidateCase(c); err != nil {
			return nil, fmt.Errorf("validating case %s: %w", c.CaseID, err)
		}
	}
	if err := c.CheckReferences(); err != nil {
		return nil, fmt.Errorf("checking case %s: %w", c.CaseID, err)
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	createdAt := now().UTC().Truncate(time.Second)

	manifest := Manifest{
		Version:   ManifestVersion,
		CaseID:    c.CaseID,
		PacketID:  c.PacketID,
		CreatedAt: createdAt.Format(time.RFC3339),
		Files:     make(map[string]string),
		Degraded:  []DegradedEntry{},
		Schema: SchemaInfo{
			Case:      validation.CaseSchemaVersion,
			Citations: validation.CitationSchemaVersion,
		},
	}

	canonical := c.Canonical()
	caseJSON, err := canonicalJSON(&canonical)
	if err != nil {
		return nil, fmt.Errorf("encoding case: %w", err)
	}

	entries := []entry{{path: CasePath, data: caseJSON}}
	manifest.Files[CasePath] = HashBytes(caseJSON)

	for _, page := range pageSet(c, pages) {
		blob := pages[page]
		if blob.Err == nil && len(blob.Data) > 0 {
			path := pagePath(page, imageExt(blob.Data))
			entries = append(entries, entry{path: path, data: blob.Data})
			manifest.Files[path] = HashBytes(blob.Data)
			continue
		}

		reason := unavailableReason(blob.Err, "no image for page")
		path := pagePath(page, "txt")
		entries = append(entries, entry{
			path: path,
			data: placeholderBody(fmt.Sprintf("Page %d", page), reason),
		})
		manifest.Files[path] = PlaceholderMarker
		manifest.Degraded = append(manifest.Degraded, DegradedEntry{Path: path, Reason: reason})
	}

	if summary.Err == nil && len(summary.Data) > 0 {
		ext := summary.Ext
		if ext == "" {
			ext = "pdf"
		}
		path := "summary." + ext
		entries = append(entries, entry{path: path, data: summary.Data})
		manifest.Files[path] = HashBytes(summary.Data)
	} else {
		reason := unavailableReason(summary.Err, "summary not rendered")
		path := "summary.txt"
		entries = append(entries, entry{
			path: path,
			data: placeholderBody("The summary document", reason),
		})
		manifest.Files[path] = PlaceholderMarker
		manifest.Degraded = append(manifest.Degraded, DegradedEntry{Path: path, Reason: reason})
	}

	manifestJSON, err := canonicalJSON(&manifest)
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	entries = append(entries, entry{path: ManifestPath, data: manifestJSON})

	data, err := writeZip(entries, createdAt)
	if err != nil {
		return nil, fmt.Errorf("writing archive: %w", err)
	}

	return &Archive{
		Data:     data,
		Manifest: manifest,
		Filename: Filename(c.PacketID),
	}, nil
}

func pageSet(c *entities.Case, pages map[int]PageBlob) []int {
	seen := make(map[int]bool)
	var out []int
	add := func(p int) {
		if p < 1 || seen[p] {
			return
		}
		seen[p] = true
		out = append(out, p)
	}
	for p := range pages {
		add(p)
	}
	for _, p := range c.CitedPages() {
		add(p)
	}
	sort.Ints(out)
	return out
}

func unavailableReason(err error, fallback string) string {
	if err == nil {
		err = errors.New(fallback)
	}
	if !errors.Is(err, entities.ErrArtifactUnavailable) {
		err = fmt.Errorf("%w: %w", entities.ErrArtifactUnavailable, err)
	}
	return err.Error()
}

// imageExt sniffs the extension of a page image.
func imageExt(data []byte) string {
	switch ct := http.DetectContentType(data); {
	case ct == "image/jpeg":
		return "jpg"
	case ct == "image/png":
		return "png"
	case ct == "image/gif":
		return "gif"
	case ct == "image/webp":
		return "webp"
	case ct == "application/pdf":
		return "pdf"
	default:
		return "bin"
	}
}

func writeZip(entries []entry, modified time.Time) ([]byte, error) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].path < entries[j].path })

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.path,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, fmt.Errorf("creating %s: %w", e.path, err)
		}
		if _, err := w.Write(e.data); err != nil {
			return nil, fmt.Errorf("writing %s: %w", e.path, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing zip: %w", err)
	}
	return buf.Bytes(), nil
}
