package provpack

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/gowebpki/jcs"
)

// Archive layout and manifest constants.
const (
	ManifestVersion   = "1.0"
	ManifestPath      = "manifest.json"
	CasePath          = "case.json"
	PlaceholderMarker = "placeholder"
	ContentType       = "application/zip"

	hashPrefix = "sha256:"
)

// SchemaInfo names the schemas the archived case conforms to.
type SchemaInfo struct {
	Case      string `json:"case"`
	Citations string `json:"citations"`
}

// DegradedEntry records an artifact that was replaced by a placeholder.
type DegradedEntry struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Manifest describes every entry of an archive. Files maps an entry path to
// "sha256:<hex>" of its bytes, or to PlaceholderMarker for a stand-in entry.
// The manifest itself is not listed.
type Manifest struct {
	Version   string            `json:"version"`
	CaseID    string            `json:"caseId"`
	PacketID  string            `json:"packetId"`
	CreatedAt string            `json:"createdAt"`
	Files     map[string]string `json:"files"`
	Degraded  []DegradedEntry   `json:"degraded"`
	Schema    SchemaInfo        `json:"schema"`
}

// Paths returns the listed entry paths in sorted order.
func (m *Manifest) Paths() []string {
	paths := make([]string, 0, len(m.Files))
	for p := range m.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// IsPlaceholder reports whether the entry at path is a stand-in.
func (m *Manifest) IsPlaceholder(path string) bool {
	return m.Files[path] == PlaceholderMarker
}

// HashBytes returns the manifest form of a SHA-256 digest.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hashPrefix + hex.EncodeToString(sum[:])
}

// canonicalJSON marshals v and rewrites it in RFC 8785 canonical form.
func canonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling: %w", err)
	}
	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalizing: %w", err)
	}
	return out, nil
}

func pagePath(page int, ext string) string {
	return fmt.Sprintf("pages/%04d.%s", page, ext)
}

func placeholderBody(what string, reason string) []byte {
	var b strings.Builder
	b.WriteString("PLACEHOLDER\n")
	b.WriteString(what)
	b.WriteString(" could not be included in this archive.\n")
	if reason != "" {
		b.WriteString("reason: ")
		b.WriteString(reason)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}
