package parsers

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// JSONParser parses reference lists from a JSON array of
// {"mhg": "...", "year": 1960} objects.
type JSONParser struct{}

// Parse reads JSON from the reader.
func (p *JSONParser) Parse(r io.Reader) ([]RawReference, error) {
	var refs []RawReference

	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&refs); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	// Set line numbers (array index + 1, 1-indexed)
	for i := range refs {
		refs[i].LineNum = i + 1
		refs[i].Reference = strings.TrimSpace(refs[i].Reference)
		if refs[i].Reference == "" {
			return nil, fmt.Errorf("entry %d: mhg is required", i+1)
		}
		if refs[i].Year < 0 {
			return nil, fmt.Errorf("entry %d: invalid year %d", i+1, refs[i].Year)
		}
	}

	return refs, nil
}
