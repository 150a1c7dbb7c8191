// Package validation checks extractions and cases against their JSON Schemas.
package validation

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ersonp/provpack/internal/domain/entities"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const schemaBase = "https://provpack.local/schemas/"

// Schema identifiers, also written into archive manifests.
const (
	CaseSchemaVersion     = "NormalizedCase-v1.0"
	CitationSchemaVersion = "Citation-v1.0"
)

var schemaFiles = []string{
	"citation.schema.json",
	"extraction.schema.json",
	"case.schema.json",
}

// Validator validates extractions and cases. It is safe for concurrent use.
type Validator struct {
	extraction *jsonschema.Schema
	caseSchema *jsonschema.Schema
}

// New compiles the embedded schemas.
func New() (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	for _, name := range schemaFiles {
		data, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			return nil, fmt.Errorf("reading schema %s: %w", name, err)
		}
		if err := c.AddResource(schemaBase+name, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("loading schema %s: %w", name, err)
		}
	}

	extraction, err := c.Compile(schemaBase + "extraction.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compiling extraction schema: %w", err)
	}
	caseSchema, err := c.Compile(schemaBase + "case.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compiling case schema: %w", err)
	}

	return &Validator{extraction: extraction, caseSchema: caseSchema}, nil
}

// MustNew is like New but panics if the embedded schemas do not compile.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// DecodeExtraction validates raw JSON and decodes it. Unknown fields are
// violations. Every violation found is returned in one *ValidationError.
func (v *Validator) DecodeExtraction(raw []byte) (*entities.Extraction, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &entities.ValidationError{
			Subject:    "extraction",
			Violations: []entities.Violation{{Reason: "malformed JSON: " + err.Error()}},
		}
	}

	violations := schemaViolations(v.extraction, doc)

	var x entities.Extraction
	if err := json.Unmarshal(raw, &x); err == nil {
		violations = append(violations, citationViolations(&x)...)
	}

	if len(violations) > 0 {
		return nil, &entities.ValidationError{Subject: "extraction", Violations: sortViolations(violations)}
	}
	return &x, nil
}

// ValidateExtraction checks an extraction, typically one edited during review.
func (v *Validator) ValidateExtraction(x *entities.Extraction) error {
	if x == nil {
		return &entities.ValidationError{
			Subject:    "extraction",
			Violations: []entities.Violation{{Reason: "extraction is required"}},
		}
	}

	doc, err := toDocument(withEmptyExtractionSlices(*x))
	if err != nil {
		return fmt.Errorf("encoding extraction: %w", err)
	}

	violations := schemaViolations(v.extraction, doc)
	violations = append(violations, citationViolations(x)...)
	if len(violations) > 0 {
		return &entities.ValidationError{Subject: "extraction", Violations: sortViolations(violations)}
	}
	return nil
}

// ValidateCase checks a built case against the case schema. Referential
// closure is checked separately by Case.CheckReferences.
func (v *Validator) ValidateCase(c *entities.Case) error {
	if c == nil {
		return &entities.ValidationError{
			Subject:    "case",
			Violations: []entities.Violation{{Reason: "case is required"}},
		}
	}

	doc, err := toDocument(c.Canonical())
	if err != nil {
		return fmt.Errorf("encoding case: %w", err)
	}

	violations := schemaViolations(v.caseSchema, doc)
	for i, cit := range c.Citations {
		if cit.Field == "" {
			continue
		}
		if _, err := entities.ParseFieldRef(cit.Field); err != nil {
			violations = append(violations, entities.Violation{
				Path:   fmt.Sprintf("citations[%d].field", i),
				Reason: "unrecognized field path " + strconv.Quote(cit.Field),
			})
		}
	}

	if len(violations) > 0 {
		return &entities.ValidationError{Subject: "case", Violations: sortViolations(violations)}
	}
	return nil
}

// citationViolations checks citation field paths against the extraction they
// belong to: the path must parse and must point at something extracted.
func citationViolations(x *entities.Extraction) []entities.Violation {
	var out []entities.Violation
	for i, cit := range x.Citations {
		if cit.Field == "" {
			continue
		}
		path := fmt.Sprintf("citations[%d].field", i)
		ref, err := entities.ParseFieldRef(cit.Field)
		if err != nil {
			out = append(out, entities.Violation{
				Path:   path,
				Reason: "unrecognized field path " + strconv.Quote(cit.Field),
			})
			continue
		}
		switch {
		case ref.Scope == entities.ScopeChild && ref.Index >= len(x.Children):
			out = append(out, entities.Violation{
				Path:   path,
				Reason: fmt.Sprintf("refers to children[%d] but %d children were extracted", ref.Index, len(x.Children)),
			})
		case ref.Scope == entities.ScopeParents && x.Parents == nil:
			out = append(out, entities.Violation{
				Path:   path,
				Reason: "refers to parents but none were extracted",
			})
		}
	}
	return out
}

func schemaViolations(s *jsonschema.Schema, doc any) []entities.Violation {
	err := s.Validate(doc)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []entities.Violation{{Reason: err.Error()}}
	}

	var out []entities.Violation
	collectLeaves(ve, &out)
	return out
}

// collectLeaves flattens the error tree. Inner nodes only summarize their
// causes, so the leaves carry the actual violations.
func collectLeaves(ve *jsonschema.ValidationError, out *[]entities.Violation) {
	if len(ve.Causes) == 0 {
		*out = append(*out, entities.Violation{
			Path:   displayPath(ve.InstanceLocation),
			Reason: ve.Message,
		})
		return
	}
	for _, cause := range ve.Causes {
		collectLeaves(cause, out)
	}
}

// displayPath renders a JSON pointer such as "/children/2/name" as
// "children[2].name".
func displayPath(pointer string) string {
	pointer = strings.TrimPrefix(pointer, "#")
	pointer = strings.TrimPrefix(pointer, "/")
	if pointer == "" {
		return ""
	}

	var b strings.Builder
	for _, seg := range strings.Split(pointer, "/") {
		seg = strings.ReplaceAll(seg, "~1", "/")
		seg = strings.ReplaceAll(seg, "~0", "~")
		if _, err := strconv.Atoi(seg); err == nil {
			b.WriteString("[" + seg + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}

func sortViolations(vs []entities.Violation) []entities.Violation {
	seen := make(map[entities.Violation]bool, len(vs))
	out := vs[:0]
	for _, v := range vs {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Reason < out[j].Reason
	})
	return out
}

func toDocument(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func withEmptyExtractionSlices(x entities.Extraction) entities.Extraction {
	if x.Children == nil {
		x.Children = []entities.Child{}
	}
	if x.Citations == nil {
		x.Citations = []entities.Citation{}
	}
	return x
}
