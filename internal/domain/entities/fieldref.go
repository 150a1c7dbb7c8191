package entities

import (
	"fmt"
	"regexp"
	"strconv"
)

// FieldScope names the block of the extraction form a citation points into.
type FieldScope string

const (
	ScopeDeceased FieldScope = "deceased"
	ScopeParents  FieldScope = "parents"
	ScopeChild    FieldScope = "children"
)

var reFieldPath = regexp.MustCompile(`^(deceased|parents)\.([A-Za-z]+)$|^children\[(\d+)\]\.([A-Za-z]+)$`)

// FieldRef is the parsed form of a citation field path such as
// "deceased.fullName" or "children[2].name". Index is only meaningful for
// ScopeChild.
type FieldRef struct {
	Scope FieldScope
	Index int
	Name  string
}

// ParseFieldRef parses a citation field path.
func ParseFieldRef(path string) (FieldRef, error) {
	m := reFieldPath.FindStringSubmatch(path)
	if m == nil {
		return FieldRef{}, fmt.Errorf("unrecognized field path %q", path)
	}
	if m[1] != "" {
		return FieldRef{Scope: FieldScope(m[1]), Name: m[2]}, nil
	}
	idx, err := strconv.Atoi(m[3])
	if err != nil {
		return FieldRef{}, fmt.Errorf("field path %q: %w", path, err)
	}
	return FieldRef{Scope: ScopeChild, Index: idx, Name: m[4]}, nil
}

func (r FieldRef) String() string {
	if r.Scope == ScopeChild {
		return fmt.Sprintf("children[%d].%s", r.Index, r.Name)
	}
	return string(r.Scope) + "." + r.Name
}
