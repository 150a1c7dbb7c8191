package entities

// RelationType defines the kind of relationship between persons.
type RelationType string

const (
	// RelationParentOf is directed: From is the parent of To.
	RelationParentOf RelationType = "parentOf"
	// RelationSpouseOf is stored as one directed edge but means the same in
	// both directions.
	RelationSpouseOf RelationType = "spouseOf"
)

// IsValid reports whether t is a known relationship type.
func (t RelationType) IsValid() bool {
	return t == RelationParentOf || t == RelationSpouseOf
}

// Symmetric reports whether the relationship reads the same in both directions.
func (t RelationType) Symmetric() bool {
	return t == RelationSpouseOf
}

// Relationship represents a connection between two persons of the same case.
type Relationship struct {
	Type RelationType `json:"type"`
	From string       `json:"from"`
	To   string       `json:"to"`
}

// Involves reports whether personID is an endpoint of the relationship.
func (r Relationship) Involves(personID string) bool {
	return r.From == personID || r.To == personID
}

// Other returns the endpoint opposite to personID, or "" if personID is not
// an endpoint.
func (r Relationship) Other(personID string) string {
	switch personID {
	case r.From:
		return r.To
	case r.To:
		return r.From
	}
	return ""
}
