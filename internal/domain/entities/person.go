package entities

// Gender is the closed set of gender codes stored on a Person.
type Gender string

const (
	GenderMale    Gender = "M"
	GenderFemale  Gender = "F"
	GenderUnknown Gender = "U"
)

// IsValid reports whether g is one of the known gender codes.
func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderUnknown:
		return true
	}
	return false
}

// PersonName is the canonical form of a raw name string.
type PersonName struct {
	Primary  string `json:"primary"`
	Particle string `json:"particle,omitempty"`
	Display  string `json:"display"`
	SortKey  string `json:"sortKey"`
}

// Vital holds the date and place of a birth or death.
// Date is ISO (YYYY-MM-DD) when the raw value could be normalized and the
// original text otherwise.
type Vital struct {
	Date  string `json:"date,omitempty"`
	Place string `json:"place,omitempty"`
}

// Person is an individual named in an estate file. A Person is owned by
// exactly one Case.
type Person struct {
	ID          string `json:"id"`
	PrimaryName string `json:"primaryName"`
	SortKey     string `json:"sortKey,omitempty"`
	Gender      Gender `json:"gender"`
	Birth       *Vital `json:"birth,omitempty"`
	Death       *Vital `json:"death,omitempty"`
}
