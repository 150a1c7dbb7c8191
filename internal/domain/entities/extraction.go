package entities

// FormTypeJ294 identifies the death-notice form the extraction schema covers.
const FormTypeJ294 = "J294"

// MaritalStatus is the closed set of marital states on a J294 form.
type MaritalStatus string

const (
	MaritalMarried   MaritalStatus = "getroud"
	MaritalUnmarried MaritalStatus = "ongetroud"
	MaritalWidow     MaritalStatus = "weduwee"
	MaritalWidower   MaritalStatus = "weduenaar"
)

// IsValid reports whether s is a known marital status.
func (s MaritalStatus) IsValid() bool {
	switch s {
	case MaritalMarried, MaritalUnmarried, MaritalWidow, MaritalWidower:
		return true
	}
	return false
}

// ChildStatus records whether a child was of age when the form was filed.
type ChildStatus string

const (
	ChildMinor ChildStatus = "minderjarig"
	ChildMajor ChildStatus = "meerderjarig"
)

// IsValid reports whether s is a known child status.
func (s ChildStatus) IsValid() bool {
	return s == ChildMinor || s == ChildMajor
}

// Extraction is the raw field extraction for one packet, before it is
// normalized into a Case. Review edits are applied to this value.
type Extraction struct {
	FormType  string     `json:"formType"`
	Deceased  Deceased   `json:"deceased"`
	Parents   *Parents   `json:"parents,omitempty"`
	Children  []Child    `json:"children"`
	Citations []Citation `json:"citations"`
}

// Deceased holds the fields extracted for the person whose estate is filed.
type Deceased struct {
	FullName      string        `json:"fullName"`
	DeathDate     string        `json:"deathDate"`
	DeathPlace    string        `json:"deathPlace"`
	Residence     string        `json:"residence,omitempty"`
	MaritalStatus MaritalStatus `json:"maritalStatus"`
	Spouse        string        `json:"spouse,omitempty"`
}

// Parents holds the deceased's parents when the form names them.
type Parents struct {
	Father string `json:"father,omitempty"`
	Mother string `json:"mother,omitempty"`
}

// Child is one entry of the form's list of children.
type Child struct {
	Name   string      `json:"name"`
	Status ChildStatus `json:"status,omitempty"`
	Birth  string      `json:"birth,omitempty"`
	Spouse string      `json:"spouse,omitempty"`
	Notes  string      `json:"notes,omitempty"`
}
