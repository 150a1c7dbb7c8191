package entities

import (
	"fmt"
	"sort"
)

// Case is the canonical, closed record built from one approved extraction.
// It is created once and never partially mutated.
type Case struct {
	CaseID        string         `json:"caseId"`
	PacketID      string         `json:"packetId"`
	Persons       []Person       `json:"persons"`
	Events        []Event        `json:"events"`
	Relationships []Relationship `json:"relationships"`
	Sources       []Source       `json:"sources"`
	Citations     []Citation     `json:"citations"`
}

// CaseSummary is the listing form of a stored case.
type CaseSummary struct {
	CaseID       string `json:"caseId"`
	PacketID     string `json:"packetId"`
	DeceasedName string `json:"deceasedName,omitempty"`
	PersonCount  int    `json:"personCount"`
}

// Person returns the person with the given id, or nil.
func (c *Case) Person(id string) *Person {
	for i := range c.Persons {
		if c.Persons[i].ID == id {
			return &c.Persons[i]
		}
	}
	return nil
}

// Deceased returns the person taking part in the case's Death event as
// "deceased", or nil when there is none.
func (c *Case) Deceased() *Person {
	for i := range c.Events {
		if c.Events[i].Type != EventDeath {
			continue
		}
		for _, p := range c.Events[i].Participants {
			if p.Role == RoleDeceased {
				return c.Person(p.PersonID)
			}
		}
	}
	return nil
}

// ChildrenOf returns the persons personID is a parent of, in relationship order.
func (c *Case) ChildrenOf(personID string) []Person {
	var out []Person
	for _, r := range c.Relationships {
		if r.Type == RelationParentOf && r.From == personID {
			if p := c.Person(r.To); p != nil {
				out = append(out, *p)
			}
		}
	}
	return out
}

// SpousesOf returns the spouses of personID regardless of edge direction.
func (c *Case) SpousesOf(personID string) []Person {
	var out []Person
	for _, r := range c.Relationships {
		if r.Type != RelationSpouseOf || !r.Involves(personID) {
			continue
		}
		if p := c.Person(r.Other(personID)); p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// Canonical returns a copy of the case whose slices are non-nil, so that its
// JSON form has empty arrays instead of nulls.
func (c Case) Canonical() Case {
	if c.Persons == nil {
		c.Persons = []Person{}
	}
	if c.Relationships == nil {
		c.Relationships = []Relationship{}
	}
	if c.Sources == nil {
		c.Sources = []Source{}
	}
	if c.Citations == nil {
		c.Citations = []Citation{}
	}
	events := make([]Event, len(c.Events))
	for i, e := range c.Events {
		if e.Participants == nil {
			e.Participants = []Participant{}
		}
		events[i] = e
	}
	c.Events = events
	return c
}

// CitedPages returns the distinct page numbers referenced by citations, ascending.
func (c *Case) CitedPages() []int {
	seen := make(map[int]bool, len(c.Citations))
	pages := make([]int, 0, len(c.Citations))
	for _, cit := range c.Citations {
		if seen[cit.Page] {
			continue
		}
		seen[cit.Page] = true
		pages = append(pages, cit.Page)
	}
	sort.Ints(pages)
	return pages
}

// Summary returns the listing form of the case.
func (c *Case) Summary() CaseSummary {
	s := CaseSummary{
		CaseID:      c.CaseID,
		PacketID:    c.PacketID,
		PersonCount: len(c.Persons),
	}
	if d := c.Deceased(); d != nil {
		s.DeceasedName = d.PrimaryName
	}
	return s
}

// CheckReferences verifies the closed-world invariant: every event
// participant, relationship endpoint and citation source resolves inside the
// case, and no relationship points at its own origin. All problems are
// reported in one *ReferentialError.
func (c *Case) CheckReferences() error {
	persons := make(map[string]bool, len(c.Persons))
	for _, p := range c.Persons {
		persons[p.ID] = true
	}
	sources := make(map[string]bool, len(c.Sources))
	for _, s := range c.Sources {
		sources[s.ID] = true
	}

	var dangling []Violation
	for i, e := range c.Events {
		for j, p := range e.Participants {
			if !persons[p.PersonID] {
				dangling = append(dangling, Violation{
					Path:   fmt.Sprintf("events[%d].participants[%d].personId", i, j),
					Reason: fmt.Sprintf("unknown person %q", p.PersonID),
				})
			}
		}
	}
	for i, r := range c.Relationships {
		if !persons[r.From] {
			dangling = append(dangling, Violation{
				Path:   fmt.Sprintf("relationships[%d].from", i),
				Reason: fmt.Sprintf("unknown person %q", r.From),
			})
		}
		if !persons[r.To] {
			dangling = append(dangling, Violation{
				Path:   fmt.Sprintf("relationships[%d].to", i),
				Reason: fmt.Sprintf("unknown person %q", r.To),
			})
		}
		if r.From == r.To {
			dangling = append(dangling, Violation{
				Path:   fmt.Sprintf("relationships[%d]", i),
				Reason: "relationship from a person to itself",
			})
		}
	}
	for i, cit := range c.Citations {
		if !sources[cit.SourceID] {
			dangling = append(dangling, Violation{
				Path:   fmt.Sprintf("citations[%d].sourceId", i),
				Reason: fmt.Sprintf("unknown source %q", cit.SourceID),
			})
		}
	}

	if len(dangling) > 0 {
		return &ReferentialError{CaseID: c.CaseID, Violations: dangling}
	}
	return nil
}
