// Package services contains domain business logic.
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ersonp/provpack/internal/domain/entities"
	"github.com/ersonp/provpack/internal/domain/normalize"
)

// DefaultSourceRepo is the repository recorded on generated sources.
const DefaultSourceRepo = "familysearch-tab"

// CaseBuilder assembles a canonical Case from a validated extraction.
// It keeps no state between calls.
type CaseBuilder struct {
	newID      func() string
	sourceRepo string
}

// BuilderOption configures a CaseBuilder.
type BuilderOption func(*CaseBuilder)

// WithIDGenerator replaces the UUID generator, for deterministic tests.
func WithIDGenerator(fn func() string) BuilderOption {
	return func(b *CaseBuilder) {
		b.newID = fn
	}
}

// WithSourceRepo sets the repository name recorded on the case's Source.
func WithSourceRepo(repo string) BuilderOption {
	return func(b *CaseBuilder) {
		if repo != "" {
			b.sourceRepo = repo
		}
	}
}

// NewCaseBuilder creates a new case builder.
func NewCaseBuilder(opts ...BuilderOption) *CaseBuilder {
	b := &CaseBuilder{
		newID:      uuid.NewString,
		sourceRepo: DefaultSourceRepo,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build maps an extraction into a new Case. The extraction must already have
// passed schema validation; Build only checks the fields it cannot do
// without and returns *entities.MissingFieldError for the first one absent.
func (b *CaseBuilder) Build(packetID string, x *entities.Extraction) (*entities.Case, error) {
	if x == nil {
		return nil, errors.New("extraction is required")
	}
	if err := requireFields(packetID, x); err != nil {
		return nil, err
	}

	c := &entities.Case{
		CaseID:        b.newID(),
		PacketID:      packetID,
		Persons:       make([]entities.Person, 0, len(x.Children)+4),
		Relationships: make([]entities.Relationship, 0, len(x.Children)+3),
	}

	death := entities.Vital{
		Date:  normalize.DateString(x.Deceased.DeathDate),
		Place: strings.TrimSpace(x.Deceased.DeathPlace),
	}
	deceased := b.newPerson(x.Deceased.FullName, entities.GenderUnknown)
	deceased.Death = &death
	c.Persons = append(c.Persons, deceased)

	for _, child := range x.Children {
		p := b.newPerson(child.Name, entities.GenderUnknown)
		if strings.TrimSpace(child.Birth) != "" {
			p.Birth = &entities.Vital{Date: normalize.DateString(child.Birth)}
		}
		c.Persons = append(c.Persons, p)
		c.Relationships = append(c.Relationships, entities.Relationship{
			Type: entities.RelationParentOf,
			From: deceased.ID,
			To:   p.ID,
		})
	}

	if strings.TrimSpace(x.Deceased.Spouse) != "" {
		spouse := b.newPerson(x.Deceased.Spouse, entities.GenderUnknown)
		c.Persons = append(c.Persons, spouse)
		c.Relationships = append(c.Relationships, entities.Relationship{
			Type: entities.RelationSpouseOf,
			From: deceased.ID,
			To:   spouse.ID,
		})
	}

	if x.Parents != nil {
		b.addParent(c, x.Parents.Father, entities.GenderMale, deceased.ID)
		b.addParent(c, x.Parents.Mother, entities.GenderFemale, deceased.ID)
	}

	c.Events = []entities.Event{{
		ID:    b.newID(),
		Type:  entities.EventDeath,
		Date:  death.Date,
		Place: death.Place,
		Participants: []entities.Participant{
			{PersonID: deceased.ID, Role: entities.RoleDeceased},
		},
	}}

	source := entities.Source{
		ID:       b.newID(),
		Repo:     b.sourceRepo,
		Title:    "Estate file " + packetID,
		PacketID: packetID,
	}
	c.Sources = []entities.Source{source}

	// Every citation is attributed to the single generated source; the
	// extraction's own image reference is kept alongside.
	c.Citations = make([]entities.Citation, len(x.Citations))
	for i, cit := range x.Citations {
		cit.ImageRef = cit.SourceID
		cit.SourceID = source.ID
		c.Citations[i] = cit
	}

	return c, nil
}

func (b *CaseBuilder) newPerson(rawName string, gender entities.Gender) entities.Person {
	name := normalize.Name(rawName)
	return entities.Person{
		ID:          b.newID(),
		PrimaryName: name.Primary,
		SortKey:     name.SortKey,
		Gender:      gender,
	}
}

func (b *CaseBuilder) addParent(c *entities.Case, rawName string, gender entities.Gender, childID string) {
	if strings.TrimSpace(rawName) == "" {
		return
	}
	parent := b.newPerson(rawName, gender)
	c.Persons = append(c.Persons, parent)
	c.Relationships = append(c.Relationships, entities.Relationship{
		Type: entities.RelationParentOf,
		From: parent.ID,
		To:   childID,
	})
}

func requireFields(packetID string, x *entities.Extraction) error {
	if strings.TrimSpace(packetID) == "" {
		return &entities.MissingFieldError{Field: "packetId"}
	}
	if strings.TrimSpace(x.Deceased.FullName) == "" {
		return &entities.MissingFieldError{Field: "deceased.fullName"}
	}
	if strings.TrimSpace(x.Deceased.DeathDate) == "" {
		return &entities.MissingFieldError{Field: "deceased.deathDate"}
	}
	for i, child := range x.Children {
		if strings.TrimSpace(child.Name) == "" {
			return &entities.MissingFieldError{Field: fmt.Sprintf("children[%d].name", i)}
		}
	}
	return nil
}
