package entities

// EventType is the closed set of event kinds.
type EventType string

const (
	EventDeath   EventType = "Death"
	EventProbate EventType = "Probate"
)

// IsValid reports whether t is a known event type.
func (t EventType) IsValid() bool {
	return t == EventDeath || t == EventProbate
}

// RoleDeceased is the participant role of the person whose estate is filed.
const RoleDeceased = "deceased"

// Participant links a person to an event under a free-text role.
type Participant struct {
	PersonID string `json:"personId"`
	Role     string `json:"role"`
}

// Event is a dated occurrence with ordered participants.
type Event struct {
	ID           string        `json:"id"`
	Type         EventType     `json:"type"`
	Date         string        `json:"date,omitempty"`
	Place        string        `json:"place,omitempty"`
	Participants []Participant `json:"participants"`
}
