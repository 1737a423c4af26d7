package models

import "time"

// ConflictParty identifies whose commitment a conflict belongs to.
type ConflictParty string

const (
	PartyDriver ConflictParty = "driver"
	PartyRider  ConflictParty = "rider"
	PartyBoth   ConflictParty = "both"
)

// ConflictSource identifies where a conflicting commitment was found.
type ConflictSource string

const (
	SourceCalendar ConflictSource = "calendar"
	SourceBooking  ConflictSource = "existing_booking"
)

// ConflictRecord describes one overlapping commitment discovered during
// conflict detection. Transient; embedded into Ride.ConflictDetails.
type ConflictRecord struct {
	Party       ConflictParty  `bson:"party" json:"party"`
	Source      ConflictSource `bson:"source" json:"source"`
	Phone       string         `bson:"phone" json:"phone"`
	Title       string         `bson:"title" json:"title"`
	Start       time.Time      `bson:"start" json:"start"`
	End         time.Time      `bson:"end" json:"end"`
	ReferenceID string         `bson:"referenceId" json:"referenceId"`
}

// ConflictReport is the full result of a conflict detection pass.
type ConflictReport struct {
	HasConflict     bool             `json:"hasConflict"`
	RejectionReason RejectionReason  `json:"rejectionReason,omitempty"`
	Conflicts       []ConflictRecord `json:"conflicts"`
	Summary         string           `json:"summary"`
	Start           time.Time        `json:"start"`
	End             time.Time        `json:"end"`
}

// CalendarEvent is the provider-neutral shape of a calendar entry.
type CalendarEvent struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}
