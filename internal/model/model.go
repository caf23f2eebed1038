package model

import "time"

// EventRequest is the raw input for a single calendar event, as supplied by
// the CLI events file or the HTTP API.
//
// Every field is a pointer so that an absent field (nil) can be told apart
// from a present-but-empty one (""). Absent fields are rejected by
// ics.Document.AddEvent; empty values are accepted verbatim.
type EventRequest struct {
	Subject     *string `yaml:"subject" json:"subject"`
	Description *string `yaml:"description" json:"description"`
	Location    *string `yaml:"location" json:"location"`

	// Start / End are date or date-time strings, e.g. "2024-03-01T09:00:00".
	Start *string `yaml:"start" json:"start"`
	End   *string `yaml:"end" json:"end"`
}

// NewEventRequest builds an EventRequest with every field present.
func NewEventRequest(subject, description, location, start, end string) EventRequest {
	return EventRequest{
		Subject:     &subject,
		Description: &description,
		Location:    &location,
		Start:       &start,
		End:         &end,
	}
}

// Event is the canonical form of an event after its start/end have been
// parsed. It exists only between parsing and serialization; the document
// stores the serialized VEVENT block, never this struct.
type Event struct {
	UID string // "<index>@<uid domain>"

	Summary     string
	Description string
	Location    string

	// AllDay is true when Start equals End. Both DTSTART and DTEND are
	// then written as dates without a time-of-day.
	AllDay bool

	// Start / End in the document's wall-clock location.
	Start time.Time
	End   time.Time
}
