// Package flagstatus defines the flag status documents and the rules for
// deriving them from model output.
package flagstatus

import "time"

// Status values for FlagStatus.Status.
const (
	StatusHalfStaff = "half_staff"
	StatusFullStaff = "full_staff"
)

// Reason strings for synthesized records.
const (
	ReasonParseFailure         = "Unable to parse flag status"
	ReasonNoActiveProclamation = "No active proclamations"
)

// PersonHonored identifies who a half-staff proclamation honors.
type PersonHonored struct {
	Name      string `json:"name,omitempty"`
	Title     string `json:"title,omitempty"`
	BirthDate string `json:"birth_date,omitempty"`
	DeathDate string `json:"death_date,omitempty"`
}

// EventDetails describes the event behind a proclamation when it does not
// honor a single person.
type EventDetails struct {
	EventName   string `json:"event_name,omitempty"`
	EventDate   string `json:"event_date,omitempty"`
	Description string `json:"description,omitempty"`
}

// FlagStatus is the current-status document. The same shape is archived
// per proclamation. proclamation_url stays nullable so synthesized records
// carry an explicit null rather than dropping the field.
type FlagStatus struct {
	Status          string         `json:"status"`
	Reason          string         `json:"reason"`
	ProclamationURL *string        `json:"proclamation_url"`
	TriggerType     string         `json:"trigger_type,omitempty"`
	PersonHonored   *PersonHonored `json:"person_honored,omitempty"`
	EventDetails    *EventDetails  `json:"event_details,omitempty"`
	StartDate       string         `json:"start_date,omitempty"`
	EndDate         string         `json:"end_date,omitempty"`
	DurationDays    int            `json:"duration_days,omitempty"`
	ProclamationID  string         `json:"proclamation_id,omitempty"`
	LastUpdated     string         `json:"last_updated"`
}

// HalfStaff reports whether the record calls for flags at half-staff.
func (s *FlagStatus) HalfStaff() bool {
	return s.Status == StatusHalfStaff
}

// Normalize stamps last_updated and backfills the two fields every stored
// record must carry. Called on every record before it is written.
func (s *FlagStatus) Normalize(now time.Time) {
	s.LastUpdated = Timestamp(now)
	if s.Status == "" {
		s.Status = StatusFullStaff
	}
	if s.Reason == "" {
		s.Reason = ReasonNoActiveProclamation
	}
}

// DefaultStatus is the record stored when extraction fails outright.
func DefaultStatus(now time.Time) FlagStatus {
	return FlagStatus{
		Status:      StatusFullStaff,
		Reason:      ReasonParseFailure,
		LastUpdated: Timestamp(now),
	}
}

// FallbackStatus is the record readers see before the first update ever
// lands in the store.
func FallbackStatus(now time.Time) FlagStatus {
	return FlagStatus{
		Status:      StatusFullStaff,
		Reason:      ReasonNoActiveProclamation,
		LastUpdated: Timestamp(now),
	}
}

// Timestamp renders t the way every stored document does.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
