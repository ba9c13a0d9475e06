package medication

import "time"

// Medication mirrors the backend medication resource.
type Medication struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	Name      string    `json:"name"`
	Dosage    string    `json:"dosage"`
	Schedule  string    `json:"schedule"`
	Active    bool      `json:"active"`
	StartedAt time.Time `json:"started_at"`
	CreatedAt time.Time `json:"created_at"`
}

// AdherenceRecord is one taken/skipped event for a medication.
type AdherenceRecord struct {
	ID           string    `json:"id"`
	MedicationID string    `json:"medication_id"`
	Taken        bool      `json:"taken"`
	TakenAt      time.Time `json:"taken_at"`
	Notes        string    `json:"notes,omitempty"`
}

// AdherenceRequest logs a taken/skipped event.
type AdherenceRequest struct {
	Taken   bool      `json:"taken"`
	TakenAt time.Time `json:"taken_at"`
	Notes   string    `json:"notes,omitempty"`
}

// SideEffectReport reports an adverse reaction to a medication.
type SideEffectReport struct {
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// Side-effect severities.
const (
	SeverityMild     = "mild"
	SeverityModerate = "moderate"
	SeveritySevere   = "severe"
)

var validSeverities = map[string]bool{
	SeverityMild:     true,
	SeverityModerate: true,
	SeveritySevere:   true,
}

// ValidSeverity reports whether s is a known severity.
func ValidSeverity(s string) bool { return validSeverities[s] }
