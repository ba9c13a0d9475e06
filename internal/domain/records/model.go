package records

import "time"

// Record types the backend produces.
const (
	TypeLab       = "lab"
	TypeImaging   = "imaging"
	TypeVisitNote = "visit_note"
	TypeProcedure = "procedure"
	TypeVaccine   = "vaccine"
	TypeOther     = "other"
)

// Record statuses.
const (
	StatusFinal       = "final"
	StatusPreliminary = "preliminary"
	StatusPending     = "pending"
	StatusAmended     = "amended"
)

var validStatuses = map[string]bool{
	StatusFinal:       true,
	StatusPreliminary: true,
	StatusPending:     true,
	StatusAmended:     true,
}

// ValidStatus reports whether s is a known record status.
func ValidStatus(s string) bool { return validStatuses[s] }

// HealthRecord mirrors the backend health record resource.
type HealthRecord struct {
	ID           string    `json:"id"`
	PatientID    string    `json:"patient_id"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	Title        string    `json:"title"`
	Critical     bool      `json:"critical"`
	AttachmentID string    `json:"attachment_id,omitempty"`
	RecordedAt   time.Time `json:"recorded_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// Attachment is the short-lived download reference for a record attachment.
type Attachment struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
