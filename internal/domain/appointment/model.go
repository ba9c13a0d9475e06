package appointment

import "time"

// Appointment statuses as the backend reports them. The backend owns the
// lifecycle; the portal only names the states for display and filtering.
const (
	StatusScheduled  = "scheduled"
	StatusConfirmed  = "confirmed"
	StatusCheckedIn  = "checked_in"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusNoShow     = "no_show"
)

var validStatuses = map[string]bool{
	StatusScheduled:  true,
	StatusConfirmed:  true,
	StatusCheckedIn:  true,
	StatusInProgress: true,
	StatusCompleted:  true,
	StatusCancelled:  true,
	StatusNoShow:     true,
}

// ValidStatus reports whether s is a known appointment status.
func ValidStatus(s string) bool { return validStatuses[s] }

// VisitTypeVirtual marks telemedicine appointments; a telemedicine session
// can only be created for these.
const VisitTypeVirtual = "virtual"

// Appointment mirrors the backend appointment resource.
type Appointment struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patient_id"`
	ProviderID  string    `json:"provider_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      string    `json:"status"`
	VisitType   string    `json:"visit_type"`
	Reason      string    `json:"reason,omitempty"`
	Location    string    `json:"location,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ScheduleRequest is the body for scheduling a new appointment.
type ScheduleRequest struct {
	PatientID   string    `json:"patient_id"`
	ProviderID  string    `json:"provider_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	VisitType   string    `json:"visit_type"`
	Reason      string    `json:"reason,omitempty"`
}

// UpdateRequest is the body for rescheduling or editing an appointment.
type UpdateRequest struct {
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	VisitType   string     `json:"visit_type,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}

// TelemedicineSession is a virtual-visit session the patient and provider
// both join.
type TelemedicineSession struct {
	ID            string    `json:"id"`
	AppointmentID string    `json:"appointment_id"`
	JoinURL       string    `json:"join_url"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}
