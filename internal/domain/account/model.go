package account

import "time"

// User mirrors the backend user resource.
type User struct {
	ID        string       `json:"id"`
	Email     string       `json:"email"`
	Role      string       `json:"role"`
	FirstName string       `json:"first_name"`
	LastName  string       `json:"last_name"`
	Approved  bool         `json:"approved"`
	TwoFactor bool         `json:"two_factor_enabled"`
	Consent   ConsentFlags `json:"consent"`
	CreatedAt time.Time    `json:"created_at"`
}

// ConsentFlags are the patient's data-sharing choices.
type ConsentFlags struct {
	TreatmentData bool `json:"treatment_data"`
	ResearchData  bool `json:"research_data"`
	Marketing     bool `json:"marketing"`
}

// RegistrationRequest is the shared registration shape. Every role registers
// with the same required core; role-specific extras ride in Extra untouched.
type RegistrationRequest struct {
	Email           string            `json:"email"`
	Password        string            `json:"password"`
	PasswordConfirm string            `json:"password_confirm"`
	FirstName       string            `json:"first_name"`
	LastName        string            `json:"last_name"`
	Extra           map[string]string `json:"extra,omitempty"`
}

// LoginRequest carries the credential pair.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileUpdate is the self-service profile edit body.
type ProfileUpdate struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
}
