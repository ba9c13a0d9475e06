package account

import (
	"regexp"
	"unicode"

	"github.com/carelink/portal/internal/platform/upstream"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const minPasswordLength = 10

// ValidateRegistration checks a registration request before anything is sent
// upstream. A non-empty result means the submission is blocked; in
// particular, mismatched passwords never produce a network call.
func ValidateRegistration(req RegistrationRequest) []upstream.FieldError {
	var errs []upstream.FieldError

	if req.Email == "" {
		errs = append(errs, upstream.FieldError{Field: "email", Message: "Email is required."})
	} else if !emailPattern.MatchString(req.Email) {
		errs = append(errs, upstream.FieldError{Field: "email", Message: "Enter a valid email address."})
	}

	if req.FirstName == "" {
		errs = append(errs, upstream.FieldError{Field: "first_name", Message: "First name is required."})
	}
	if req.LastName == "" {
		errs = append(errs, upstream.FieldError{Field: "last_name", Message: "Last name is required."})
	}

	if req.Password == "" {
		errs = append(errs, upstream.FieldError{Field: "password", Message: "Password is required."})
	} else if msg := passwordPolicy(req.Password); msg != "" {
		errs = append(errs, upstream.FieldError{Field: "password", Message: msg})
	}

	if req.Password != req.PasswordConfirm {
		errs = append(errs, upstream.FieldError{Field: "password_confirm", Message: "Passwords do not match."})
	}

	return errs
}

func passwordPolicy(pw string) string {
	if len(pw) < minPasswordLength {
		return "Password must be at least 10 characters."
	}
	var hasLetter, hasDigit bool
	for _, r := range pw {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return "Password must contain both letters and digits."
	}
	return ""
}
