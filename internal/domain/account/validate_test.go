package account

import "testing"

func valid() RegistrationRequest {
	return RegistrationRequest{
		Email:           "pat@example.com",
		Password:        "longenough1",
		PasswordConfirm: "longenough1",
		FirstName:       "Pat",
		LastName:        "Jones",
	}
}

func hasField(t *testing.T, req RegistrationRequest, field string) {
	t.Helper()
	for _, e := range ValidateRegistration(req) {
		if e.Field == field {
			return
		}
	}
	t.Errorf("expected a %s field error, got %v", field, ValidateRegistration(req))
}

func TestValidRegistrationPasses(t *testing.T) {
	if errs := ValidateRegistration(valid()); len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestPasswordMismatch(t *testing.T) {
	req := valid()
	req.PasswordConfirm = "different99"
	hasField(t, req, "password_confirm")
}

func TestEmailShape(t *testing.T) {
	req := valid()
	req.Email = "not-an-email"
	hasField(t, req, "email")

	req.Email = ""
	hasField(t, req, "email")
}

func TestPasswordPolicy(t *testing.T) {
	req := valid()
	req.Password, req.PasswordConfirm = "short1", "short1"
	hasField(t, req, "password")

	req.Password, req.PasswordConfirm = "allletterspassword", "allletterspassword"
	hasField(t, req, "password")

	req.Password, req.PasswordConfirm = "1234567890123", "1234567890123"
	hasField(t, req, "password")
}

func TestRequiredNames(t *testing.T) {
	req := valid()
	req.FirstName = ""
	hasField(t, req, "first_name")

	req = valid()
	req.LastName = ""
	hasField(t, req, "last_name")
}
