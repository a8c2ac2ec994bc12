package users

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// FieldErrors maps form field names to validation messages. Validation is
// resolved entirely client-side; a request is only issued once the map is
// empty.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	if len(fe) == 0 {
		return "valid"
	}
	parts := make([]string, 0, len(fe))
	for field, msg := range fe {
		parts = append(parts, field+": "+msg)
	}
	return strings.Join(parts, "; ")
}

func (fe FieldErrors) Valid() bool { return len(fe) == 0 }

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func ValidateRequired(value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("this field is required")
	}
	return nil
}

func ValidateEmail(email string) error {
	if err := ValidateRequired(email); err != nil {
		return err
	}
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("please enter a valid email address")
	}
	return nil
}

func ValidateName(name string) error {
	if err := ValidateRequired(name); err != nil {
		return err
	}
	if len(strings.TrimSpace(name)) < 2 {
		return fmt.Errorf("must be at least 2 characters long")
	}
	return nil
}

// ValidateLoginPassword applies the lighter login-form rule. Existing
// accounts may predate the signup strength policy.
func ValidateLoginPassword(password string) error {
	if err := ValidateRequired(password); err != nil {
		return err
	}
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters long")
	}
	return nil
}

// ValidatePasswordStrength checks if a signup password meets security
// requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func ValidatePasswordsMatch(password, confirm string) error {
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}
	return nil
}

// ValidateLoginForm validates the login form fields and returns per-field
// messages keyed the way the form names them.
func ValidateLoginForm(email, password string) FieldErrors {
	fe := FieldErrors{}
	if err := ValidateEmail(email); err != nil {
		fe["email"] = err.Error()
	}
	if err := ValidateLoginPassword(password); err != nil {
		fe["password"] = err.Error()
	}
	return fe
}

// SignupForm carries the registration fields collected before onboarding.
type SignupForm struct {
	FirstName          string
	LastName           string
	Email              string
	Password           string
	ConfirmPassword    string
	PrimaryLicenseType string
}

func (f SignupForm) Validate() FieldErrors {
	fe := FieldErrors{}
	if err := ValidateName(f.FirstName); err != nil {
		fe["firstName"] = err.Error()
	}
	if err := ValidateName(f.LastName); err != nil {
		fe["lastName"] = err.Error()
	}
	if err := ValidateEmail(f.Email); err != nil {
		fe["email"] = err.Error()
	}
	if err := ValidatePasswordStrength(f.Password); err != nil {
		fe["password"] = err.Error()
	}
	if err := ValidatePasswordsMatch(f.Password, f.ConfirmPassword); err != nil {
		fe["confirmPassword"] = err.Error()
	}
	if err := ValidateRequired(f.PrimaryLicenseType); err != nil {
		fe["primaryLicenseType"] = err.Error()
	}
	return fe
}
