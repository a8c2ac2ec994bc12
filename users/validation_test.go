package users_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crm-nexus/nexus/users"
)

func validSignupForm() users.SignupForm {
	return users.SignupForm{
		FirstName:          "Jane",
		LastName:           "Agent",
		Email:              "jane.agent@example.com",
		Password:           "Password123",
		ConfirmPassword:    "Password123",
		PrimaryLicenseType: "LIFE",
	}
}

func TestValidateLoginForm(t *testing.T) {
	t.Run("valid form has no field errors", func(t *testing.T) {
		fe := users.ValidateLoginForm("jane.agent@example.com", "secret42")
		require.True(t, fe.Valid())
	})

	t.Run("missing fields are reported per field", func(t *testing.T) {
		fe := users.ValidateLoginForm("", "")
		require.False(t, fe.Valid())
		require.Contains(t, fe, "email")
		require.Contains(t, fe, "password")
	})

	t.Run("malformed email is rejected", func(t *testing.T) {
		for _, email := range []string{"jane", "jane@", "@example.com", "jane agent@example.com"} {
			fe := users.ValidateLoginForm(email, "secret42")
			require.Contains(t, fe, "email", email)
		}
	})

	t.Run("login accepts passwords the signup policy would reject", func(t *testing.T) {
		fe := users.ValidateLoginForm("jane.agent@example.com", "legacy")
		require.True(t, fe.Valid())

		fe = users.ValidateLoginForm("jane.agent@example.com", "short")
		require.Contains(t, fe, "password")
	})
}

func TestValidatePasswordStrength(t *testing.T) {
	fixtures := []struct {
		name     string
		password string
		wantErr  string
	}{
		{name: "meets all rules", password: "Password123"},
		{name: "too short", password: "Pw1", wantErr: "at least 8 characters"},
		{name: "no uppercase", password: "password123", wantErr: "uppercase"},
		{name: "no lowercase", password: "PASSWORD123", wantErr: "lowercase"},
		{name: "no number", password: "PasswordABC", wantErr: "number"},
	}

	for _, fixture := range fixtures {
		t.Run(fixture.name, func(t *testing.T) {
			err := users.ValidatePasswordStrength(fixture.password)
			if fixture.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, fixture.wantErr)
		})
	}
}

func TestSignupForm_Validate(t *testing.T) {
	t.Run("valid form passes", func(t *testing.T) {
		require.True(t, validSignupForm().Validate().Valid())
	})

	t.Run("mismatched confirmation is reported", func(t *testing.T) {
		form := validSignupForm()
		form.ConfirmPassword = "Different123"

		fe := form.Validate()
		require.Contains(t, fe, "confirmPassword")
	})

	t.Run("single-character names are rejected", func(t *testing.T) {
		form := validSignupForm()
		form.FirstName = "J"

		fe := form.Validate()
		require.Contains(t, fe, "firstName")
	})

	t.Run("license type is required", func(t *testing.T) {
		form := validSignupForm()
		form.PrimaryLicenseType = " "

		fe := form.Validate()
		require.Contains(t, fe, "primaryLicenseType")
	})

	t.Run("empty form reports every field", func(t *testing.T) {
		fe := users.SignupForm{}.Validate()
		for _, field := range []string{"firstName", "lastName", "email", "password", "primaryLicenseType"} {
			require.Contains(t, fe, field)
		}
	})
}
