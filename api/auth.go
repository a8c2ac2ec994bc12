package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	xerrors "github.com/crm-nexus/nexus/internal/errors"
	"github.com/crm-nexus/nexus/users"
)

// LoginResponse is the payload of both login endpoints. TokenExpires is
// the absolute access-token expiry in Unix milliseconds.
type LoginResponse struct {
	Token        string     `json:"token"`
	RefreshToken string     `json:"refreshToken"`
	TokenExpires int64      `json:"tokenExpires"`
	User         users.User `json:"user"`
}

// TokenRefresh is the refresh endpoint payload: a rotated token triple
// without the user profile.
type TokenRefresh struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	TokenExpires int64  `json:"tokenExpires"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates against the CRM endpoint first (agents), then falls
// back to the admin endpoint when the CRM side does not know the email.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body := loginRequest{Email: email, Password: password}

	var response LoginResponse
	err := c.do(ctx, http.MethodPost, "/auth/crm/login", nil, body, &response, "")
	if err == nil {
		return &response, nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && strings.Contains(apiErr.Message, "email is not recognized") {
		response = LoginResponse{}
		err = c.do(ctx, http.MethodPost, "/auth/admin/login", nil, body, &response, "")
		if err == nil {
			return &response, nil
		}
	}

	return nil, mapLoginError(err)
}

func mapLoginError(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return errors.Wrap(err, "[Client.Login]")
	}
	if apiErr.StatusCode == http.StatusForbidden && apiErr.VerificationRequired {
		return errors.Wrap(xerrors.ErrEmailNotVerified, apiErr.Message)
	}
	if apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden {
		return errors.Wrap(xerrors.ErrInvalidCredentials, apiErr.Message)
	}
	return err
}

// Me returns the profile behind the access token.
func (c *Client) Me(ctx context.Context, accessToken string) (*users.User, error) {
	var user users.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &user, accessToken); err != nil {
		return nil, err
	}
	return &user, nil
}

// ConfirmEmail submits the verification code sent at registration.
func (c *Client) ConfirmEmail(ctx context.Context, email, code string) error {
	body := map[string]string{"email": email, "code": code}
	return c.do(ctx, http.MethodPost, "/auth/confirm", nil, body, nil, "")
}

// Refresh exchanges the refresh token for a new token triple. The bearer
// on this call is the refresh token, not the access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenRefresh, error) {
	var refreshed TokenRefresh
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", nil, nil, &refreshed, refreshToken); err != nil {
		return nil, err
	}
	return &refreshed, nil
}

// Logout invalidates the session server-side. Callers treat failure as
// advisory; the client-side session is torn down regardless.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil, accessToken)
}

type forgotPasswordRequest struct {
	Email    string `json:"email"`
	IsResend bool   `json:"isResend"`
}

// ForgotPassword asks the backend to email a password-reset code.
func (c *Client) ForgotPassword(ctx context.Context, email string, isResend bool) error {
	body := forgotPasswordRequest{Email: email, IsResend: isResend}
	return c.do(ctx, http.MethodPost, "/auth/crm/forgot/password", nil, body, nil, "")
}

// VerifyPasswordResetCode checks the emailed code without resetting yet.
func (c *Client) VerifyPasswordResetCode(ctx context.Context, email, code string) error {
	body := map[string]string{"email": email, "code": code}
	return c.do(ctx, http.MethodPost, "/auth/verify/password-reset-code", nil, body, nil, "")
}

// ResetPassword sets a new password using the verified code.
func (c *Client) ResetPassword(ctx context.Context, email, password, code string) error {
	body := map[string]string{"email": email, "password": password, "code": code}
	return c.do(ctx, http.MethodPost, "/auth/reset/password", nil, body, nil, "")
}

// RegisterRequest is the CRM agent registration body. The confirm field
// keeps the backend's snake_case name.
type RegisterRequest struct {
	FirstName          string `json:"firstName"`
	LastName           string `json:"lastName"`
	Email              string `json:"email"`
	Password           string `json:"password"`
	ConfirmPassword    string `json:"confirm_password"`
	PrimaryLicenseType string `json:"primaryLicenseType"`
}

type RegisterResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    *struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"data,omitempty"`
}

// Register creates a new CRM agent account.
func (c *Client) Register(ctx context.Context, request RegisterRequest) (*RegisterResponse, error) {
	var response RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/auth/crm/register", nil, request, &response, ""); err != nil {
		return nil, err
	}
	return &response, nil
}
