package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/crm-nexus/nexus/api"
	xerrors "github.com/crm-nexus/nexus/internal/errors"
	"github.com/crm-nexus/nexus/users"
)

func signupRequest(f users.SignupForm) api.RegisterRequest {
	return api.RegisterRequest{
		FirstName:          f.FirstName,
		LastName:           f.LastName,
		Email:              f.Email,
		Password:           f.Password,
		ConfirmPassword:    f.ConfirmPassword,
		PrimaryLicenseType: f.PrimaryLicenseType,
	}
}

var (
	loginEmail    string
	loginPassword string
	loginRemember bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to CRM Nexus",
	RunE: func(cmd *cobra.Command, args []string) error {
		email := loginEmail
		password := loginPassword
		if email == "" {
			email = prompt("Email: ")
		}
		if password == "" {
			password = prompt("Password: ")
		}

		if fe := users.ValidateLoginForm(email, password); !fe.Valid() {
			return fe
		}

		a, err := newApp()
		if err != nil {
			return err
		}

		sess, err := a.manager.Login(cmd.Context(), email, password, loginRemember)
		if err != nil {
			if errors.Is(err, xerrors.ErrEmailNotVerified) {
				return errors.New("email not verified yet, run 'nexus verify' with the code you were sent")
			}
			return err
		}

		fmt.Printf("Signed in as %s (%s)\n", sess.User.FullName(), sess.User.Role.Name)
		if !loginRemember {
			fmt.Println("Session is in-memory only; pass --remember to stay signed in.")
		}
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear stored tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		// Best effort: restore so the server-side invalidation has a token
		// to work with. Logout succeeds locally either way.
		_, _ = a.manager.Restore(cmd.Context())
		a.manager.Logout(cmd.Context())
		fmt.Println("Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user and accessible areas",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if err := a.restore(cmd.Context()); err != nil {
			return err
		}

		user := a.manager.CurrentUser()
		fmt.Printf("%s <%s>\n", user.FullName(), user.Email)
		fmt.Printf("Role: %s  Approved: %t\n", user.Role.Name, user.IsApproved)
		fmt.Println("Accessible areas:")
		for _, route := range users.NavigationRoutes(user) {
			fmt.Println("  " + route)
		}
		return nil
	},
}

var signupForm users.SignupForm

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Register a new CRM agent account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if fe := signupForm.Validate(); !fe.Valid() {
			return fe
		}

		a, err := newApp()
		if err != nil {
			return err
		}

		response, err := a.client.Register(cmd.Context(), signupRequest(signupForm))
		if err != nil {
			return err
		}

		// Carry the license choice into the onboarding wizard.
		if err := a.bridge.Save(signupForm.PrimaryLicenseType); err != nil {
			a.log.Warn().Err(err).Msg("Failed to save license bridge")
		}

		if response.Message != "" {
			fmt.Println(response.Message)
		}
		fmt.Println("Check your email for a verification code and run 'nexus verify'.")
		return nil
	},
}

var (
	verifyEmail string
	verifyCode  string
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Confirm your email with the verification code",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := users.ValidateEmail(verifyEmail); err != nil {
			return errors.Wrap(err, "email")
		}
		if verifyCode == "" {
			verifyCode = prompt("Verification code: ")
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		if err := a.client.ConfirmEmail(cmd.Context(), verifyEmail, verifyCode); err != nil {
			return err
		}
		fmt.Println("Email verified. You can sign in now.")
		return nil
	},
}

var (
	forgotEmail  string
	forgotResend bool
)

var forgotPasswordCmd = &cobra.Command{
	Use:   "forgot-password",
	Short: "Email yourself a password-reset code",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := users.ValidateEmail(forgotEmail); err != nil {
			return errors.Wrap(err, "email")
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		if err := a.client.ForgotPassword(cmd.Context(), forgotEmail, forgotResend); err != nil {
			return err
		}
		fmt.Println("If the address is registered, a reset code is on its way.")
		return nil
	},
}

var (
	resetEmail    string
	resetCode     string
	resetPassword string
)

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Set a new password using the emailed code",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := users.ValidateEmail(resetEmail); err != nil {
			return errors.Wrap(err, "email")
		}
		if err := users.ValidatePasswordStrength(resetPassword); err != nil {
			return errors.Wrap(err, "password")
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		if err := a.client.VerifyPasswordResetCode(cmd.Context(), resetEmail, resetCode); err != nil {
			return errors.Wrap(err, "code verification failed")
		}
		if err := a.client.ResetPassword(cmd.Context(), resetEmail, resetPassword, resetCode); err != nil {
			return err
		}
		fmt.Println("Password reset. Sign in with the new password.")
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password")
	loginCmd.Flags().BoolVar(&loginRemember, "remember", false, "keep the session across restarts")

	signupCmd.Flags().StringVar(&signupForm.FirstName, "first-name", "", "first name")
	signupCmd.Flags().StringVar(&signupForm.LastName, "last-name", "", "last name")
	signupCmd.Flags().StringVar(&signupForm.Email, "email", "", "account email")
	signupCmd.Flags().StringVar(&signupForm.Password, "password", "", "password")
	signupCmd.Flags().StringVar(&signupForm.ConfirmPassword, "confirm-password", "", "password again")
	signupCmd.Flags().StringVar(&signupForm.PrimaryLicenseType, "license-type", "", "primary license type")

	verifyCmd.Flags().StringVar(&verifyEmail, "email", "", "account email")
	verifyCmd.Flags().StringVar(&verifyCode, "code", "", "verification code")

	forgotPasswordCmd.Flags().StringVar(&forgotEmail, "email", "", "account email")
	forgotPasswordCmd.Flags().BoolVar(&forgotResend, "resend", false, "resend the code")

	resetPasswordCmd.Flags().StringVar(&resetEmail, "email", "", "account email")
	resetPasswordCmd.Flags().StringVar(&resetCode, "code", "", "reset code from the email")
	resetPasswordCmd.Flags().StringVar(&resetPassword, "password", "", "new password")
}

func prompt(label string) string {
	fmt.Print(label)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
