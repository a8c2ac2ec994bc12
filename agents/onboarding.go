package agents

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/crm-nexus/nexus/internal/utils"
	"github.com/crm-nexus/nexus/users"
)

// Step is one screen of the onboarding wizard. Steps advance in order and
// cannot be skipped.
type Step int

const (
	StepLicense Step = iota
	StepRegion
	StepHistory
	StepProducts
	StepReview
)

func (s Step) String() string {
	switch s {
	case StepLicense:
		return "license"
	case StepRegion:
		return "region"
	case StepHistory:
		return "history"
	case StepProducts:
		return "products"
	case StepReview:
		return "review"
	}
	return "unknown"
}

var (
	WizardStepErr       = errors.New("wizard step out of order")
	WizardIncompleteErr = errors.New("wizard not at review step")
)

// OnboardingData is what the wizard collects before the profile update.
type OnboardingData struct {
	PrimaryLicenseType string
	ResidentState      string
	LicenseNumber      string
	YearsLicensed      int
	PriorProductsSold  []string
	CurrentCompany     string
}

// Wizard is the onboarding state machine. It is seeded with the license
// type chosen at signup (the bridge value) and walks license → region →
// history → products → review.
type Wizard struct {
	step Step
	data OnboardingData
}

func NewWizard(seedLicenseType string) *Wizard {
	w := &Wizard{}
	if seedLicenseType != "" {
		w.data.PrimaryLicenseType = seedLicenseType
	}
	return w
}

func (w *Wizard) Current() Step        { return w.step }
func (w *Wizard) Data() OnboardingData { return w.data }

// Back returns to the previous step. Collected values are kept.
func (w *Wizard) Back() {
	if w.step > StepLicense {
		w.step--
	}
}

// SubmitLicense records the primary license type and advances.
func (w *Wizard) SubmitLicense(licenseType string) error {
	if err := w.expect(StepLicense); err != nil {
		return err
	}
	if strings.TrimSpace(licenseType) == "" {
		return users.FieldErrors{"primaryLicenseType": "this field is required"}
	}
	w.data.PrimaryLicenseType = licenseType
	w.step = StepRegion
	return nil
}

// SubmitRegion records the resident state and license number.
func (w *Wizard) SubmitRegion(residentState, licenseNumber string) error {
	if err := w.expect(StepRegion); err != nil {
		return err
	}
	fe := users.FieldErrors{}
	if strings.TrimSpace(residentState) == "" {
		fe["residentState"] = "this field is required"
	}
	if strings.TrimSpace(licenseNumber) == "" {
		fe["licenseNumber"] = "this field is required"
	}
	if !fe.Valid() {
		return fe
	}
	w.data.ResidentState = residentState
	w.data.LicenseNumber = licenseNumber
	w.step = StepHistory
	return nil
}

// SubmitHistory records licensing history. The current company is
// optional; new agents may not have one.
func (w *Wizard) SubmitHistory(yearsLicensed int, currentCompany string) error {
	if err := w.expect(StepHistory); err != nil {
		return err
	}
	if yearsLicensed < 0 {
		return users.FieldErrors{"yearsLicensed": "must be zero or more"}
	}
	w.data.YearsLicensed = yearsLicensed
	w.data.CurrentCompany = currentCompany
	w.step = StepProducts
	return nil
}

// SubmitProducts records prior products sold and moves to review. An
// empty selection is allowed.
func (w *Wizard) SubmitProducts(products []string) error {
	if err := w.expect(StepProducts); err != nil {
		return err
	}
	w.data.PriorProductsSold = products
	w.step = StepReview
	return nil
}

// Complete builds the profile update from the collected data. Only legal
// once every step has been submitted.
func (w *Wizard) Complete() (ProfileUpdate, error) {
	if w.step != StepReview {
		return ProfileUpdate{}, errors.Wrap(WizardIncompleteErr, w.step.String())
	}
	update := ProfileUpdate{
		PrimaryLicenseType: utils.Ptr(w.data.PrimaryLicenseType),
		ResidentState:      utils.Ptr(w.data.ResidentState),
		LicenseNumber:      utils.Ptr(w.data.LicenseNumber),
		YearsLicensed:      utils.Ptr(w.data.YearsLicensed),
		CurrentCompany:     utils.PtrIfNotEmpty(w.data.CurrentCompany),
	}
	if len(w.data.PriorProductsSold) > 0 {
		update.PriorProductsSold = utils.Ptr(strings.Join(w.data.PriorProductsSold, ", "))
	}
	return update, nil
}

func (w *Wizard) expect(step Step) error {
	if w.step != step {
		return errors.Wrapf(WizardStepErr, "at %s, expected %s", w.step, step)
	}
	return nil
}

// FinishOnboarding submits the completed wizard as a profile update for
// the given user.
func (s *Service) FinishOnboarding(ctx context.Context, userID string, wizard *Wizard) (*users.User, error) {
	update, err := wizard.Complete()
	if err != nil {
		return nil, err
	}
	updated, err := s.api.UpdateProfile(ctx, userID, update)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.FinishOnboarding] UpdateProfile")
	}
	s.log.Info().Str("user_id", userID).Msg("Onboarding completed")
	return updated, nil
}
