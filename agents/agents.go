// Package agents covers the admin side of agent management: paged
// listings, approval, and the onboarding wizard a freshly registered
// agent walks through.
package agents

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/crm-nexus/nexus/users"
)

// Agent is a CRM agent row in the admin listing.
type Agent struct {
	ID                 string        `json:"id"`
	FirstName          string        `json:"firstName"`
	LastName           string        `json:"lastName"`
	Email              string        `json:"email"`
	Mobile             *string       `json:"mobile,omitempty"`
	PrimaryLicenseType *string       `json:"primaryLicenseType,omitempty"`
	RegistrationType   *string       `json:"registrationType,omitempty"`
	IsApproved         bool          `json:"isApproved"`
	Status             *users.Status `json:"status,omitempty"`
	CreatedAt          time.Time     `json:"createdAt"`
}

func (a Agent) FullName() string {
	return a.FirstName + " " + a.LastName
}

// Page is the paged listing envelope the backend returns.
type Page struct {
	Data        []Agent `json:"data"`
	HasNextPage bool    `json:"hasNextPage"`
	Current     int     `json:"current"`
	Limit       int     `json:"limit"`
	Total       int     `json:"total"`
}

// ProfileUpdate is the profile mutation body, shared by the onboarding
// wizard and the settings screen.
type ProfileUpdate struct {
	FirstName          *string `json:"firstName,omitempty"`
	LastName           *string `json:"lastName,omitempty"`
	Mobile             *string `json:"mobile,omitempty"`
	PrimaryLicenseType *string `json:"primaryLicenseType,omitempty"`
	ResidentState      *string `json:"residentState,omitempty"`
	LicenseNumber      *string `json:"licenseNumber,omitempty"`
	YearsLicensed      *int    `json:"yearsLicensed,omitempty"`
	PriorProductsSold  *string `json:"priorProductsSold,omitempty"`
	CurrentCompany     *string `json:"currentCompany,omitempty"`
}

// API is the backend surface the agent service depends on.
type API interface {
	Agents(ctx context.Context, page, limit int) (*Page, error)
	PendingAgents(ctx context.Context, page, limit int) (*Page, error)
	ApproveAgent(ctx context.Context, agentID string) error
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*users.User, error)
}

const DefaultPageLimit = 10

// Service wraps the admin listing and approval operations.
type Service struct {
	api API
	log zerolog.Logger
}

type ServiceOption func(*Service)

func WithLogger(log zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = log
	}
}

func NewService(api API, options ...ServiceOption) (*Service, error) {
	if api == nil {
		return nil, errors.New("[agents.NewService] api is required")
	}
	s := &Service{api: api, log: zerolog.Nop()}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// List returns one page of all CRM agents.
func (s *Service) List(ctx context.Context, page, limit int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	result, err := s.api.Agents(ctx, page, limit)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.List] Agents")
	}
	return result, nil
}

// Pending returns one page of agents awaiting approval.
func (s *Service) Pending(ctx context.Context, page, limit int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	result, err := s.api.PendingAgents(ctx, page, limit)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Pending] PendingAgents")
	}
	return result, nil
}

// Approve flips the agent to approved.
func (s *Service) Approve(ctx context.Context, agentID string) error {
	if agentID == "" {
		return errors.New("[Service.Approve] agentID is required")
	}
	if err := s.api.ApproveAgent(ctx, agentID); err != nil {
		return errors.Wrap(err, "[Service.Approve] ApproveAgent")
	}
	s.log.Info().Str("agent_id", agentID).Msg("Agent approved")
	return nil
}
