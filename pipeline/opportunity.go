package pipeline

import "time"

// Stage is one discrete step of the sales funnel.
type Stage string

const (
	StageLeadsInterest Stage = "LEADS_INTEREST"
	StageProspectQuote Stage = "PROSPECT_QUOTE"
	StageAppSigned     Stage = "PROSPECT_APP_SIGNED"
	StageUnderwriting  Stage = "PROSPECT_UNDERWRITING"
	StageWonInForce    Stage = "CLIENT_WON_IN_FORCE"
	StageLost          Stage = "LOST_LOST"
)

// Stages returns the funnel stages in board order.
func Stages() []Stage {
	return []Stage{
		StageLeadsInterest,
		StageProspectQuote,
		StageAppSigned,
		StageUnderwriting,
		StageWonInForce,
		StageLost,
	}
}

func (s Stage) Valid() bool {
	switch s {
	case StageLeadsInterest, StageProspectQuote, StageAppSigned,
		StageUnderwriting, StageWonInForce, StageLost:
		return true
	}
	return false
}

// Terminal reports whether the stage ends the funnel. Won and lost deals
// cannot be dragged back into an open stage.
func (s Stage) Terminal() bool {
	return s == StageWonInForce || s == StageLost
}

// Title returns the column heading used on the board.
func (s Stage) Title() string {
	switch s {
	case StageLeadsInterest:
		return "Leads / Interest"
	case StageProspectQuote:
		return "Prospect / Quote"
	case StageAppSigned:
		return "App Signed"
	case StageUnderwriting:
		return "Underwriting"
	case StageWonInForce:
		return "Won / In Force"
	case StageLost:
		return "Lost"
	}
	return string(s)
}

// Temperature is the interest level attached to an opportunity.
type Temperature string

const (
	TemperatureHot     Temperature = "HOT"
	TemperatureWarm    Temperature = "WARM"
	TemperatureCold    Temperature = "COLD"
	TemperatureUnknown Temperature = "UNKNOWN"
)

// Contact is the contact summary embedded in opportunity payloads.
type Contact struct {
	ID          string  `json:"id"`
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Email       string  `json:"email"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
}

type Opportunity struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	Service           string      `json:"service,omitempty"`
	AccountType       string      `json:"accountType,omitempty"`
	CreateDate        time.Time   `json:"createDate"`
	ExpectedCloseDate *time.Time  `json:"expectedCloseDate,omitempty"`
	PipelineStage     Stage       `json:"pipelineStage"`
	Temperature       Temperature `json:"temperature,omitempty"`
	EstAnnualPremium  *float64    `json:"estAnnualPremium,omitempty"`
	OpportunityAmount *float64    `json:"opportunityAmount,omitempty"`
	ContactID         string      `json:"contactId"`
	AgentID           string      `json:"agentId"`
	IsLocked          bool        `json:"isLocked"`
	Contact           Contact     `json:"contact"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

// DaysOpen is the age of the opportunity in whole days at the given time.
func (o Opportunity) DaysOpen(now time.Time) int {
	if o.CreateDate.IsZero() || now.Before(o.CreateDate) {
		return 0
	}
	return int(now.Sub(o.CreateDate).Hours() / 24)
}

// StageUpdate is the payload for a stage transition.
type StageUpdate struct {
	PipelineStage Stage `json:"pipelineStage"`
}
