package pipeline

import "errors"

var (
	LoadErr                = errors.New("failed to load opportunities")
	UnknownStageErr        = errors.New("unknown pipeline stage")
	StageTerminalErr       = errors.New("opportunity is in a terminal stage")
	OpportunityNotFoundErr = errors.New("opportunity not found")
	OpportunityLockedErr   = errors.New("opportunity is locked")
)
