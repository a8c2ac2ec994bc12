package config

import "time"

const (
	refreshIntervalEnvVar = "NEXUS_REFRESH_INTERVAL"
	refreshMarginEnvVar   = "NEXUS_REFRESH_MARGIN"
)

type SessionVars struct{}

var _ SessionConfig = SessionVars{}

// GetRefreshInterval is the cadence of the background token check.
func (SessionVars) GetRefreshInterval() time.Duration {
	return GetDurationEnv(refreshIntervalEnvVar, 30*time.Minute)
}

// GetRefreshMargin is the remaining access-token lifetime under which the
// background check refreshes proactively.
func (SessionVars) GetRefreshMargin() time.Duration {
	return GetDurationEnv(refreshMarginEnvVar, time.Hour)
}
