package config

import "time"

type Config interface {
	EnvConfig
	SessionConfig
}

type EnvConfig interface {
	GetAppName() string
	GetAPIBaseURL() string
	GetDataFolder() string
	GetRequestTimeout() time.Duration
	GetEnv() string
}

// SessionConfig controls the token refresh loop: how often the background
// check runs and how much remaining lifetime triggers a proactive refresh.
type SessionConfig interface {
	GetRefreshInterval() time.Duration
	GetRefreshMargin() time.Duration
}

type mainConfig struct {
	EnvVars
	SessionVars
}

func New() Config {
	return mainConfig{}
}
