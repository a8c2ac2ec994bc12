package config

import (
	"os"
	"time"
)

const (
	apiURLEnvVar  = "NEXUS_API_URL"
	appNameVar    = "NEXUS_APP_NAME"
	folderEnvVar  = "NEXUS_DATA_FOLDER"
	timeoutEnvVar = "NEXUS_REQUEST_TIMEOUT"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "CRM Nexus")
}

// GetAPIBaseURL returns the backend base URL including the version prefix,
// e.g. "http://localhost:3002/api/v1".
func (EnvVars) GetAPIBaseURL() string {
	return GetEnv(apiURLEnvVar, "http://localhost:3002/api/v1")
}

func (EnvVars) GetDataFolder() string {
	if folder := GetEnv(folderEnvVar, ""); folder != "" {
		return folder
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.nexus"
	}
	return home + "/.nexus"
}

func (EnvVars) GetRequestTimeout() time.Duration {
	return GetDurationEnv(timeoutEnvVar, 30*time.Second)
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetDurationEnv(envVar string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
