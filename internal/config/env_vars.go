package config

import (
	"fmt"
	"os"
)

const (
	portEnvVar = "PORT"
	appNameVar = "APP_NAME"
	demoEnvVar = "DEMO_MODE"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Venus Auth")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// IsDemoMode reports whether demo-only behaviour (surfacing the issuer's
// demo passcode) is enabled. Never enabled in PROD regardless of the flag.
func (e EnvVars) IsDemoMode() bool {
	if e.GetEnv() == "PROD" {
		return false
	}
	return GetEnv(demoEnvVar, "false") == "true"
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
