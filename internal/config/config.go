package config

type Config interface {
	EnvConfig
	AuthConfig
	StorageConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	IsDemoMode() bool
}

type AuthConfig interface {
	GetBackendURL() string
	GetAppOrigin() string
	GetSSOProviderURL() string
	GetProtectedPath() string
	GetLandingPath() string
	GetSessionSecret() string
}

type StorageConfig interface {
	GetRedisAddr() string
}

type mainConfig struct {
	EnvVars
	Auth
	Storage
}

func New() Config {
	return mainConfig{}
}
