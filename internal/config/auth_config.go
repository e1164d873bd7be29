package config

// Auth holds the environment-backed endpoints and paths used by the
// authentication flows.
type Auth struct{}

var _ AuthConfig = Auth{}

// GetBackendURL returns the base URL of the application backend
// (e.g. "https://api.venus.example.com"). All cookie-mode session
// endpoints live under it.
func (Auth) GetBackendURL() string {
	return GetEnv("BACKEND_URL", "http://localhost:8000")
}

// GetAppOrigin returns the application's own origin, the single source of
// truth for building the outbound SSO redirect URL.
func (Auth) GetAppOrigin() string {
	return GetEnv("APP_ORIGIN", "http://localhost:3000")
}

// GetSSOProviderURL returns the third-party origin that resolves redirect
// session identifiers into session data.
func (Auth) GetSSOProviderURL() string {
	return GetEnv("SSO_PROVIDER_URL", "https://demobackend.emergentagent.com")
}

func (Auth) GetProtectedPath() string {
	return GetEnv("PROTECTED_PATH", "/dashboard")
}

func (Auth) GetLandingPath() string {
	return GetEnv("LANDING_PATH", "/")
}

// GetSessionSecret returns the HMAC secret used to sign the persisted
// session record.
func (Auth) GetSessionSecret() string {
	return GetEnv("SESSION_SECRET", "venus-dev-secret")
}
