// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS, logging,
// CORS, body limits). AppConfig carries everything specific to the referral
// CRM: the database, sessions and tokens, sign-in providers, mail, rate
// limits and commission defaults.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: aiservice-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Bearer tokens for API clients. Blank secret disables tokens.
	JWTSecret string
	JWTTTL    time.Duration

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string

	// BaseURL is where this API is reachable (OAuth callback); FrontendURL
	// is where browsers land after sign-in.
	BaseURL     string
	FrontendURL string

	// Email/SMTP configuration
	MailSMTPHost     string
	MailSMTPPort     int
	MailSMTPUser     string
	MailSMTPPass     string
	MailFrom         string
	MailFromName     string
	StaffNotifyEmail string // recipient of contact-form notifications; blank disables mail
	SiteName         string

	// Rate limiting for the public contact form. Blank RedisURL keeps the
	// counters in process memory.
	RedisURL          string
	ContactRateLimit  int
	ContactRateWindow time.Duration

	// Business defaults
	DefaultCommissionRate  float64 // percent, in (0,100]
	EarningsReconcileEvery time.Duration

	// Admin bootstrap: the account with this email is created or promoted
	// to admin on startup.
	AdminEmail string
}
