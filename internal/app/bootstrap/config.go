// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for the service.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: AISERVICE_MONGO_URI, AISERVICE_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "ai_service", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "aiservice-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime"},

	// Bearer tokens
	{Name: "jwt_secret", Default: "", Desc: "HMAC secret for API bearer tokens (blank disables tokens)"},
	{Name: "jwt_ttl", Default: "24h", Desc: "Bearer token lifetime"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public URL of this API (OAuth callback base)"},
	{Name: "frontend_url", Default: "http://localhost:3000", Desc: "Dashboard URL browsers return to after sign-in"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@ai-service.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "AI Service", Desc: "From display name"},
	{Name: "staff_notify_email", Default: "", Desc: "Where contact-form submissions are sent (blank disables)"},
	{Name: "site_name", Default: "AI Service", Desc: "Name used in notification emails"},

	// Rate limiting
	{Name: "redis_url", Default: "", Desc: "Redis URL for shared rate limits (blank uses in-memory limits)"},
	{Name: "contact_rate_limit", Default: 5, Desc: "Contact form submissions allowed per IP per window"},
	{Name: "contact_rate_window", Default: "1h", Desc: "Contact form rate limit window"},

	// Business defaults
	{Name: "default_commission_rate", Default: "10", Desc: "Commission percent for newly onboarded affiliates"},
	{Name: "earnings_reconcile_every", Default: "1h", Desc: "How often cached affiliate earnings are checked against commissions"},

	// Admin bootstrap
	{Name: "admin_email", Default: "", Desc: "Email of the admin user (promotes/creates on startup)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges flags > env > files > defaults,
// reading WAFFLE_* for core and AISERVICE_* for app keys.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "AISERVICE", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 30*24*time.Hour),

		JWTSecret: appValues.String("jwt_secret"),
		JWTTTL:    appValues.Duration("jwt_ttl", 24*time.Hour),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		BaseURL:     appValues.String("base_url"),
		FrontendURL: appValues.String("frontend_url"),

		MailSMTPHost:     appValues.String("mail_smtp_host"),
		MailSMTPPort:     appValues.Int("mail_smtp_port"),
		MailSMTPUser:     appValues.String("mail_smtp_user"),
		MailSMTPPass:     appValues.String("mail_smtp_pass"),
		MailFrom:         appValues.String("mail_from"),
		MailFromName:     appValues.String("mail_from_name"),
		StaffNotifyEmail: appValues.String("staff_notify_email"),
		SiteName:         appValues.String("site_name"),

		RedisURL:          appValues.String("redis_url"),
		ContactRateLimit:  appValues.Int("contact_rate_limit"),
		ContactRateWindow: appValues.Duration("contact_rate_window", time.Hour),

		EarningsReconcileEvery: appValues.Duration("earnings_reconcile_every", time.Hour),

		AdminEmail: appValues.String("admin_email"),
	}

	rate, err := strconv.ParseFloat(appValues.String("default_commission_rate"), 64)
	if err != nil {
		return nil, AppConfig{}, fmt.Errorf("default_commission_rate: %w", err)
	}
	appCfg.DefaultCommissionRate = rate

	return coreCfg, appCfg, nil
}

// minJWTSecretLen is the HMAC-SHA256 key size.
const minJWTSecretLen = 32

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if r := appCfg.DefaultCommissionRate; r <= 0 || r > 100 {
		return fmt.Errorf("default_commission_rate must be in (0,100], got %v", r)
	}

	if appCfg.ContactRateLimit <= 0 || appCfg.ContactRateWindow <= 0 {
		return fmt.Errorf("contact_rate_limit and contact_rate_window must be positive")
	}

	if coreCfg.Env == "prod" && len(appCfg.JWTSecret) < minJWTSecretLen {
		return fmt.Errorf("jwt_secret must be at least %d bytes in prod", minJWTSecretLen)
	}

	if (appCfg.GoogleClientID == "") != (appCfg.GoogleClientSecret == "") {
		logger.Warn("google sign-in needs both client id and secret; it stays disabled")
	}

	return nil
}
