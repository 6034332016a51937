// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	activityfeature "github.com/jsong1004/ai-service/internal/app/features/activity"
	adminfeature "github.com/jsong1004/ai-service/internal/app/features/admin"
	analyticsfeature "github.com/jsong1004/ai-service/internal/app/features/analytics"
	authgooglefeature "github.com/jsong1004/ai-service/internal/app/features/authgoogle"
	commissionsfeature "github.com/jsong1004/ai-service/internal/app/features/commissions"
	contactfeature "github.com/jsong1004/ai-service/internal/app/features/contact"
	contractsfeature "github.com/jsong1004/ai-service/internal/app/features/contracts"
	errorsfeature "github.com/jsong1004/ai-service/internal/app/features/errors"
	healthfeature "github.com/jsong1004/ai-service/internal/app/features/health"
	loginfeature "github.com/jsong1004/ai-service/internal/app/features/login"
	logoutfeature "github.com/jsong1004/ai-service/internal/app/features/logout"
	negotiationsfeature "github.com/jsong1004/ai-service/internal/app/features/negotiations"
	onboardingfeature "github.com/jsong1004/ai-service/internal/app/features/onboarding"
	signupfeature "github.com/jsong1004/ai-service/internal/app/features/signup"
	userinfofeature "github.com/jsong1004/ai-service/internal/app/features/userinfo"
	userstore "github.com/jsong1004/ai-service/internal/app/store/users"
	"github.com/jsong1004/ai-service/internal/app/system/auth"
	"github.com/jsong1004/ai-service/internal/app/system/mailer"
	"github.com/jsong1004/ai-service/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. Every feature is a JSON API; the
// dashboard itself is served elsewhere (FrontendURL).
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// LoadSessionUser re-reads the user on each request, so role changes and
	// disabled accounts take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))
	if appCfg.JWTSecret != "" {
		sessionMgr.SetTokenService(auth.NewTokenService(appCfg.JWTSecret, appCfg.JWTTTL, "aiservice"))
	} else {
		logger.Warn("jwt_secret not set; bearer tokens disabled")
	}

	errLog := errorsfeature.NewErrorLogger(logger)
	db := deps.MongoDatabase

	r := chi.NewRouter()
	r.Use(sessionMgr.LoadSessionUser)

	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Redis, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	signupHandler := signupfeature.NewHandler(db, sessionMgr, errLog, logger)
	r.Mount("/signup", signupfeature.Routes(signupHandler))

	loginHandler := loginfeature.NewHandler(db, sessionMgr, nil, errLog, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	googleHandler := authgooglefeature.NewHandler(db, sessionMgr,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, appCfg.FrontendURL, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	userinfofeature.MountRoutes(r, userinfofeature.NewHandler())

	onboardingHandler := onboardingfeature.NewHandler(db, sessionMgr, appCfg.DefaultCommissionRate, errLog, logger)
	r.Mount("/api/onboarding", onboardingfeature.Routes(onboardingHandler, sessionMgr))

	// Affiliate pipeline and money
	negotiationsHandler := negotiationsfeature.NewHandler(db, errLog, logger)
	r.Mount("/api/negotiations", negotiationsfeature.Routes(negotiationsHandler, sessionMgr))

	contractsHandler := contractsfeature.NewHandler(db, errLog, logger)
	r.Mount("/api/contracts", contractsfeature.Routes(contractsHandler, sessionMgr))
	r.Mount("/api/client", contractsfeature.ClientRoutes(contractsHandler, sessionMgr))

	commissionsHandler := commissionsfeature.NewHandler(db, errLog, logger)
	r.Mount("/api/commissions", commissionsfeature.Routes(commissionsHandler, sessionMgr))
	r.Mount("/api/earnings", commissionsfeature.EarningsRoutes(commissionsHandler, sessionMgr))

	analyticsHandler := analyticsfeature.NewHandler(db, errLog, logger)
	r.Mount("/api/analytics", analyticsfeature.Routes(analyticsHandler, sessionMgr))

	// Admin
	activityHandler := activityfeature.NewHandler(db, errLog, logger)
	adminHandler := adminfeature.NewHandler(db, errLog, logger)
	r.Mount("/api/admin", adminfeature.Routes(adminHandler, sessionMgr, activityfeature.Routes(activityHandler, sessionMgr)))

	// Public lead capture
	var notify mailer.Sender
	if appCfg.StaffNotifyEmail != "" {
		notify = mailer.New(mailer.Config{
			Host:     appCfg.MailSMTPHost,
			Port:     appCfg.MailSMTPPort,
			User:     appCfg.MailSMTPUser,
			Pass:     appCfg.MailSMTPPass,
			From:     appCfg.MailFrom,
			FromName: appCfg.MailFromName,
		}, logger)
	}
	contactHandler := contactfeature.NewHandler(db, notify, appCfg.StaffNotifyEmail, appCfg.SiteName, errLog, logger)
	r.Mount("/api/contact", contactfeature.Routes(contactHandler, contactLimiter(appCfg, deps)))

	return r, nil
}

// contactLimiter shares counters through Redis when it is connected.
func contactLimiter(appCfg AppConfig, deps DBDeps) ratelimit.Checker {
	if deps.Redis != nil {
		return ratelimit.NewRedisLimiter(deps.Redis, "aiservice:contact", appCfg.ContactRateLimit, appCfg.ContactRateWindow)
	}
	return ratelimit.New(appCfg.ContactRateLimit, appCfg.ContactRateWindow)
}
