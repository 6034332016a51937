// Package admin holds the staff-only operations: generating contracts,
// moving commissions through their workflow and managing affiliates.
package admin

import (
	report "github.com/jsong1004/ai-service/internal/app/analytics"
	uierrors "github.com/jsong1004/ai-service/internal/app/features/errors"
	ledger "github.com/jsong1004/ai-service/internal/app/ledger/contracts"
	"github.com/jsong1004/ai-service/internal/app/store/activity"
	affiliatestore "github.com/jsong1004/ai-service/internal/app/store/affiliates"
	loginstore "github.com/jsong1004/ai-service/internal/app/store/logins"
	userstore "github.com/jsong1004/ai-service/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Ledger     *ledger.Service
	Reports    *report.Service
	Affiliates *affiliatestore.Store
	Users      *userstore.Store
	Logins     *loginstore.Store
	Activity   *activity.Store
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Ledger:     ledger.NewService(db, logger),
		Reports:    report.NewService(db),
		Affiliates: affiliatestore.New(db),
		Users:      userstore.New(db),
		Logins:     loginstore.New(db),
		Activity:   activity.New(db),
		ErrLog:     errLog,
		Log:        logger,
	}
}
