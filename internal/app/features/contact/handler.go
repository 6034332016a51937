// internal/app/features/contact/handler.go
package contact

import (
	"net/http"
	"strings"

	uierrors "github.com/jsong1004/ai-service/internal/app/features/errors"
	"github.com/jsong1004/ai-service/internal/app/store/activity"
	"github.com/jsong1004/ai-service/internal/app/system/apiresp"
	"github.com/jsong1004/ai-service/internal/app/system/htmlsanitize"
	"github.com/jsong1004/ai-service/internal/app/system/mailer"
	"github.com/jsong1004/ai-service/internal/app/system/ratelimit"
	"github.com/jsong1004/ai-service/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler accepts public inquiries. Mailer may be nil, in which case
// submissions are only recorded.
type Handler struct {
	Activity    *activity.Store
	Mailer      mailer.Sender
	NotifyEmail string
	SiteName    string
	ErrLog      *uierrors.ErrorLogger
	Log         *zap.Logger
}

func NewHandler(db *mongo.Database, m mailer.Sender, notifyEmail, siteName string, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Activity:    activity.New(db),
		Mailer:      m,
		NotifyEmail: strings.TrimSpace(notifyEmail),
		SiteName:    siteName,
		ErrLog:      errLog,
		Log:         logger,
	}
}

type submitRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Company string `json:"company" validate:"max=200"`
	Phone   string `json:"phone" validate:"max=50"`
	Service string `json:"service" validate:"max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

type submitResponse struct {
	Status string `json:"status"`
}

// Submit handles POST /api/contact. The inquiry is always recorded as an
// activity; a failed notification email is logged and does not fail the
// request.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := apiresp.Decode(r, &req); err != nil {
		apiresp.WriteValidation(w, err)
		return
	}

	data := mailer.ContactData{
		SiteName: h.SiteName,
		Name:     htmlsanitize.PlainText(req.Name),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Company:  htmlsanitize.PlainText(req.Company),
		Phone:    htmlsanitize.PlainText(req.Phone),
		Service:  htmlsanitize.PlainText(req.Service),
		Message:  htmlsanitize.PlainText(req.Message),
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "contact submit")
	defer cancel()

	err := h.Activity.Create(ctx, activity.Event{
		EventType: activity.EventContactSubmitted,
		Summary:   data.Name + " <" + data.Email + ">",
		Details: map[string]any{
			"name":    data.Name,
			"email":   data.Email,
			"company": data.Company,
			"phone":   data.Phone,
			"service": data.Service,
			"message": data.Message,
			"ip":      ratelimit.ClientIP(r),
		},
	})
	if err != nil {
		h.ErrLog.Respond(w, r, "record contact submission", err)
		return
	}

	h.notify(r, data)
	apiresp.JSON(w, http.StatusAccepted, submitResponse{Status: "received"})
}

func (h *Handler) notify(r *http.Request, data mailer.ContactData) {
	if h.Mailer == nil || h.NotifyEmail == "" {
		return
	}
	email, err := mailer.BuildContactNotification(h.NotifyEmail, data)
	if err != nil {
		h.Log.Error("build contact notification", zap.Error(err))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "contact notification")
	defer cancel()
	if err := h.Mailer.Send(ctx, email); err != nil {
		h.Log.Warn("contact notification not sent", zap.String("to", h.NotifyEmail), zap.Error(err))
	}
}
