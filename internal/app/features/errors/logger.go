// internal/app/features/errors/logger.go
package errors

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jsong1004/ai-service/internal/app/system/apiresp"
	"github.com/jsong1004/ai-service/internal/app/system/auth"
	"go.uber.org/zap"
)

// genericMessage is all a caller ever sees for a server-side failure.
const genericMessage = "Something went wrong. Please try again."

// ErrorLogger writes error responses and logs the ones that are our fault.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

// LogServerError logs err with request context and writes a generic 500.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	e.Log.Error(msg, append(requestFields(r), zap.Error(err))...)
	apiresp.Error(w, http.StatusInternalServerError, "internal_error", genericMessage)
}

// LogBadRequest logs at debug level and writes a 400 with userMsg.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.Log.Debug(msg, append(requestFields(r), zap.Error(err))...)
	apiresp.Error(w, http.StatusBadRequest, "invalid_input", userMsg)
}

// Respond maps err to a status code and writes it. 5xx responses are
// logged and masked; 4xx responses carry err's own message.
func (e *ErrorLogger) Respond(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status, code := apiresp.Status(err)
	if status >= http.StatusInternalServerError {
		e.LogServerError(w, r, msg, err)
		return
	}
	if status == http.StatusBadRequest {
		apiresp.WriteValidation(w, err)
		return
	}
	e.Log.Debug(msg, append(requestFields(r), zap.Int("status", status), zap.Error(err))...)
	apiresp.Error(w, status, code, err.Error())
}

func requestFields(r *http.Request) []zap.Field {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if id := middleware.GetReqID(r.Context()); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if u, ok := auth.CurrentUser(r); ok {
		fields = append(fields, zap.String("user_id", u.ID))
	}
	return fields
}
