package errors_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	errorsfeature "github.com/jsong1004/ai-service/internal/app/features/errors"
	"github.com/jsong1004/ai-service/internal/domain/derrors"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRespond_ServerErrorIsMaskedAndLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	el := errorsfeature.NewErrorLogger(zap.New(core))

	req := httptest.NewRequest("GET", "/api/contracts", nil)
	rec := httptest.NewRecorder()
	el.Respond(rec, req, "list contracts failed", errors.New("mongo: socket closed"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "socket closed") {
		t.Error("internal error detail leaked to the caller")
	}
	if logs.FilterMessage("list contracts failed").Len() != 1 {
		t.Error("expected the server error to be logged once")
	}
}

func TestRespond_NotFound(t *testing.T) {
	el := errorsfeature.NewErrorLogger(zap.NewNop())

	req := httptest.NewRequest("GET", "/api/negotiations/x", nil)
	rec := httptest.NewRecorder()
	el.Respond(rec, req, "load negotiation", fmt.Errorf("negotiation: %w", derrors.ErrNotFound))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestRespond_Conflict(t *testing.T) {
	el := errorsfeature.NewErrorLogger(zap.NewNop())

	req := httptest.NewRequest("PATCH", "/api/negotiations/x/stage", nil)
	rec := httptest.NewRecorder()
	el.Respond(rec, req, "update stage", derrors.ErrVersionConflict)

	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "version_conflict") {
		t.Errorf("expected version_conflict code, got %s", rec.Body.String())
	}
}

func TestNotFoundHandler(t *testing.T) {
	h := errorsfeature.NewHandler()
	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest("GET", "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
