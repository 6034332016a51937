package apiresp_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jsong1004/ai-service/internal/app/system/apiresp"
	"github.com/jsong1004/ai-service/internal/domain/derrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{fmt.Errorf("%w: companyName is required", derrors.ErrInvalidInput), http.StatusBadRequest},
		{derrors.ErrUnauthenticated, http.StatusUnauthorized},
		{derrors.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("negotiation: %w", derrors.ErrNotFound), http.StatusNotFound},
		{derrors.ErrVersionConflict, http.StatusConflict},
		{derrors.ErrInvalidTransition, http.StatusConflict},
		{derrors.ErrConflict, http.StatusConflict},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		got, _ := apiresp.Status(tt.err)
		assert.Equal(t, tt.want, got, "error: %v", tt.err)
	}
}

type leadBody struct {
	CompanyName string  `json:"companyName" validate:"required"`
	Email       string  `json:"email" validate:"required,email"`
	Value       float64 `json:"estimatedValue" validate:"gte=0"`
}

func TestDecode_ValidBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"companyName":"Acme","email":"a@acme.io","estimatedValue":10}`))
	var body leadBody
	require.NoError(t, apiresp.Decode(req, &body))
	assert.Equal(t, "Acme", body.CompanyName)
}

func TestDecode_ReportsJSONFieldNames(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"nope","estimatedValue":-1}`))
	var body leadBody
	err := apiresp.Decode(req, &body)
	require.Error(t, err)

	var ve *apiresp.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "companyName")
	assert.Contains(t, ve.Fields, "email")
	assert.Contains(t, ve.Fields, "estimatedValue")
	assert.ErrorIs(t, err, derrors.ErrInvalidInput)
}

func TestDecode_Malformed(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{`))
	var body leadBody
	err := apiresp.Decode(req, &body)
	assert.ErrorIs(t, err, derrors.ErrInvalidInput)
}

func TestWriteValidation(t *testing.T) {
	rec := httptest.NewRecorder()
	apiresp.WriteValidation(rec, &apiresp.ValidationError{Fields: map[string]string{"email": "is required"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"is required"`)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
