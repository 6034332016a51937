package shared

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jsong1004/ai-service/internal/domain/derrors"
	"github.com/jsong1004/ai-service/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPathID(t *testing.T) {
	id := primitive.NewObjectID()
	r := testutil.WithChiURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", id.Hex())
	got, err := PathID(r, "id")
	if err != nil || got != id {
		t.Errorf("PathID = %v, %v", got, err)
	}

	r = testutil.WithChiURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", "nope")
	if _, err := PathID(r, "id"); !errors.Is(err, derrors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestQueryID(t *testing.T) {
	got, err := QueryID(httptest.NewRequest(http.MethodGet, "/", nil), "affiliateId")
	if err != nil || !got.IsZero() {
		t.Errorf("absent param: %v, %v", got, err)
	}
	if _, err := QueryID(httptest.NewRequest(http.MethodGet, "/?affiliateId=xyz", nil), "affiliateId"); !errors.Is(err, derrors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestQueryInt(t *testing.T) {
	tests := []struct {
		target  string
		want    int
		wantErr bool
	}{
		{"/", 7, false},
		{"/?monthsBack=3", 3, false},
		{"/?monthsBack=-1", -1, false},
		{"/?monthsBack=three", 0, true},
	}
	for _, tt := range tests {
		got, err := QueryInt(httptest.NewRequest(http.MethodGet, tt.target, nil), "monthsBack", 7)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("%s: got %d, %v", tt.target, got, err)
		}
	}
}
