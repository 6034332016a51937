package commissions

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	uierrors "github.com/jsong1004/ai-service/internal/app/features/errors"
	affiliatestore "github.com/jsong1004/ai-service/internal/app/store/affiliates"
	"github.com/jsong1004/ai-service/internal/domain/models"
	"github.com/jsong1004/ai-service/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type seeded struct {
	h    *Handler
	user testutil.TestUser
}

func seed(t *testing.T) seeded {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	h := NewHandler(db, uierrors.NewErrorLogger(logger), logger)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	u, aff := fx.CreateAffiliate(ctx, "Ann", 10)
	client := fx.CreateClient(ctx, "Initech", &aff.ID)
	now := time.Now().UTC()
	old := now.AddDate(0, -8, 0)

	c1 := fx.CreateContract(ctx, "CTR-1", client.ID, &aff.ID, 1000, nil, now)
	c2 := fx.CreateContract(ctx, "CTR-2", client.ID, &aff.ID, 2000, nil, old)
	c3 := fx.CreateContract(ctx, "CTR-3", client.ID, &aff.ID, 500, nil, now)
	fx.CreateCommission(ctx, aff.ID, c1.ID, 100, 10, models.CommissionPending, now)
	fx.CreateCommission(ctx, aff.ID, c2.ID, 200, 10, models.CommissionPaid, old)
	fx.CreateCommission(ctx, aff.ID, c3.ID, 50, 10, models.CommissionApproved, now)

	return seeded{h: h, user: testutil.AffiliateUser(u.ID, aff.ID)}
}

func TestList_AllAndTotals(t *testing.T) {
	s := seed(t)
	rec := testutil.NewRecorder()
	s.h.List(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/api/commissions", s.user))
	rec.AssertStatus(t, http.StatusOK)

	var out listResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Commissions) != 3 {
		t.Fatalf("expected 3 commissions, got %d", len(out.Commissions))
	}
	if out.Totals.TotalEarnings != 350 || out.Totals.PendingAmount != 150 || out.Totals.PaidAmount != 200 {
		t.Errorf("unexpected totals: %+v", out.Totals)
	}
	for _, c := range out.Commissions {
		if c.Contract == nil {
			t.Errorf("commission %s missing contract snapshot", c.ID.Hex())
		}
	}
}

func TestList_FiltersStatusAndMonthsBack(t *testing.T) {
	s := seed(t)

	rec := testutil.NewRecorder()
	s.h.List(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/api/commissions?status=paid", s.user))
	rec.AssertStatus(t, http.StatusOK)
	var out listResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	if len(out.Commissions) != 1 || out.Commissions[0].Status != models.CommissionPaid {
		t.Errorf("status filter returned %+v", out.Commissions)
	}

	rec = testutil.NewRecorder()
	s.h.List(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/api/commissions?monthsBack=3", s.user))
	rec.AssertStatus(t, http.StatusOK)
	out = listResponse{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	if len(out.Commissions) != 2 {
		t.Errorf("monthsBack=3 returned %d rows, want 2", len(out.Commissions))
	}
}

func TestList_BadMonthsBack(t *testing.T) {
	s := seed(t)
	for _, q := range []string{"monthsBack=-1", "monthsBack=abc"} {
		rec := testutil.NewRecorder()
		s.h.List(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/api/commissions?"+q, s.user))
		rec.AssertStatus(t, http.StatusBadRequest)
	}
}

func TestEarnings(t *testing.T) {
	s := seed(t)
	rec := testutil.NewRecorder()
	s.h.Earnings(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/api/earnings", s.user))
	rec.AssertStatus(t, http.StatusOK)

	var e affiliatestore.Earnings
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e.Total != 350 || e.Pending != 150 || e.Paid != 200 {
		t.Errorf("unexpected earnings: %+v", e)
	}
}

func TestEarnings_Unauthenticated(t *testing.T) {
	s := seed(t)
	rec := testutil.NewRecorder()
	s.h.Earnings(rec, testutil.NewRequest(http.MethodGet, "/api/earnings"))
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestEarnings_OtherAffiliateIDIgnored(t *testing.T) {
	s := seed(t)
	rec := testutil.NewRecorder()
	s.h.Earnings(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/api/earnings?affiliateId="+primitive.NewObjectID().Hex(), s.user))
	rec.AssertStatus(t, http.StatusOK)

	var e affiliatestore.Earnings
	_ = json.Unmarshal(rec.Body.Bytes(), &e)
	if e.Total != 350 {
		t.Errorf("affiliate should always see its own earnings, got %+v", e)
	}
}
