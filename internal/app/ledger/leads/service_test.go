package leads

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jsong1004/ai-service/internal/app/store/activity"
	"github.com/jsong1004/ai-service/internal/app/system/actor"
	"github.com/jsong1004/ai-service/internal/domain/derrors"
	"github.com/jsong1004/ai-service/internal/domain/models"
	"github.com/jsong1004/ai-service/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (*Service, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewService(db, zap.NewNop()), db
}

func affiliateActor(affID primitive.ObjectID) actor.Actor {
	return actor.Actor{UserID: primitive.NewObjectID(), Role: models.RoleAffiliate, Name: "Aff", AffiliateID: affID}
}

func TestCreateLead(t *testing.T) {
	svc, db := newTestService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixed := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	svc.nowFn = func() time.Time { return fixed }

	affID := primitive.NewObjectID()
	res, err := svc.CreateLead(ctx, affiliateActor(affID), CreateLeadInput{
		CompanyName:    " Initech ",
		ContactPerson:  "Bill Lumbergh",
		Email:          "Bill@Initech.test",
		EstimatedValue: 12000,
		Notes:          "<b>Met at</b> expo",
	})
	require.NoError(t, err)

	client, err := svc.clients.GetByID(ctx, res.ClientID)
	require.NoError(t, err)
	assert.Equal(t, "Initech", client.CompanyName)
	assert.Equal(t, models.ClientLead, client.Status)
	require.NotNil(t, client.AffiliateID)
	assert.Equal(t, affID, *client.AffiliateID)

	neg, err := svc.negotiations.GetByID(ctx, res.NegotiationID)
	require.NoError(t, err)
	assert.Equal(t, models.StageLead, neg.Stage)
	assert.Equal(t, models.DefaultProbability, neg.Probability)
	assert.Equal(t, 12000.0, neg.EstimatedValue)
	assert.Equal(t, int64(1), neg.Version)
	require.NotNil(t, neg.LastContactDate)
	assert.True(t, neg.LastContactDate.Equal(fixed))
	require.Len(t, neg.Notes, 1)
	assert.Equal(t, "Met at expo", neg.Notes[0].Text)

	events, err := activity.New(db).ListByAffiliate(ctx, affID, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, activity.EventLeadCreated, events[0].EventType)
}

func TestCreateLead_RoundsEstimatedValueToCents(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	res, err := svc.CreateLead(ctx, affiliateActor(primitive.NewObjectID()), CreateLeadInput{
		CompanyName:    "Globex",
		ContactPerson:  "Hank Scorpio",
		Email:          "hank@globex.test",
		EstimatedValue: 1.0/3 + 100,
	})
	require.NoError(t, err)

	neg, err := svc.negotiations.GetByID(ctx, res.NegotiationID)
	require.NoError(t, err)
	assert.Equal(t, 100.33, neg.EstimatedValue)
}

func TestCreateLead_Validation(t *testing.T) {
	svc, db := newTestService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := affiliateActor(primitive.NewObjectID())

	_, err := svc.CreateLead(ctx, a, CreateLeadInput{CompanyName: "X", ContactPerson: "  ", Email: "x@y.co"})
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.CreateLead(ctx, a, CreateLeadInput{CompanyName: "X", ContactPerson: "Y", Email: "x@y.co", EstimatedValue: -5})
	assert.ErrorIs(t, err, derrors.ErrInvalidInput)

	n, err := db.Collection("clients").CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.Zero(t, n, "no client should be written for rejected input")
}

func TestCreateLead_RequiresAffiliate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	in := CreateLeadInput{CompanyName: "X", ContactPerson: "Y", Email: "x@y.co"}

	_, err := svc.CreateLead(ctx, actor.Actor{}, in)
	assert.ErrorIs(t, err, derrors.ErrUnauthenticated)

	client := actor.Actor{UserID: primitive.NewObjectID(), Role: models.RoleClient}
	_, err = svc.CreateLead(ctx, client, in)
	assert.ErrorIs(t, err, derrors.ErrForbidden)
}

func TestCreateLead_NegotiationFailureLeavesNoClient(t *testing.T) {
	svc, db := newTestService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// A validator that rejects every negotiation forces the second write to fail.
	err := db.CreateCollection(ctx, "negotiations")
	require.NoError(t, err)
	err = db.RunCommand(ctx, bson.D{
		{Key: "collMod", Value: "negotiations"},
		{Key: "validator", Value: bson.M{"stage": "never-matches"}},
		{Key: "validationAction", Value: "error"},
	}).Err()
	require.NoError(t, err)

	_, err = svc.CreateLead(ctx, affiliateActor(primitive.NewObjectID()), CreateLeadInput{
		CompanyName: "Half", ContactPerson: "Made", Email: "half@made.test",
	})
	require.Error(t, err)

	n, err := db.Collection("clients").CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.Zero(t, n, "client must be rolled back when the negotiation write fails")
}

func TestListNegotiations_JoinsClientsAndScopes(t *testing.T) {
	svc, db := newTestService(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	affID := primitive.NewObjectID()
	c1 := fixtures.CreateClient(ctx, "First Co", &affID)
	base := time.Now().UTC().Add(-time.Hour)
	n1 := fixtures.CreateNegotiation(ctx, c1.ID, affID, models.StageLead, 100, base)
	n2 := fixtures.CreateNegotiation(ctx, primitive.NewObjectID(), affID, models.StageProposal, 200, base.Add(time.Minute))

	otherAff := primitive.NewObjectID()
	fixtures.CreateNegotiation(ctx, primitive.NewObjectID(), otherAff, models.StageLead, 300, base)

	// Asking for another affiliate's id is ignored for affiliates.
	views, err := svc.ListNegotiations(ctx, affiliateActor(affID), otherAff)
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, n2.ID, views[0].ID)
	assert.Nil(t, views[0].Client, "missing client degrades to nil, not an error")
	assert.Equal(t, n1.ID, views[1].ID)
	require.NotNil(t, views[1].Client)
	assert.Equal(t, "First Co", views[1].Client.CompanyName)

	admin := actor.Actor{UserID: primitive.NewObjectID(), Role: models.RoleAdmin}
	views, err = svc.ListNegotiations(ctx, admin, otherAff)
	require.NoError(t, err)
	assert.Len(t, views, 1)

	_, err = svc.ListNegotiations(ctx, admin, primitive.NilObjectID)
	assert.ErrorIs(t, err, derrors.ErrInvalidInput)
}

func TestUpdateStage(t *testing.T) {
	svc, db := newTestService(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	affID := primitive.NewObjectID()
	n := fixtures.CreateNegotiation(ctx, primitive.NewObjectID(), affID, models.StageLead, 0, time.Now().UTC())
	a := affiliateActor(affID)

	got, err := svc.UpdateStage(ctx, a, n.ID, StageChange{Stage: " Closed-Won ", ExpectedVersion: 1, Note: "signed"})
	require.NoError(t, err)
	assert.Equal(t, models.StageClosedWon, got.Stage)
	assert.Equal(t, int64(2), got.Version)
	require.Len(t, got.Notes, 1)
	assert.Equal(t, models.NoteStageChange, got.Notes[0].Type)

	// Backwards moves are allowed.
	got, err = svc.UpdateStage(ctx, a, n.ID, StageChange{Stage: "lead", ExpectedVersion: 2})
	require.NoError(t, err)
	assert.Equal(t, models.StageLead, got.Stage)
	assert.Len(t, got.Notes, 1, "no note appended when none given")
}

func TestUpdateStage_Errors(t *testing.T) {
	svc, db := newTestService(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	affID := primitive.NewObjectID()
	n := fixtures.CreateNegotiation(ctx, primitive.NewObjectID(), affID, models.StageLead, 0, time.Now().UTC())
	a := affiliateActor(affID)

	_, err := svc.UpdateStage(ctx, a, n.ID, StageChange{Stage: "won", ExpectedVersion: 1})
	assert.ErrorIs(t, err, ErrBadStage)

	_, err = svc.UpdateStage(ctx, a, n.ID, StageChange{Stage: "proposal"})
	assert.ErrorIs(t, err, ErrVersionRequired)

	_, err = svc.UpdateStage(ctx, a, n.ID, StageChange{Stage: "proposal", ExpectedVersion: 7})
	assert.ErrorIs(t, err, derrors.ErrVersionConflict)

	other := affiliateActor(primitive.NewObjectID())
	_, err = svc.UpdateStage(ctx, other, n.ID, StageChange{Stage: "proposal", ExpectedVersion: 1})
	assert.ErrorIs(t, err, derrors.ErrNotFound)

	admin := actor.Actor{UserID: primitive.NewObjectID(), Role: models.RoleAdmin}
	_, err = svc.UpdateStage(ctx, admin, n.ID, StageChange{Stage: "proposal", ExpectedVersion: 1})
	assert.NoError(t, err)
}

func TestUpdateStage_ConcurrentWritersOneWins(t *testing.T) {
	svc, db := newTestService(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	affID := primitive.NewObjectID()
	n := fixtures.CreateNegotiation(ctx, primitive.NewObjectID(), affID, models.StageLead, 0, time.Now().UTC())
	a := affiliateActor(affID)

	const writers = 8
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		go func(stage models.Stage) {
			_, err := svc.UpdateStage(context.Background(), a, n.ID, StageChange{Stage: string(stage), ExpectedVersion: 1})
			errs <- err
		}(models.Stages[i%len(models.Stages)])
	}

	wins := 0
	for i := 0; i < writers; i++ {
		err := <-errs
		switch {
		case err == nil:
			wins++
		case errors.Is(err, derrors.ErrVersionConflict):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)

	stored, err := svc.negotiations.GetByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Version)
}
