package activity_test

import (
	"testing"
	"time"

	"github.com/jsong1004/ai-service/internal/app/store/activity"
	"github.com/jsong1004/ai-service/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create_AutoGeneratesIDAndTimestamp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := activity.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	affID := primitive.NewObjectID()
	if err := store.Create(ctx, activity.Event{EventType: activity.EventLeadCreated, AffiliateID: &affID}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	events, err := store.ListByAffiliate(ctx, affID, 10)
	if err != nil {
		t.Fatalf("ListByAffiliate failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID.IsZero() {
		t.Error("expected ID to be generated")
	}
	if events[0].Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}
}

func TestStore_ListRecent_NewestFirstWithLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := activity.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		ev := activity.Event{
			EventType: activity.EventContactSubmitted,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Summary:   string(rune('a' + i)),
		}
		if err := store.Create(ctx, ev); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	events, err := store.ListRecent(ctx, 3)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Summary != "e" || events[2].Summary != "c" {
		t.Errorf("unexpected order: %q..%q", events[0].Summary, events[2].Summary)
	}
}

func TestStore_ListByNegotiation_OldestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := activity.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	negID := primitive.NewObjectID()
	other := primitive.NewObjectID()
	now := time.Now().UTC()

	_ = store.Create(ctx, activity.Event{EventType: activity.EventStageChanged, NegotiationID: &negID, Timestamp: now})
	_ = store.Create(ctx, activity.Event{EventType: activity.EventLeadCreated, NegotiationID: &negID, Timestamp: now.Add(-time.Minute)})
	_ = store.Create(ctx, activity.Event{EventType: activity.EventLeadCreated, NegotiationID: &other, Timestamp: now})

	events, err := store.ListByNegotiation(ctx, negID)
	if err != nil {
		t.Fatalf("ListByNegotiation failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].EventType != activity.EventLeadCreated {
		t.Errorf("expected lead_created first, got %q", events[0].EventType)
	}
}

func TestStore_EnsureIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := activity.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}
	// Idempotent.
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("second EnsureIndexes failed: %v", err)
	}
}
