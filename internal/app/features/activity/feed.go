// internal/app/features/activity/feed.go
package activity

import (
	"fmt"
	"net/http"

	"github.com/jsong1004/ai-service/internal/app/features/shared"
	"github.com/jsong1004/ai-service/internal/app/store/activity"
	"github.com/jsong1004/ai-service/internal/app/system/apiresp"
	"github.com/jsong1004/ai-service/internal/app/system/timeouts"
	"github.com/jsong1004/ai-service/internal/domain/derrors"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

type feedResponse struct {
	Events []activity.Event `json:"events"`
}

// ServeFeed handles GET /api/admin/activity?limit=&affiliateId=&negotiationId=.
// A negotiation filter returns its whole history oldest first; otherwise
// events come newest first.
func (h *Handler) ServeFeed(w http.ResponseWriter, r *http.Request) {
	limit, err := shared.QueryInt(r, "limit", defaultLimit)
	if err != nil {
		h.ErrLog.Respond(w, r, "activity feed", err)
		return
	}
	if limit < 1 || limit > maxLimit {
		h.ErrLog.Respond(w, r, "activity feed", fmt.Errorf("%w: limit must be between 1 and %d", derrors.ErrInvalidInput, maxLimit))
		return
	}
	affID, err := shared.QueryID(r, "affiliateId")
	if err != nil {
		h.ErrLog.Respond(w, r, "activity feed", err)
		return
	}
	negID, err := shared.QueryID(r, "negotiationId")
	if err != nil {
		h.ErrLog.Respond(w, r, "activity feed", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "activity feed")
	defer cancel()

	var events []activity.Event
	switch {
	case !negID.IsZero():
		events, err = h.Activity.ListByNegotiation(ctx, negID)
	case !affID.IsZero():
		events, err = h.Activity.ListByAffiliate(ctx, affID, int64(limit))
	default:
		events, err = h.Activity.ListRecent(ctx, int64(limit))
	}
	if err != nil {
		h.ErrLog.Respond(w, r, "activity feed", err)
		return
	}
	if events == nil {
		events = []activity.Event{}
	}
	apiresp.JSON(w, http.StatusOK, feedResponse{Events: events})
}
