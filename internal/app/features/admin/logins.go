package admin

import (
	"fmt"
	"net/http"

	"github.com/jsong1004/ai-service/internal/app/features/shared"
	"github.com/jsong1004/ai-service/internal/app/system/apiresp"
	"github.com/jsong1004/ai-service/internal/app/system/timeouts"
	"github.com/jsong1004/ai-service/internal/domain/derrors"
)

const maxLoginHistory = 100

// UserLogins handles GET /api/admin/users/{id}/logins?limit=N.
func (h *Handler) UserLogins(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "id")
	if err != nil {
		h.ErrLog.Respond(w, r, "user logins", err)
		return
	}
	limit, err := shared.QueryInt(r, "limit", 20)
	if err == nil && (limit < 1 || limit > maxLoginHistory) {
		err = fmt.Errorf("%w: limit must be between 1 and %d", derrors.ErrInvalidInput, maxLoginHistory)
	}
	if err != nil {
		h.ErrLog.Respond(w, r, "user logins", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "user logins")
	defer cancel()

	if _, err := h.Users.GetByID(ctx, id); err != nil {
		h.ErrLog.Respond(w, r, "user logins", err)
		return
	}
	recs, err := h.Logins.ListForUser(ctx, id, int64(limit))
	if err != nil {
		h.ErrLog.Respond(w, r, "user logins", err)
		return
	}
	apiresp.JSON(w, http.StatusOK, map[string]any{"logins": recs})
}
