// internal/app/features/activity/export.go
package activity

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jsong1004/ai-service/internal/app/store/activity"
	"github.com/jsong1004/ai-service/internal/app/system/authz"
	"github.com/jsong1004/ai-service/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeEventsCSV exports activity events in a date range as CSV.
func (h *Handler) ServeEventsCSV(w http.ResponseWriter, r *http.Request) {
	_, userName, _, _ := authz.UserCtx(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "events CSV export")
	defer cancel()

	startDate, endDate := parseDateRange(r, time.Now().UTC())
	rows, err := h.Activity.ListBetween(ctx, startDate, endDate)
	if err != nil {
		h.ErrLog.Respond(w, r, "fetch events for export failed", err)
		return
	}

	filename := fmt.Sprintf("activity_events_%s_%s.csv", startDate.Format("20060102"), endDate.Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, url.PathEscape(filename)))

	// UTF-8 BOM for Excel
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		h.Log.Error("CSV write failed (BOM)", zap.Error(err))
		return
	}

	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	defer cw.Flush()

	if err := cw.Write([]string{"timestamp", "event_type", "actor_role", "affiliate_id", "client_id", "negotiation_id", "contract_id", "commission_id", "summary", "details"}); err != nil {
		h.Log.Error("CSV write failed (header)", zap.Error(err))
		return
	}

	for _, ev := range rows {
		if err := cw.Write(eventRecord(ev)); err != nil {
			h.Log.Error("CSV write failed (row)", zap.Error(err))
			return
		}
	}

	h.Log.Info("events CSV exported", zap.String("user", userName), zap.Int("rows", len(rows)))
}

func eventRecord(ev activity.Event) []string {
	details := ""
	if len(ev.Details) > 0 {
		if b, err := json.Marshal(ev.Details); err == nil {
			details = string(b)
		}
	}
	return []string{
		ev.Timestamp.UTC().Format(time.RFC3339),
		ev.EventType,
		ev.ActorRole,
		hexOrEmpty(ev.AffiliateID),
		hexOrEmpty(ev.ClientID),
		hexOrEmpty(ev.NegotiationID),
		hexOrEmpty(ev.ContractID),
		hexOrEmpty(ev.CommissionID),
		sanitizeCSVField(ev.Summary),
		sanitizeCSVField(details),
	}
}

func hexOrEmpty(id *primitive.ObjectID) string {
	if id == nil {
		return ""
	}
	return id.Hex()
}

// parseDateRange reads start and end (YYYY-MM-DD) and defaults to the last
// 30 days. end covers its whole day.
func parseDateRange(r *http.Request, now time.Time) (time.Time, time.Time) {
	endDate := now
	startDate := endDate.AddDate(0, 0, -30)

	if s := r.URL.Query().Get("start"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			startDate = t
		}
	}
	if e := r.URL.Query().Get("end"); e != "" {
		if t, err := time.Parse("2006-01-02", e); err == nil {
			endDate = t.Add(24*time.Hour - time.Second)
		}
	}

	return startDate, endDate
}

// sanitizeCSVField neutralises spreadsheet formula injection.
func sanitizeCSVField(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@':
		return "'" + s
	}
	return s
}
