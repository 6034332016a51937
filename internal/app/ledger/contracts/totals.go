package contracts

import (
	"time"

	"github.com/jsong1004/ai-service/internal/app/system/money"
	"github.com/jsong1004/ai-service/internal/domain/models"
)

// Summary is the rollup shown above a contract list.
type Summary struct {
	TotalCount     int     `json:"totalCount"`
	TotalValue     float64 `json:"totalValue"`
	ActiveCount    int     `json:"activeCount"`
	CompletedCount int     `json:"completedCount"`
}

// Summarize tallies a contract list.
func Summarize(contracts []models.Contract) Summary {
	var total money.Accumulator
	s := Summary{TotalCount: len(contracts)}
	for _, c := range contracts {
		total.Add(c.Amount)
		switch c.Status {
		case models.ContractActive:
			s.ActiveCount++
		case models.ContractCompleted:
			s.CompletedCount++
		}
	}
	s.TotalValue = total.Value()
	return s
}

// Totals is the earnings rollup over a set of commissions.
type Totals struct {
	TotalEarnings     float64 `json:"totalEarnings"`
	PendingAmount     float64 `json:"pendingAmount"`
	PaidAmount        float64 `json:"paidAmount"`
	ThisMonthEarnings float64 `json:"thisMonthEarnings"`
}

// CommissionTotals sums commissions into earnings buckets. pending and
// approved count as pending, paid as paid. ThisMonthEarnings covers
// commissions created in [first day of now's month, now).
func CommissionTotals(commissions []models.Commission, now time.Time) Totals {
	monthStart := MonthStart(now)

	var total, pending, paid, thisMonth money.Accumulator
	for _, c := range commissions {
		total.Add(c.Amount)
		switch {
		case c.IsPendingEarning():
			pending.Add(c.Amount)
		case c.Status == models.CommissionPaid:
			paid.Add(c.Amount)
		}
		if !c.CreatedAt.Before(monthStart) && c.CreatedAt.Before(now) {
			thisMonth.Add(c.Amount)
		}
	}

	return Totals{
		TotalEarnings:     total.Value(),
		PendingAmount:     pending.Value(),
		PaidAmount:        paid.Value(),
		ThisMonthEarnings: thisMonth.Value(),
	}
}

// MonthStart returns midnight on the first day of t's month, in t's location.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// MonthsBackCutoff returns the first day of the month n months before
// now's month. n=0 gives the start of the current month.
func MonthsBackCutoff(now time.Time, n int) time.Time {
	return MonthStart(now).AddDate(0, -n, 0)
}
