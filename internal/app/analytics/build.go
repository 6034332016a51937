// Package analytics builds the affiliate dashboard report: overview totals,
// month-over-month revenue, a monthly timeline, the stage breakdown and the
// top services. Build is a pure function of its input; Service loads the
// input from the ledgers.
package analytics

import (
	"sort"
	"time"

	"github.com/jsong1004/ai-service/internal/app/ledger/leads"
	"github.com/jsong1004/ai-service/internal/app/system/money"
	"github.com/jsong1004/ai-service/internal/domain/models"
)

// topServicesLimit caps the top services list.
const topServicesLimit = 5

// Input is everything Build reads. The slices may contain records outside
// the report window; Build filters them.
type Input struct {
	Now          time.Time
	Range        Range
	Contracts    []models.Contract
	Negotiations []models.Negotiation
	Commissions  []models.Commission
}

// Report is the analytics payload.
type Report struct {
	Range          Range           `json:"range"`
	StartDate      time.Time       `json:"startDate"`
	EndDate        time.Time       `json:"endDate"`
	Overview       Overview        `json:"overview"`
	Timeline       []MonthBucket   `json:"timeline"`
	StageBreakdown []StageSlice    `json:"stageBreakdown"`
	TopServices    []ServiceTotals `json:"topServices"`
}

// Overview holds the headline numbers for the window.
type Overview struct {
	TotalRevenue     float64 `json:"totalRevenue"`
	TotalLeads       int     `json:"totalLeads"`
	ConversionRate   int     `json:"conversionRate"`
	AverageDealSize  float64 `json:"averageDealSize"`
	TotalCommissions float64 `json:"totalCommissions"`
	ContractCount    int     `json:"contractCount"`

	CurrentMonthRevenue  float64 `json:"currentMonthRevenue"`
	PreviousMonthRevenue float64 `json:"previousMonthRevenue"`
	// RevenueChange is the month-over-month change in percent, 0 when the
	// previous month had no revenue.
	RevenueChange float64 `json:"revenueChange"`
}

// MonthBucket is one calendar month of activity.
type MonthBucket struct {
	Month       string    `json:"month"`
	Start       time.Time `json:"start"`
	Leads       int       `json:"leads"`
	Contracts   int       `json:"contracts"`
	Revenue     float64   `json:"revenue"`
	Commissions float64   `json:"commissions"`
}

// StageSlice is one stage's share of the pipeline value.
type StageSlice struct {
	Stage      models.Stage `json:"stage"`
	Count      int          `json:"count"`
	Value      float64      `json:"value"`
	Percentage float64      `json:"percentage"`
}

// ServiceTotals aggregates contracts by service name.
type ServiceTotals struct {
	Service     string  `json:"service"`
	Contracts   int     `json:"contracts"`
	Revenue     float64 `json:"revenue"`
	Commissions float64 `json:"commissions"`
}

// Build computes the report. All times are evaluated in UTC.
func Build(in Input) Report {
	now := in.Now.UTC()
	r := in.Range
	if r == "" {
		r = DefaultRange
	}
	w := WindowFor(now, r)

	var (
		contracts   []models.Contract
		negs        []models.Negotiation
		commissions []models.Commission
	)
	for _, c := range in.Contracts {
		if inWindow(c.CreatedAt.UTC(), w) {
			contracts = append(contracts, c)
		}
	}
	for _, n := range in.Negotiations {
		if inWindow(n.CreatedAt.UTC(), w) {
			negs = append(negs, n)
		}
	}
	for _, c := range in.Commissions {
		if inWindow(c.CreatedAt.UTC(), w) {
			commissions = append(commissions, c)
		}
	}

	return Report{
		Range:          r,
		StartDate:      w.Start,
		EndDate:        w.End,
		Overview:       overview(now, contracts, negs, commissions, in.Contracts),
		Timeline:       timeline(now, r.TimelineMonths(), in),
		StageBreakdown: stageBreakdown(negs),
		TopServices:    topServices(contracts),
	}
}

func overview(now time.Time, contracts []models.Contract, negs []models.Negotiation, commissions []models.Commission, allContracts []models.Contract) Overview {
	var revenue, commissionSum money.Accumulator
	for _, c := range contracts {
		revenue.Add(c.Amount)
	}
	for _, c := range commissions {
		commissionSum.Add(c.Amount)
	}

	won := 0
	for _, n := range negs {
		if n.Stage == models.StageClosedWon {
			won++
		}
	}

	o := Overview{
		TotalRevenue:     revenue.Value(),
		TotalLeads:       len(negs),
		ConversionRate:   leads.ConversionRate(won, len(negs)),
		TotalCommissions: commissionSum.Value(),
		ContractCount:    len(contracts),
	}
	if len(contracts) > 0 {
		o.AverageDealSize = money.Round(money.Ratio(o.TotalRevenue, float64(len(contracts))))
	}

	// Month-over-month uses whole calendar months regardless of the window.
	cur := monthStart(now)
	prev := cur.AddDate(0, -1, 0)
	next := cur.AddDate(0, 1, 0)
	var curRev, prevRev money.Accumulator
	for _, c := range allContracts {
		t := c.CreatedAt.UTC()
		switch {
		case inMonth(t, cur, next):
			curRev.Add(c.Amount)
		case inMonth(t, prev, cur):
			prevRev.Add(c.Amount)
		}
	}
	o.CurrentMonthRevenue = curRev.Value()
	o.PreviousMonthRevenue = prevRev.Value()
	if o.PreviousMonthRevenue > 0 {
		o.RevenueChange = money.Round(money.Percent(o.CurrentMonthRevenue-o.PreviousMonthRevenue, o.PreviousMonthRevenue))
	}
	return o
}

// timeline returns n zero-filled month buckets ending with now's month,
// oldest first.
func timeline(now time.Time, n int, in Input) []MonthBucket {
	cur := monthStart(now)
	out := make([]MonthBucket, 0, n)
	for i := n - 1; i >= 0; i-- {
		start := cur.AddDate(0, -i, 0)
		end := start.AddDate(0, 1, 0)

		b := MonthBucket{Month: start.Format("Jan 2006"), Start: start}
		var revenue, commissions money.Accumulator
		for _, neg := range in.Negotiations {
			if inMonth(neg.CreatedAt.UTC(), start, end) {
				b.Leads++
			}
		}
		for _, c := range in.Contracts {
			if inMonth(c.CreatedAt.UTC(), start, end) {
				b.Contracts++
				revenue.Add(c.Amount)
			}
		}
		for _, c := range in.Commissions {
			if inMonth(c.CreatedAt.UTC(), start, end) {
				commissions.Add(c.Amount)
			}
		}
		b.Revenue = revenue.Value()
		b.Commissions = commissions.Value()
		out = append(out, b)
	}
	return out
}

// stageBreakdown groups negotiations by stage in pipeline order. Stages
// with no negotiations are left out. Shares are taken of the sum of the
// rounded stage values so they add up to 100.
func stageBreakdown(negs []models.Negotiation) []StageSlice {
	counts := make(map[models.Stage]int, len(models.Stages))
	values := make(map[models.Stage]*money.Accumulator, len(models.Stages))
	for _, n := range negs {
		counts[n.Stage]++
		acc, ok := values[n.Stage]
		if !ok {
			acc = &money.Accumulator{}
			values[n.Stage] = acc
		}
		acc.Add(n.EstimatedValue)
	}

	out := make([]StageSlice, 0, len(counts))
	var pipeline money.Accumulator
	for _, st := range models.Stages {
		cnt, ok := counts[st]
		if !ok {
			continue
		}
		v := values[st].Value()
		pipeline.Add(v)
		out = append(out, StageSlice{Stage: st, Count: cnt, Value: v})
	}

	whole := pipeline.Value()
	for i := range out {
		out[i].Percentage = money.Percent(out[i].Value, whole)
	}
	return out
}

// topServices ranks service names by revenue. A contract counts in full
// toward every service it lists; one with no services counts toward the
// default service.
func topServices(contracts []models.Contract) []ServiceTotals {
	type agg struct {
		contracts   int
		revenue     money.Accumulator
		commissions money.Accumulator
	}
	byName := map[string]*agg{}
	for _, c := range contracts {
		for _, name := range c.ServicesOrDefault() {
			a, ok := byName[name]
			if !ok {
				a = &agg{}
				byName[name] = a
			}
			a.contracts++
			a.revenue.Add(c.Amount)
			a.commissions.Add(c.CommissionAmount)
		}
	}

	out := make([]ServiceTotals, 0, len(byName))
	for name, a := range byName {
		out = append(out, ServiceTotals{
			Service:     name,
			Contracts:   a.contracts,
			Revenue:     a.revenue.Value(),
			Commissions: a.commissions.Value(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Service < out[j].Service
	})
	if len(out) > topServicesLimit {
		out = out[:topServicesLimit]
	}
	return out
}
