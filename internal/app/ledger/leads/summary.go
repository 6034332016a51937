package leads

import (
	"math"

	"github.com/jsong1004/ai-service/internal/app/system/money"
	"github.com/jsong1004/ai-service/internal/domain/models"
)

// Summary is the pipeline rollup shown above a negotiation list.
type Summary struct {
	TotalCount     int     `json:"totalCount"`
	AverageValue   float64 `json:"averageValue"`
	ConversionRate int     `json:"conversionRate"`
	// StageDistribution omits stages with no negotiations.
	StageDistribution map[models.Stage]int `json:"stageDistribution"`
}

// Summarize computes the rollup for a set of negotiations.
func Summarize(negs []models.Negotiation) Summary {
	sum := Summary{
		TotalCount:        len(negs),
		StageDistribution: map[models.Stage]int{},
	}
	if len(negs) == 0 {
		return sum
	}

	var total money.Accumulator
	won := 0
	for _, n := range negs {
		total.Add(n.EstimatedValue)
		sum.StageDistribution[n.Stage]++
		if n.Stage == models.StageClosedWon {
			won++
		}
	}

	sum.AverageValue = money.Round(money.Ratio(total.Value(), float64(len(negs))))
	sum.ConversionRate = ConversionRate(won, len(negs))
	return sum
}

// ConversionRate returns round(100 * won / total), or 0 when total is 0.
func ConversionRate(won, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(won) / float64(total)))
}

// SummarizeViews is Summarize over joined views.
func SummarizeViews(views []NegotiationView) Summary {
	negs := make([]models.Negotiation, len(views))
	for i, v := range views {
		negs[i] = v.Negotiation
	}
	return Summarize(negs)
}
