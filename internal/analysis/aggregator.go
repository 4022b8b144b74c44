// internal/analysis/aggregator.go
package analysis

import (
	"fmt"
	"math"
	"time"

	"github.com/avicolarenzo/replenish-go/internal/domain"
)

// safetyBuffer is the fractional cushion added on top of the forecast gap
// when suggesting how much to order.
const safetyBuffer = 0.10

var monthNames = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// MonthName returns the Spanish (es-PE) name of a month for the narrative.
func MonthName(m time.Month) string {
	return monthNames[int(m)-1]
}

// ReportInput bundles everything the aggregator merges into one report:
// the parsed forecast points, the records they were produced from, and the
// historical comparison windows the repository already resolved.
type ReportInput struct {
	Points  []domain.ForecastPoint
	Records []domain.Record // chronological, the same selection sent to the model

	Trailing3MSales         float64
	Trailing3MAvgLosses     float64
	PriorYearSameMonthSales float64

	TargetMonth   time.Month
	PriorYear     int
	MonthFiltered bool
}

// BuildReport merges forecast output and historical statistics into the final
// recommendation report. Pure: every number comes from the input.
func BuildReport(in ReportInput, policy domain.ReplenishmentPolicy) *domain.ReplenishmentReport {
	var sumInv, sumPrice, sumPred float64
	for _, p := range in.Points {
		sumInv += p.AvgInventory
		sumPrice += p.PricePerKg
		sumPred += p.PredictedSales
	}

	n := len(in.Points)
	var avgInv, avgPrice, avgPred float64
	if n > 0 {
		avgInv = round2(sumInv / float64(n))
		avgPrice = round2(sumPrice / float64(n))
		avgPred = round2(sumPred / float64(n))
	}
	totalPred := round2(sumPred)
	totalInv := round2(sumInv)
	gap := round2(totalPred - totalInv)

	// Replenishment suggestion: the gap plus a 10% cushion plus the losses we
	// expect over the same number of days, based on the trailing average.
	var suggested, surplus float64
	if gap > 0 {
		lossAllowance := round2(in.Trailing3MAvgLosses * math.Max(1, float64(n)))
		suggested = math.Ceil(gap*(1+safetyBuffer) + lossAllowance)
	} else if gap < 0 {
		surplus = math.Ceil(math.Abs(gap))
	}

	report := &domain.ReplenishmentReport{
		Points:                  in.Points,
		TotalPoints:             n,
		AvgInventory:            avgInv,
		AvgPrice:                avgPrice,
		AvgPredictedSales:       avgPred,
		TotalPredictedSales:     totalPred,
		Trailing3MSales:         round2(in.Trailing3MSales),
		Trailing3MAvgLosses:     round2(in.Trailing3MAvgLosses),
		PriorYearSameMonthSales: round2(in.PriorYearSameMonthSales),
		TargetMonthName:         MonthName(in.TargetMonth),
		PriorYear:               in.PriorYear,
		SuggestedReplenishKg:    suggested,
		ExpectedSurplusKg:       surplus,
		Policy:                  policy,
		Chart:                   buildChart(in.Records),
	}
	report.Recommendations = buildRecommendations(report, avgPred, totalPred, in.MonthFiltered)
	return report
}

// buildRecommendations emits the narrative in a fixed order: trailing window,
// prior-year month, current forecast, then exactly one of the replenish or
// surplus sentences when the gap is nonzero.
func buildRecommendations(r *domain.ReplenishmentReport, avgPred, totalPred float64, monthFiltered bool) []string {
	recs := []string{
		fmt.Sprintf("Últimos 3 meses: %.2f kg vendidos; pérdidas promedio %.2f kg/día.",
			r.Trailing3MSales, r.Trailing3MAvgLosses),
		fmt.Sprintf("%s %d: %.2f kg vendidos.",
			r.TargetMonthName, r.PriorYear, r.PriorYearSameMonthSales),
	}

	if monthFiltered {
		recs = append(recs, fmt.Sprintf(
			"Predicción actual para %s: promedio %.2f kg por registro; total estimado en conjunto %.2f kg.",
			r.TargetMonthName, avgPred, totalPred))
	} else {
		recs = append(recs, fmt.Sprintf(
			"Predicción promedio actual: %.2f kg por registro; total en conjunto %.2f kg.",
			avgPred, totalPred))
	}

	if r.SuggestedReplenishKg > 0 {
		recs = append(recs, fmt.Sprintf(
			"Recomendación: abastecer al menos %.0f kg para cubrir la demanda (+10%% de colchón y pérdidas). Considera programar compras escalonadas.",
			r.SuggestedReplenishKg))
	} else if r.ExpectedSurplusKg > 0 {
		recs = append(recs, fmt.Sprintf(
			"Recomendación: se estima un excedente de %.0f kg; prioriza rotación, evalúa promociones o reduce compras en esta ventana.",
			r.ExpectedSurplusKg))
	}

	return recs
}

func buildChart(records []domain.Record) domain.ChartSeries {
	chart := domain.ChartSeries{
		Labels:    make([]string, 0, len(records)),
		Inventory: make([]float64, 0, len(records)),
		Price:     make([]float64, 0, len(records)),
	}
	for _, rec := range records {
		chart.Labels = append(chart.Labels, rec.Date.Format("2006-01-02"))
		chart.Inventory = append(chart.Inventory, rec.AvgInventory)
		chart.Price = append(chart.Price, rec.PricePerKg)
	}
	return chart
}
