// internal/service/analysis_service_test.go
package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avicolarenzo/replenish-go/internal/analysis"
	"github.com/avicolarenzo/replenish-go/internal/domain"
	"github.com/avicolarenzo/replenish-go/internal/forecast"
)

const modelOutput = `[
	{"avg_inventory": 1200, "price_per_kg": 8.5, "predicted_sales": 1500, "replenish_kg": 300, "alert": "reponer"},
	{"avg_inventory": 1100, "price_per_kg": 8.6, "predicted_sales": 1400, "replenish_kg": 300, "alert": ""}
]`

func analysisFixture() (*AnalysisService, *fakeInventoryRepo, *fakeForecastRepo, *fakeForecaster, *fakeReportCache) {
	repo := &fakeInventoryRepo{
		records: []domain.Record{
			{Date: time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), AvgInventory: 1200, PricePerKg: 8.5, SalesKg: 350},
			{Date: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), AvgInventory: 1100, PricePerKg: 8.6, SalesKg: 340},
		},
		windowStats:  domain.WindowStats{TotalSales: 900, AvgLosses: 5},
		monthlySales: 320.5,
	}
	forecasts := &fakeForecastRepo{}
	runner := &fakeForecaster{output: []byte(modelOutput)}
	reportCache := newFakeReportCache()

	svc := NewAnalysisService(repo, forecasts, runner, reportCache, "modelo_ventas_simple.pkl")
	svc.now = func() time.Time { return time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC) }
	return svc, repo, forecasts, runner, reportCache
}

func TestAnalyzeFullPipeline(t *testing.T) {
	svc, repo, forecasts, runner, reportCache := analysisFixture()

	report, err := svc.Analyze(context.Background(), domain.AnalysisRequest{ChartMode: forecast.ModeCompare})
	require.NoError(t, err)

	assert.True(t, runner.ran)
	assert.Equal(t, forecast.ModeCompare, runner.mode)

	assert.Equal(t, 2, report.TotalPoints)
	assert.Equal(t, 2900.0, report.TotalPredictedSales)
	assert.Equal(t, 900.0, report.Trailing3MSales)
	assert.Equal(t, 320.5, report.PriorYearSameMonthSales)
	assert.Equal(t, "julio", report.TargetMonthName)
	assert.Equal(t, 2024, report.PriorYear)

	// Defaults applied when the request leaves the policy unset.
	assert.Equal(t, analysis.DefaultServiceLevel, report.Policy.ServiceLevel)
	assert.Equal(t, analysis.DefaultLeadTimeDays, report.Policy.LeadTimeDays)

	// The run is persisted and the report cached.
	assert.Len(t, forecasts.savedPoints, 2)
	assert.Equal(t, "modelo_ventas_simple.pkl", forecasts.savedVersion)
	assert.Same(t, report, reportCache.stored["last"])

	// Trailing window ends at today's UTC midnight, three months back.
	assert.Equal(t, time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC), repo.trailingTo)
	assert.Equal(t, time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC), repo.trailingFrom)
}

func TestAnalyzeNoRecords(t *testing.T) {
	svc, repo, _, runner, _ := analysisFixture()
	repo.records = nil

	_, err := svc.Analyze(context.Background(), domain.AnalysisRequest{})
	assert.ErrorIs(t, err, ErrNoRecords)
	assert.False(t, runner.ran, "the model is not invoked without records")
}

func TestAnalyzeForecastUnavailable(t *testing.T) {
	svc, _, forecasts, runner, _ := analysisFixture()
	runner.output = nil
	runner.err = &forecast.UnavailableError{Attempted: []string{"python3 predictor.py"}}

	_, err := svc.Analyze(context.Background(), domain.AnalysisRequest{})
	var unavailable *forecast.UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Empty(t, forecasts.savedPoints, "nothing is persisted on failure")
}

func TestAnalyzeInvalidOutput(t *testing.T) {
	svc, _, forecasts, runner, _ := analysisFixture()
	runner.output = []byte(`{"error": "modelo no entrenado"}`)

	_, err := svc.Analyze(context.Background(), domain.AnalysisRequest{})
	var invalid *analysis.OutputInvalidError
	require.ErrorAs(t, err, &invalid)
	assert.Empty(t, forecasts.savedPoints)
}

func TestAnalyzeCacheHit(t *testing.T) {
	svc, _, _, runner, reportCache := analysisFixture()
	cached := &domain.ReplenishmentReport{TotalPoints: 99}
	reportCache.hit = cached

	report, err := svc.Analyze(context.Background(), domain.AnalysisRequest{})
	require.NoError(t, err)
	assert.Same(t, cached, report)
	assert.False(t, runner.ran, "a cache hit skips the model")
}

func TestAnalyzeCacheErrorFallsThrough(t *testing.T) {
	svc, _, _, runner, reportCache := analysisFixture()
	reportCache.getErr = assert.AnError

	report, err := svc.Analyze(context.Background(), domain.AnalysisRequest{})
	require.NoError(t, err)
	assert.True(t, runner.ran)
	assert.Equal(t, 2, report.TotalPoints)
}

func TestAnalyzeMonthAndPolicyOverrides(t *testing.T) {
	svc, _, _, _, _ := analysisFixture()

	month := 3
	level := 0.99
	lead := 14
	report, err := svc.Analyze(context.Background(), domain.AnalysisRequest{
		Month:        &month,
		ServiceLevel: &level,
		LeadTimeDays: &lead,
	})
	require.NoError(t, err)

	assert.Equal(t, "marzo", report.TargetMonthName)
	assert.Equal(t, 0.99, report.Policy.ServiceLevel)
	assert.Equal(t, 14, report.Policy.LeadTimeDays)
	assert.Contains(t, report.Recommendations[2], "para marzo")
}

func TestAnalyzeRefDateFromRequest(t *testing.T) {
	svc, repo, _, _, _ := analysisFixture()

	to := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	report, err := svc.Analyze(context.Background(), domain.AnalysisRequest{To: &to})
	require.NoError(t, err)

	assert.Equal(t, to, repo.trailingTo)
	assert.Equal(t, to.AddDate(0, -3, 0), repo.trailingFrom)
	assert.Equal(t, 2023, report.PriorYear)
	assert.Equal(t, "diciembre", report.TargetMonthName)
}

func TestHistoryPassthrough(t *testing.T) {
	svc, _, forecasts, _, _ := analysisFixture()
	forecasts.history = []domain.ForecastRecord{{ID: 1}, {ID: 2}}

	records, total, err := svc.History(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 2, total)
}

func TestExportForecastCSV(t *testing.T) {
	svc, _, _, _, _ := analysisFixture()

	var sb strings.Builder
	require.NoError(t, svc.ExportForecastCSV(context.Background(), &sb, domain.AnalysisRequest{}))

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "avg_inventory,price_per_kg,predicted_sales,replenish_kg,alert", lines[0])
	assert.Equal(t, "1200,8.5,1500.00,300.00,reponer", lines[1])
	assert.Equal(t, "1100,8.6,1400.00,300.00,", lines[2])
}
