// internal/service/analysis_service.go
package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/avicolarenzo/replenish-go/internal/analysis"
	"github.com/avicolarenzo/replenish-go/internal/cache"
	"github.com/avicolarenzo/replenish-go/internal/domain"
	"github.com/avicolarenzo/replenish-go/internal/forecast"
	"github.com/avicolarenzo/replenish-go/internal/repository"
)

// ErrNoRecords means the selected window holds nothing to forecast from.
var ErrNoRecords = errors.New("no inventory records match the requested window")

// defaultAnalysisLimit caps the record selection when no filter is supplied.
const defaultAnalysisLimit = 100

type AnalysisService struct {
	records      repository.InventoryRepository
	forecasts    repository.ForecastRepository
	forecaster   forecast.Forecaster
	cache        cache.ReportCache
	modelVersion string

	// now is swappable for tests.
	now func() time.Time
}

func NewAnalysisService(
	records repository.InventoryRepository,
	forecasts repository.ForecastRepository,
	forecaster forecast.Forecaster,
	reportCache cache.ReportCache,
	modelVersion string,
) *AnalysisService {
	return &AnalysisService{
		records:      records,
		forecasts:    forecasts,
		forecaster:   forecaster,
		cache:        reportCache,
		modelVersion: modelVersion,
		now:          time.Now,
	}
}

// Analyze runs the whole pipeline for one request: select records, invoke the
// model, interpret its output, derive the policy and merge everything into a
// report. There is no partial success: the caller gets a full report or one
// descriptive error.
func (s *AnalysisService) Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.ReplenishmentReport, error) {
	if cached, hit, err := s.cache.Get(ctx, req); err != nil {
		log.Warn().Err(err).Msg("report cache read failed")
	} else if hit {
		return cached, nil
	}

	records, err := s.records.SelectForAnalysis(ctx, req, defaultAnalysisLimit)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	raw, err := s.forecaster.Run(ctx, records, req.ChartMode)
	if err != nil {
		return nil, err
	}

	points, err := analysis.DecodePoints(raw)
	if err != nil {
		var oie *analysis.OutputInvalidError
		if errors.As(err, &oie) {
			log.Error().Str("raw_output", oie.Raw).Msg("forecast output rejected")
		}
		return nil, err
	}

	if err := s.forecasts.SaveRun(ctx, points, s.modelVersion); err != nil {
		return nil, fmt.Errorf("failed to persist forecast run: %w", err)
	}

	refDate := s.refDate(req)
	targetMonth := refDate.Month()
	if req.Month != nil {
		targetMonth = time.Month(*req.Month)
	}
	priorYear := refDate.Year() - 1

	trailing, err := s.records.TrailingWindowStats(ctx, refDate.AddDate(0, -3, 0), refDate)
	if err != nil {
		return nil, err
	}
	priorYearSales, err := s.records.MonthlySales(ctx, priorYear, targetMonth)
	if err != nil {
		return nil, err
	}

	policy := analysis.ComputePolicy(records, policyConfig(req))
	report := analysis.BuildReport(analysis.ReportInput{
		Points:                  points,
		Records:                 records,
		Trailing3MSales:         trailing.TotalSales,
		Trailing3MAvgLosses:     trailing.AvgLosses,
		PriorYearSameMonthSales: priorYearSales,
		TargetMonth:             targetMonth,
		PriorYear:               priorYear,
		MonthFiltered:           req.Month != nil,
	}, policy)

	if err := s.cache.Set(ctx, req, report); err != nil {
		log.Warn().Err(err).Msg("report cache write failed")
	}
	return report, nil
}

// History returns past forecast points, newest first.
func (s *AnalysisService) History(ctx context.Context, page, pageSize int) ([]domain.ForecastRecord, int, error) {
	return s.forecasts.History(ctx, page, pageSize)
}

// ExportForecastCSV runs the analysis and streams its forecast points as CSV.
func (s *AnalysisService) ExportForecastCSV(ctx context.Context, w io.Writer, req domain.AnalysisRequest) error {
	report, err := s.Analyze(ctx, req)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"avg_inventory", "price_per_kg", "predicted_sales", "replenish_kg", "alert"}); err != nil {
		return err
	}
	for _, p := range report.Points {
		row := []string{
			strconv.FormatFloat(p.AvgInventory, 'f', -1, 64),
			strconv.FormatFloat(p.PricePerKg, 'f', -1, 64),
			strconv.FormatFloat(p.PredictedSales, 'f', 2, 64),
			strconv.FormatFloat(p.ReplenishKg, 'f', 2, 64),
			strings.ReplaceAll(p.Alert, `"`, "''"),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	return writer.Error()
}

func (s *AnalysisService) refDate(req domain.AnalysisRequest) time.Time {
	if req.To != nil {
		return *req.To
	}
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func policyConfig(req domain.AnalysisRequest) analysis.PolicyConfig {
	cfg := analysis.PolicyConfig{}
	if req.ServiceLevel != nil {
		cfg.ServiceLevel = *req.ServiceLevel
	}
	if req.LeadTimeDays != nil {
		cfg.LeadTimeDays = *req.LeadTimeDays
	}
	return cfg
}
