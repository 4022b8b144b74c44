// internal/service/fakes_test.go
package service

import (
	"context"
	"errors"
	"time"

	"github.com/avicolarenzo/replenish-go/internal/domain"
	"github.com/avicolarenzo/replenish-go/internal/storage"
)

type fakeInventoryRepo struct {
	records []domain.Record

	inserted     []domain.Record
	bulkInserted []domain.Record
	listFilter   domain.RecordFilter
	analysisReq  domain.AnalysisRequest
	trailingFrom time.Time
	trailingTo   time.Time

	windowStats   domain.WindowStats
	monthlySales  float64
	insertErr     error
	bulkInsertErr error
	selectErr     error
}

func (f *fakeInventoryRepo) Insert(ctx context.Context, record *domain.Record) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, *record)
	return nil
}

func (f *fakeInventoryRepo) BulkInsert(ctx context.Context, records []domain.Record) (int, error) {
	if f.bulkInsertErr != nil {
		return 0, f.bulkInsertErr
	}
	f.bulkInserted = append(f.bulkInserted, records...)
	return len(records), nil
}

func (f *fakeInventoryRepo) List(ctx context.Context, filter domain.RecordFilter) ([]domain.Record, int, error) {
	f.listFilter = filter
	return f.records, len(f.records), nil
}

func (f *fakeInventoryRepo) SelectForAnalysis(ctx context.Context, req domain.AnalysisRequest, limit int) ([]domain.Record, error) {
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	f.analysisReq = req
	return f.records, nil
}

func (f *fakeInventoryRepo) TrailingWindowStats(ctx context.Context, from, to time.Time) (domain.WindowStats, error) {
	f.trailingFrom, f.trailingTo = from, to
	return f.windowStats, nil
}

func (f *fakeInventoryRepo) MonthlySales(ctx context.Context, year int, month time.Month) (float64, error) {
	return f.monthlySales, nil
}

type fakeReportCache struct {
	stored      map[string]*domain.ReplenishmentReport
	hit         *domain.ReplenishmentReport
	invalidated int
	getErr      error
	setErr      error
}

func newFakeReportCache() *fakeReportCache {
	return &fakeReportCache{stored: map[string]*domain.ReplenishmentReport{}}
}

func (f *fakeReportCache) Get(ctx context.Context, req domain.AnalysisRequest) (*domain.ReplenishmentReport, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	if f.hit != nil {
		return f.hit, true, nil
	}
	return nil, false, nil
}

func (f *fakeReportCache) Set(ctx context.Context, req domain.AnalysisRequest, report *domain.ReplenishmentReport) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.stored["last"] = report
	return nil
}

func (f *fakeReportCache) InvalidateAll(ctx context.Context) error {
	f.invalidated++
	return nil
}

type fakeForecastRepo struct {
	savedPoints  []domain.ForecastPoint
	savedVersion string
	history      []domain.ForecastRecord
	saveErr      error
}

func (f *fakeForecastRepo) SaveRun(ctx context.Context, points []domain.ForecastPoint, modelVersion string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedPoints = points
	f.savedVersion = modelVersion
	return nil
}

func (f *fakeForecastRepo) History(ctx context.Context, page, pageSize int) ([]domain.ForecastRecord, int, error) {
	return f.history, len(f.history), nil
}

type fakeForecaster struct {
	output []byte
	err    error
	mode   string
	ran    bool
}

func (f *fakeForecaster) Run(ctx context.Context, records []domain.Record, mode string) ([]byte, error) {
	f.ran = true
	f.mode = mode
	if f.err != nil {
		return nil, f.err
	}
	return f.output, nil
}

type fakeArchive struct {
	keys      []string
	uploaded  [][]byte
	uploadErr error
}

func (f *fakeArchive) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.keys = append(f.keys, key)
	f.uploaded = append(f.uploaded, data)
	return nil
}

func (f *fakeArchive) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	return nil, errors.New("not implemented")
}
