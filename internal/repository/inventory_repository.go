// internal/repository/inventory_repository.go
package repository

import (
	"context"
	"time"

	"github.com/avicolarenzo/replenish-go/internal/domain"
)

// InventoryRepository reads and writes daily inventory records. The analysis
// engine only ever reads through it; records are never mutated by a forecast
// run.
type InventoryRepository interface {
	Insert(ctx context.Context, record *domain.Record) error
	BulkInsert(ctx context.Context, records []domain.Record) (int, error)
	List(ctx context.Context, filter domain.RecordFilter) ([]domain.Record, int, error)

	// SelectForAnalysis returns the record window for a forecast run,
	// ascending by date, capped at limit when no filter is set.
	SelectForAnalysis(ctx context.Context, req domain.AnalysisRequest, limit int) ([]domain.Record, error)

	// TrailingWindowStats sums sales and averages losses over [from, to].
	TrailingWindowStats(ctx context.Context, from, to time.Time) (domain.WindowStats, error)

	// MonthlySales sums sales for one calendar month of one year.
	MonthlySales(ctx context.Context, year int, month time.Month) (float64, error)
}
