// internal/repository/forecast_repository.go
package repository

import (
	"context"

	"github.com/avicolarenzo/replenish-go/internal/domain"
)

// ForecastRepository persists the points of each forecast run so past
// recommendations stay auditable.
type ForecastRepository interface {
	SaveRun(ctx context.Context, points []domain.ForecastPoint, modelVersion string) error
	History(ctx context.Context, page, pageSize int) ([]domain.ForecastRecord, int, error)
}
