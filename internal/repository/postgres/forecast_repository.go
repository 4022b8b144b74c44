// internal/repository/postgres/forecast_repository.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/avicolarenzo/replenish-go/internal/domain"
)

type forecastRepository struct {
	db *DB
}

func NewForecastRepository(db *DB) *forecastRepository {
	return &forecastRepository{db: db}
}

func (r *forecastRepository) SaveRun(ctx context.Context, points []domain.ForecastPoint, modelVersion string) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO forecast_points (
				avg_inventory, price_per_kg, predicted_sales, replenish_kg, alert, model_version, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, NOW())
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, p := range points {
			if _, err := stmt.ExecContext(ctx,
				p.AvgInventory, p.PricePerKg, p.PredictedSales, p.ReplenishKg, p.Alert, modelVersion,
			); err != nil {
				return fmt.Errorf("failed to insert forecast point: %w", err)
			}
		}
		return nil
	})
}

func (r *forecastRepository) History(ctx context.Context, page, pageSize int) ([]domain.ForecastRecord, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM forecast_points"); err != nil {
		return nil, 0, fmt.Errorf("failed to count forecast points: %w", err)
	}

	records := []domain.ForecastRecord{}
	query := `
		SELECT id, avg_inventory, price_per_kg, predicted_sales, replenish_kg, alert, model_version, created_at
		FROM forecast_points
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	if err := r.db.SelectContext(ctx, &records, query, pageSize, (page-1)*pageSize); err != nil {
		return nil, 0, fmt.Errorf("failed to list forecast history: %w", err)
	}
	return records, total, nil
}
