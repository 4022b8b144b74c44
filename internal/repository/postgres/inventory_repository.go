// internal/repository/postgres/inventory_repository.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/avicolarenzo/replenish-go/internal/domain"
)

type inventoryRepository struct {
	db *DB
}

func NewInventoryRepository(db *DB) *inventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) Insert(ctx context.Context, record *domain.Record) error {
	query := `
		INSERT INTO inventory_records (
			record_date, avg_inventory, price_per_kg, sales_kg, losses_kg, note, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		record.Date, record.AvgInventory, record.PricePerKg,
		record.SalesKg, record.LossesKg, record.Note,
	).Scan(&record.ID)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

func (r *inventoryRepository) BulkInsert(ctx context.Context, records []domain.Record) (int, error) {
	inserted := 0
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO inventory_records (
				record_date, avg_inventory, price_per_kg, sales_kg, losses_kg, note, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, rec := range records {
			if _, err := stmt.ExecContext(ctx,
				rec.Date, rec.AvgInventory, rec.PricePerKg, rec.SalesKg, rec.LossesKg, rec.Note,
			); err != nil {
				return fmt.Errorf("failed to insert record for %s: %w", rec.Date.Format("2006-01-02"), err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func (r *inventoryRepository) List(ctx context.Context, filter domain.RecordFilter) ([]domain.Record, int, error) {
	where, args := buildRecordWhere(filter)

	var total int
	countQuery := "SELECT COUNT(*) FROM inventory_records" + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count records: %w", err)
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	query := fmt.Sprintf(`
		SELECT id, record_date, avg_inventory, price_per_kg, sales_kg, losses_kg, note, created_at, updated_at
		FROM inventory_records%s
		ORDER BY record_date DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	records := []domain.Record{}
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list records: %w", err)
	}
	return records, total, nil
}

func (r *inventoryRepository) SelectForAnalysis(ctx context.Context, req domain.AnalysisRequest, limit int) ([]domain.Record, error) {
	var conditions []string
	var args []interface{}

	if req.From != nil {
		args = append(args, *req.From)
		conditions = append(conditions, fmt.Sprintf("record_date >= $%d", len(args)))
	}
	if req.To != nil {
		args = append(args, *req.To)
		conditions = append(conditions, fmt.Sprintf("record_date <= $%d", len(args)))
	}
	if req.Month != nil {
		args = append(args, *req.Month)
		conditions = append(conditions, fmt.Sprintf("EXTRACT(MONTH FROM record_date) = $%d", len(args)))
	}

	query := `
		SELECT id, record_date, avg_inventory, price_per_kg, sales_kg, losses_kg, note, created_at, updated_at
		FROM inventory_records
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY record_date ASC"
	if !req.HasWindowFilter() && limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	records := []domain.Record{}
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select analysis window: %w", err)
	}
	return records, nil
}

func (r *inventoryRepository) TrailingWindowStats(ctx context.Context, from, to time.Time) (domain.WindowStats, error) {
	var stats domain.WindowStats
	query := `
		SELECT COALESCE(SUM(sales_kg), 0) AS total_sales,
		       COALESCE(AVG(losses_kg), 0) AS avg_losses
		FROM inventory_records
		WHERE record_date >= $1 AND record_date <= $2
	`
	if err := r.db.GetContext(ctx, &stats, query, from, to); err != nil {
		return domain.WindowStats{}, fmt.Errorf("failed to compute window stats: %w", err)
	}
	return stats, nil
}

func (r *inventoryRepository) MonthlySales(ctx context.Context, year int, month time.Month) (float64, error) {
	var total float64
	query := `
		SELECT COALESCE(SUM(sales_kg), 0)
		FROM inventory_records
		WHERE EXTRACT(YEAR FROM record_date) = $1 AND EXTRACT(MONTH FROM record_date) = $2
	`
	if err := r.db.GetContext(ctx, &total, query, year, int(month)); err != nil {
		return 0, fmt.Errorf("failed to sum monthly sales: %w", err)
	}
	return total, nil
}

func buildRecordWhere(filter domain.RecordFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("record_date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("record_date <= $%d", len(args)))
	}
	if filter.PriceMin != nil {
		args = append(args, *filter.PriceMin)
		conditions = append(conditions, fmt.Sprintf("price_per_kg >= $%d", len(args)))
	}
	if filter.PriceMax != nil {
		args = append(args, *filter.PriceMax)
		conditions = append(conditions, fmt.Sprintf("price_per_kg <= $%d", len(args)))
	}
	if note := strings.TrimSpace(filter.Note); note != "" {
		args = append(args, "%"+note+"%")
		conditions = append(conditions, fmt.Sprintf("note ILIKE $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
