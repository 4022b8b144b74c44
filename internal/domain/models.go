// internal/domain/models.go
package domain

import "time"

// Record is one day's inventory observation for the farm.
// All quantities are kilograms; numeric fields are non-negative.
type Record struct {
	ID           int64     `json:"id" db:"id"`
	Date         time.Time `json:"date" db:"record_date"`
	AvgInventory float64   `json:"avg_inventory" db:"avg_inventory"`
	PricePerKg   float64   `json:"price_per_kg" db:"price_per_kg"`
	SalesKg      float64   `json:"sales_kg" db:"sales_kg"`
	LossesKg     float64   `json:"losses_kg" db:"losses_kg"`
	Note         string    `json:"note" db:"note"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// ForecastPoint is one prediction unit returned by the external model.
// Points are not date-aligned with Records; they belong to a forecast run.
type ForecastPoint struct {
	AvgInventory   float64 `json:"avg_inventory"`
	PricePerKg     float64 `json:"price_per_kg"`
	PredictedSales float64 `json:"predicted_sales"`
	ReplenishKg    float64 `json:"replenish_kg"`
	Alert          string  `json:"alert"`
}

// ForecastRecord is a persisted forecast point with run metadata.
type ForecastRecord struct {
	ID             int64     `json:"id" db:"id"`
	AvgInventory   float64   `json:"avg_inventory" db:"avg_inventory"`
	PricePerKg     float64   `json:"price_per_kg" db:"price_per_kg"`
	PredictedSales float64   `json:"predicted_sales" db:"predicted_sales"`
	ReplenishKg    float64   `json:"replenish_kg" db:"replenish_kg"`
	Alert          string    `json:"alert" db:"alert"`
	ModelVersion   string    `json:"model_version" db:"model_version"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// ReplenishmentPolicy is the reorder-point / safety-stock policy derived from
// a historical window. Computed fresh on every analysis, never persisted.
type ReplenishmentPolicy struct {
	ServiceLevel float64 `json:"service_level"`
	LeadTimeDays int     `json:"lead_time_days"`
	DailyAvg     float64 `json:"daily_avg"`
	DailyStd     float64 `json:"daily_std"`
	SafetyStock  float64 `json:"safety_stock"`
	ReorderPoint float64 `json:"reorder_point"`
}

// ChartSeries holds parallel sequences for the frontend charts,
// in chronological order.
type ChartSeries struct {
	Labels    []string  `json:"labels"`
	Inventory []float64 `json:"inventory"`
	Price     []float64 `json:"price"`
}

// ReplenishmentReport is the engine's output for one analysis request.
type ReplenishmentReport struct {
	Points []ForecastPoint `json:"points"`

	TotalPoints         int     `json:"total_points"`
	AvgInventory        float64 `json:"avg_inventory"`
	AvgPrice            float64 `json:"avg_price"`
	AvgPredictedSales   float64 `json:"avg_predicted_sales"`
	TotalPredictedSales float64 `json:"total_predicted_sales"`

	Trailing3MSales         float64 `json:"trailing_3m_sales"`
	Trailing3MAvgLosses     float64 `json:"trailing_3m_avg_losses"`
	PriorYearSameMonthSales float64 `json:"prior_year_same_month_sales"`
	TargetMonthName         string  `json:"target_month_name"`
	PriorYear               int     `json:"prior_year"`

	SuggestedReplenishKg float64 `json:"suggested_replenish_kg"`
	ExpectedSurplusKg    float64 `json:"expected_surplus_kg"`

	Recommendations []string            `json:"recommendations"`
	Policy          ReplenishmentPolicy `json:"policy"`
	Chart           ChartSeries         `json:"chart"`
}

// WindowStats summarizes sales and losses over a date window.
type WindowStats struct {
	TotalSales float64 `db:"total_sales"`
	AvgLosses  float64 `db:"avg_losses"`
}

// ImportSummary reports the outcome of a CSV import.
type ImportSummary struct {
	Imported     int      `json:"imported"`
	Skipped      int      `json:"skipped"`
	ErrorPreview []string `json:"error_preview,omitempty"`
	TotalErrors  int      `json:"total_errors"`
}
