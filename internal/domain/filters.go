// internal/domain/filters.go
package domain

import "time"

// RecordFilter captures the query parameters of the record listing endpoints.
type RecordFilter struct {
	From     *time.Time `json:"from"`
	To       *time.Time `json:"to"`
	PriceMin *float64   `json:"price_min"`
	PriceMax *float64   `json:"price_max"`
	Note     string     `json:"note"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

// AnalysisRequest selects the record window and policy parameters for one
// forecast-and-recommend run.
type AnalysisRequest struct {
	From         *time.Time `json:"from"`
	To           *time.Time `json:"to"`
	Month        *int       `json:"month"` // 1..12, matches any year
	ServiceLevel *float64   `json:"service_level"`
	LeadTimeDays *int       `json:"lead_time_days"`
	ChartMode    string     `json:"chart_mode"` // "single" or "compare"
}

// HasWindowFilter reports whether any record-selection filter is set.
// Unfiltered requests fall back to a bounded default selection.
func (r AnalysisRequest) HasWindowFilter() bool {
	return r.From != nil || r.To != nil || r.Month != nil
}
