// internal/analysis/policy.go
package analysis

import (
	"math"

	"github.com/avicolarenzo/replenish-go/internal/domain"
)

// Policy defaults used when the caller leaves the parameters unset.
const (
	DefaultServiceLevel = 0.95
	DefaultLeadTimeDays = 7
)

// PolicyConfig carries the caller-chosen policy parameters.
type PolicyConfig struct {
	ServiceLevel float64
	LeadTimeDays int
}

// ComputePolicy derives the reorder-point / safety-stock policy from the
// daily sales of the selected historical window. It is a pure function:
// no persistence, no shared state.
//
//	safety_stock  = z * daily_std * sqrt(lead_time)
//	reorder_point = daily_avg * lead_time + safety_stock
func ComputePolicy(records []domain.Record, cfg PolicyConfig) domain.ReplenishmentPolicy {
	if cfg.ServiceLevel <= 0 {
		cfg.ServiceLevel = DefaultServiceLevel
	}
	if cfg.LeadTimeDays <= 0 {
		cfg.LeadTimeDays = DefaultLeadTimeDays
	}

	var dailyAvg, dailyStd float64
	if len(records) > 0 {
		var sum float64
		for _, r := range records {
			sum += r.SalesKg
		}
		dailyAvg = sum / float64(len(records))
	}
	if len(records) > 1 {
		var sq float64
		for _, r := range records {
			d := r.SalesKg - dailyAvg
			sq += d * d
		}
		// Population standard deviation, matching how the window is treated
		// as the full demand history rather than a sample.
		dailyStd = math.Sqrt(sq / float64(len(records)))
	}

	lt := float64(cfg.LeadTimeDays)
	ss := zFromServiceLevel(cfg.ServiceLevel) * dailyStd * math.Sqrt(lt)
	rop := dailyAvg*lt + ss

	return domain.ReplenishmentPolicy{
		ServiceLevel: cfg.ServiceLevel,
		LeadTimeDays: cfg.LeadTimeDays,
		DailyAvg:     round2(dailyAvg),
		DailyStd:     round2(dailyStd),
		SafetyStock:  round2(ss),
		ReorderPoint: round2(rop),
	}
}

// zFromServiceLevel is a step-function approximation of the inverse standard
// normal CDF at common service levels. Two service levels inside the same
// bracket get the same z; it is not a continuous inverse CDF.
func zFromServiceLevel(p float64) float64 {
	switch {
	case p >= 0.999:
		return 3.09
	case p >= 0.99:
		return 2.33
	case p >= 0.98:
		return 2.05
	case p >= 0.975:
		return 1.96
	case p >= 0.95:
		return 1.645
	case p >= 0.90:
		return 1.282
	case p >= 0.85:
		return 1.036
	case p >= 0.80:
		return 0.842
	case p <= 0.5:
		return 0.0
	default:
		return 1.0
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
