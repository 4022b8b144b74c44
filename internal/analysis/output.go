// internal/analysis/output.go
package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/avicolarenzo/replenish-go/internal/domain"
)

// OutputInvalidError means the forecasting process exited cleanly but its
// stdout is not the expected JSON array of forecast points. Raw keeps the
// original output for diagnosis.
type OutputInvalidError struct {
	Raw    string
	Reason string
}

func (e *OutputInvalidError) Error() string {
	return fmt.Sprintf("invalid forecast output: %s", e.Reason)
}

// modelError is the shape the predictor prints when it fails internally.
type modelError struct {
	Error string `json:"error"`
}

// DecodePoints interprets the raw model output. Running the model and
// interpreting its answer are separate concerns; the invoker hands the bytes
// over untouched.
func DecodePoints(raw []byte) ([]domain.ForecastPoint, error) {
	trimmed := strings.TrimSpace(string(raw))

	var points []domain.ForecastPoint
	if err := json.Unmarshal([]byte(trimmed), &points); err == nil {
		if len(points) == 0 {
			return nil, &OutputInvalidError{Raw: trimmed, Reason: "empty forecast array"}
		}
		return points, nil
	}

	// The predictor reports its own failures as {"error": "..."}.
	var me modelError
	if err := json.Unmarshal([]byte(trimmed), &me); err == nil && me.Error != "" {
		return nil, &OutputInvalidError{Raw: trimmed, Reason: "model error: " + me.Error}
	}

	return nil, &OutputInvalidError{Raw: trimmed, Reason: "not a JSON array of forecast points"}
}
