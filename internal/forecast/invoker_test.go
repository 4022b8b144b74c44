// internal/forecast/invoker_test.go
package forecast

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avicolarenzo/replenish-go/internal/domain"
)

func testRecords() []domain.Record {
	return []domain.Record{
		{Date: time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC), AvgInventory: 1100, PricePerKg: 8.6},
		{Date: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), AvgInventory: 1200, PricePerKg: 8.5},
	}
}

func countTempInputs(t *testing.T) int {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(os.TempDir(), "forecast_input_*.csv"))
	require.NoError(t, err)
	return len(matches)
}

func TestRunFirstCandidateSucceeds(t *testing.T) {
	// sh -c '<script>' receives the CSV path and mode as positional parameters.
	inv := &SubprocessInvoker{
		ScriptPath: `echo "[{\"predicted_sales\": 10}]"`,
		Candidates: []Candidate{{Name: "sh", Args: []string{"-c"}}},
		Timeout:    10 * time.Second,
	}

	out, err := inv.Run(context.Background(), testRecords(), ModeCompare)
	require.NoError(t, err)
	assert.Contains(t, string(out), "predicted_sales")
}

func TestRunFallsBackToSecondCandidate(t *testing.T) {
	inv := &SubprocessInvoker{
		ScriptPath: "fallback-probe",
		Candidates: []Candidate{
			{Name: "definitely-not-an-interpreter-xyz"},
			{Name: "sh", Args: []string{"-c", "echo '[{\"predicted_sales\": 42}]' #"}},
		},
		Timeout: 10 * time.Second,
	}

	out, err := inv.Run(context.Background(), testRecords(), ModeSingle)
	require.NoError(t, err)
	assert.Contains(t, string(out), "42")
}

func TestRunEmptyStdoutIsFailure(t *testing.T) {
	inv := &SubprocessInvoker{
		ScriptPath: "silent-probe",
		Candidates: []Candidate{
			// Exits zero but prints nothing; must count as a failed attempt.
			{Name: "sh", Args: []string{"-c", "true #"}},
			{Name: "sh", Args: []string{"-c", "echo '[{\"predicted_sales\": 7}]' #"}},
		},
		Timeout: 10 * time.Second,
	}

	out, err := inv.Run(context.Background(), testRecords(), ModeCompare)
	require.NoError(t, err)
	assert.Contains(t, string(out), "7")
}

func TestRunAllCandidatesFail(t *testing.T) {
	before := countTempInputs(t)

	inv := &SubprocessInvoker{
		ScriptPath: "predictor.py",
		Candidates: []Candidate{
			{Name: "definitely-not-an-interpreter-xyz"},
			{Name: "sh", Args: []string{"-c", "exit 3 #"}},
		},
		Timeout: 10 * time.Second,
	}

	_, err := inv.Run(context.Background(), testRecords(), ModeCompare)
	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	require.Len(t, unavailable.Attempted, 2)
	assert.Contains(t, unavailable.Attempted[0], "definitely-not-an-interpreter-xyz")
	assert.Contains(t, unavailable.Attempted[1], "sh -c")
	assert.Contains(t, err.Error(), "forecast process unavailable")

	// The temp input file must be gone on the failure path too.
	assert.Equal(t, before, countTempInputs(t))
}

func TestRunTimeout(t *testing.T) {
	inv := &SubprocessInvoker{
		ScriptPath: "sleep-probe",
		Candidates: []Candidate{
			{Name: "sh", Args: []string{"-c", "sleep 5 #"}},
			{Name: "sh", Args: []string{"-c", "echo unreachable #"}},
		},
		Timeout: 200 * time.Millisecond,
	}

	start := time.Now()
	_, err := inv.Run(context.Background(), testRecords(), ModeCompare)
	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	// The second candidate is not tried once the deadline has passed.
	assert.Len(t, unavailable.Attempted, 1)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestTempFileCleanupOnSuccess(t *testing.T) {
	before := countTempInputs(t)

	inv := &SubprocessInvoker{
		ScriptPath: "cleanup-probe",
		Candidates: []Candidate{{Name: "sh", Args: []string{"-c", "echo '[]' #"}}},
		Timeout:    10 * time.Second,
	}
	_, err := inv.Run(context.Background(), testRecords(), ModeCompare)
	require.NoError(t, err)

	assert.Equal(t, before, countTempInputs(t))
}

func TestWriteInputCSVSortedAscending(t *testing.T) {
	inv := &SubprocessInvoker{}
	path, err := inv.writeInputCSV(testRecords())
	require.NoError(t, err)
	defer os.Remove(path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "date,avg_inventory,price_per_kg\n2025-07-01,1200,8.5\n2025-07-02,1100,8.6\n",
		string(content))
}

func TestNewSubprocessInvokerDefaults(t *testing.T) {
	inv := NewSubprocessInvoker("predictor.py", "", nil, 0)
	require.Len(t, inv.Candidates, 2)
	assert.Equal(t, "python3", inv.Candidates[0].Name)
	assert.Equal(t, "python", inv.Candidates[1].Name)
	assert.Equal(t, 120*time.Second, inv.Timeout)

	inv = NewSubprocessInvoker("predictor.py", "", []string{"py -3", " "}, time.Minute)
	require.Len(t, inv.Candidates, 1)
	assert.Equal(t, "py", inv.Candidates[0].Name)
	assert.Equal(t, []string{"-3"}, inv.Candidates[0].Args)
	assert.Equal(t, time.Minute, inv.Timeout)
}

func TestNormalizeMode(t *testing.T) {
	assert.Equal(t, ModeSingle, normalizeMode(" Single "))
	assert.Equal(t, ModeCompare, normalizeMode("compare"))
	assert.Equal(t, ModeCompare, normalizeMode("anything-else"))
	assert.Equal(t, ModeCompare, normalizeMode(""))
}
