// internal/forecast/invoker.go
package forecast

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/avicolarenzo/replenish-go/internal/domain"
)

// Modes accepted by the predictor's chart argument.
const (
	ModeSingle  = "single"
	ModeCompare = "compare"
)

const defaultTimeout = 120 * time.Second

// Forecaster is the capability boundary around the external model: anything
// that turns a record window into raw forecast output satisfies it, whether
// subprocess, RPC or in-process.
type Forecaster interface {
	Run(ctx context.Context, records []domain.Record, mode string) ([]byte, error)
}

// Candidate is one way of launching the forecasting process. Candidates are
// tried in order until one succeeds.
type Candidate struct {
	Name string
	Args []string
}

func (c Candidate) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// UnavailableError means every invocation candidate was exhausted without a
// clean run.
type UnavailableError struct {
	Attempted []string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("forecast process unavailable (tried: %s)", strings.Join(e.Attempted, ", "))
}

// SubprocessInvoker runs the predictor script as a child process. Each run
// writes its own uniquely named temp CSV, so concurrent invocations never
// collide, and the file is removed on every exit path.
type SubprocessInvoker struct {
	ScriptPath string
	WorkDir    string
	Candidates []Candidate
	Timeout    time.Duration
}

// NewSubprocessInvoker builds an invoker with the given interpreter
// candidates; empty inputs fall back to python3 then python, and a 120s
// timeout.
func NewSubprocessInvoker(scriptPath, workDir string, interpreters []string, timeout time.Duration) *SubprocessInvoker {
	candidates := make([]Candidate, 0, len(interpreters))
	for _, name := range interpreters {
		if name = strings.TrimSpace(name); name != "" {
			fields := strings.Fields(name)
			candidates = append(candidates, Candidate{Name: fields[0], Args: fields[1:]})
		}
	}
	if len(candidates) == 0 {
		candidates = []Candidate{{Name: "python3"}, {Name: "python"}}
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &SubprocessInvoker{
		ScriptPath: scriptPath,
		WorkDir:    workDir,
		Candidates: candidates,
		Timeout:    timeout,
	}
}

// Run serializes the records to a canonical CSV, launches the candidates in
// order and returns the first captured stdout that came with exit code zero.
// The raw output is not parsed here; interpreting the model's answer belongs
// to the aggregator.
func (inv *SubprocessInvoker) Run(ctx context.Context, records []domain.Record, mode string) ([]byte, error) {
	mode = normalizeMode(mode)

	csvPath, err := inv.writeInputCSV(records)
	if err != nil {
		return nil, fmt.Errorf("write forecast input: %w", err)
	}
	defer func() {
		// Best effort: a leftover temp file is not worth failing the run for.
		_ = os.Remove(csvPath)
	}()

	ctx, cancel := context.WithTimeout(ctx, inv.Timeout)
	defer cancel()

	attempted := make([]string, 0, len(inv.Candidates))
	for _, candidate := range inv.Candidates {
		attempted = append(attempted, candidate.String()+" "+inv.ScriptPath)

		stdout, stderr, err := inv.runCandidate(ctx, candidate, csvPath, mode)
		if err == nil && len(strings.TrimSpace(stdout)) > 0 {
			return []byte(stdout), nil
		}

		log.Debug().
			Str("candidate", candidate.String()).
			Err(err).
			Str("stderr", stderr).
			Msg("forecast candidate failed")

		if ctx.Err() != nil {
			// Timed out or cancelled; later candidates would fail the same way.
			break
		}
	}

	return nil, &UnavailableError{Attempted: attempted}
}

func (inv *SubprocessInvoker) runCandidate(ctx context.Context, c Candidate, csvPath, mode string) (string, string, error) {
	args := append(append([]string{}, c.Args...), inv.ScriptPath, csvPath, mode)
	cmd := exec.CommandContext(ctx, c.Name, args...)
	cmd.Dir = inv.WorkDir

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return "", "", err
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return "", "", err
	}
	if err := cmd.Start(); err != nil {
		return "", "", err
	}

	// Drain both streams concurrently so neither can block the other.
	var wg sync.WaitGroup
	var stdout, stderr string
	wg.Add(2)
	go func() { defer wg.Done(); stdout = drainLines(stdoutPipe) }()
	go func() { defer wg.Done(); stderr = drainLines(stderrPipe) }()
	wg.Wait()

	err = cmd.Wait()
	return stdout, stderr, err
}

func drainLines(r io.Reader) string {
	var sb strings.Builder
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteByte('\n')
	}
	return strings.TrimSpace(sb.String())
}

// writeInputCSV produces the canonical model input: fixed header, one row per
// record, ascending by date, under a collision-free temp name.
func (inv *SubprocessInvoker) writeInputCSV(records []domain.Record) (string, error) {
	sorted := append([]domain.Record(nil), records...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	f, err := os.Create(tempInputPath())
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Write([]string{"date", "avg_inventory", "price_per_kg"})
	for _, r := range sorted {
		w.Write([]string{
			r.Date.Format("2006-01-02"),
			strconv.FormatFloat(r.AvgInventory, 'f', -1, 64),
			strconv.FormatFloat(r.PricePerKg, 'f', -1, 64),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func tempInputPath() string {
	return fmt.Sprintf("%s/forecast_input_%s.csv", os.TempDir(), uuid.New().String())
}

func normalizeMode(mode string) string {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode != ModeSingle && mode != ModeCompare {
		return ModeCompare
	}
	return mode
}
