// internal/ingest/ingestor.go
package ingest

import (
	"encoding/csv"
	"fmt"
	"math"
	"strings"

	"github.com/avicolarenzo/replenish-go/internal/domain"
)

// Column names after header normalization. Imports keep the Spanish headers
// the farm's spreadsheets use.
const (
	colFecha       = "fecha"
	colInventario  = "inventariopromedio"
	colPrecio      = "preciokg"
	colVentas      = "ventaskg"
	colPerdidas    = "perdidaskg"
	colObservacion = "observacion"
)

// errorPreviewLimit bounds the user-facing error summary.
const errorPreviewLimit = 8

var requiredColumns = []string{colFecha, colInventario, colPrecio, colVentas, colPerdidas}

// Result holds the accepted records and the per-row errors of one import.
type Result struct {
	Records   []domain.Record
	RowErrors []string
}

// ErrorPreview returns at most the first eight row errors.
func (r *Result) ErrorPreview() []string {
	if len(r.RowErrors) <= errorPreviewLimit {
		return r.RowErrors
	}
	return r.RowErrors[:errorPreviewLimit]
}

// Summary converts the parse result into the user-facing import summary.
func (r *Result) Summary() *domain.ImportSummary {
	return &domain.ImportSummary{
		Imported:     len(r.Records),
		Skipped:      len(r.RowErrors),
		ErrorPreview: r.ErrorPreview(),
		TotalErrors:  len(r.RowErrors),
	}
}

// EmptyImportError means the import produced no usable records: missing
// header, no data rows, or every row failed validation.
type EmptyImportError struct {
	Reason    string
	RowErrors []string
}

func (e *EmptyImportError) Error() string {
	if len(e.RowErrors) == 0 {
		return fmt.Sprintf("empty import: %s", e.Reason)
	}
	return fmt.Sprintf("empty import: %s (%d rows rejected)", e.Reason, len(e.RowErrors))
}

// Parse converts raw CSV text into normalized records, collecting one error
// entry per rejected row. A bad row never aborts the parse; only structurally
// unreadable input or an empty accepted set does.
func Parse(content string) (*Result, error) {
	reader := csv.NewReader(strings.NewReader(content))
	reader.Comma = detectDelimiter(content)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &EmptyImportError{Reason: fmt.Sprintf("unreadable CSV: %v", err)}
	}
	if len(rows) == 0 {
		return nil, &EmptyImportError{Reason: "no header row"}
	}

	colIdx, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for i, row := range rows[1:] {
		rowNum := i + 1 // 1-indexed from the first data row
		record, badFields := parseRow(row, colIdx)
		if len(badFields) > 0 {
			result.RowErrors = append(result.RowErrors,
				fmt.Sprintf("row %d: %s invalid", rowNum, strings.Join(badFields, " invalid, ")))
			continue
		}
		result.Records = append(result.Records, record)
	}

	if len(result.Records) == 0 {
		return nil, &EmptyImportError{
			Reason:    "no rows could be converted",
			RowErrors: result.RowErrors,
		}
	}
	return result, nil
}

// detectDelimiter counts raw ';' vs ',' occurrences over the whole text and
// picks comma only when it strictly outnumbers semicolon. This is not
// column-aware: free-text fields full of commas can tip the count. Kept as-is
// for compatibility with the files the farm already produces.
func detectDelimiter(content string) rune {
	if strings.Count(content, ",") > strings.Count(content, ";") {
		return ','
	}
	return ';'
}

// normalizeHeader trims, lower-cases and strips internal spaces so headers
// differing only in case or spacing still match.
func normalizeHeader(h string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "")
}

func mapHeader(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[normalizeHeader(h)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, &EmptyImportError{Reason: fmt.Sprintf("missing column %q", col)}
		}
	}
	return idx, nil
}

func fieldAt(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// parseRow validates one data row. It returns the record and the list of
// field names that failed, in column order. A row is accepted only when the
// date and all four numeric fields parse; the note defaults to empty.
func parseRow(row []string, idx map[string]int) (domain.Record, []string) {
	var bad []string

	date, ok := parseDate(fieldAt(row, idx, colFecha))
	if !ok {
		bad = append(bad, colFecha)
	}
	inv, ok := parseDecimal(fieldAt(row, idx, colInventario))
	if !ok || inv < 0 {
		bad = append(bad, colInventario)
	}
	price, ok := parseDecimal(fieldAt(row, idx, colPrecio))
	if !ok || price < 0 {
		bad = append(bad, colPrecio)
	}
	sales, ok := parseDecimal(fieldAt(row, idx, colVentas))
	if !ok || sales < 0 {
		bad = append(bad, colVentas)
	}
	losses, ok := parseDecimal(fieldAt(row, idx, colPerdidas))
	if !ok || losses < 0 {
		bad = append(bad, colPerdidas)
	}
	if len(bad) > 0 {
		return domain.Record{}, bad
	}

	// Quantities are stored as whole kilograms, prices at two decimals.
	return domain.Record{
		Date:         date,
		AvgInventory: math.Round(inv),
		PricePerKg:   round2(price),
		SalesKg:      math.Round(sales),
		LossesKg:     math.Round(losses),
		Note:         strings.TrimSpace(fieldAt(row, idx, colObservacion)),
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
