// internal/ingest/ingestor_test.go
package ingest

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const semicolonCSV = `Fecha;Inventario Promedio;Precio Kg;Ventas Kg;Perdidas Kg;Observacion
2025-07-01;1200;8,50;350;12;
02/07/2025;1150,4;8.55;340,6;10;venta regular
`

func TestParseSemicolonFile(t *testing.T) {
	result, err := Parse(semicolonCSV)
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	assert.Empty(t, result.RowErrors)

	first := result.Records[0]
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, 1200.0, first.AvgInventory)
	assert.Equal(t, 8.50, first.PricePerKg)
	assert.Equal(t, 350.0, first.SalesKg)
	assert.Equal(t, 12.0, first.LossesKg)
	assert.Equal(t, "", first.Note)

	second := result.Records[1]
	assert.Equal(t, time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC), second.Date)
	assert.Equal(t, 1150.0, second.AvgInventory, "inventory rounds to whole kg")
	assert.Equal(t, 341.0, second.SalesKg)
	assert.Equal(t, "venta regular", second.Note)
}

func TestParseCommaFile(t *testing.T) {
	content := `fecha,inventariopromedio,preciokg,ventaskg,perdidaskg,observacion
2025-07-01,1000,8.5,300,5,primera
2025-07-02,1010,8.6,310,6,segunda
`
	result, err := Parse(content)
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "primera", result.Records[0].Note)
}

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, ';', detectDelimiter("a;b;c\n1;2;3"))
	assert.Equal(t, ',', detectDelimiter("a,b,c\n1,2,3"))
	// Ties keep the semicolon.
	assert.Equal(t, ';', detectDelimiter("a;b,c"))
}

func TestHeaderNormalization(t *testing.T) {
	content := "  FECHA ; Inventario Promedio ;PRECIO KG; ventas kg ;Perdidas KG\n2025-07-01;100;8,5;30;1\n"
	result, err := Parse(content)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
}

func TestMissingColumn(t *testing.T) {
	content := "fecha;preciokg;ventaskg;perdidaskg\n2025-07-01;8,5;30;1\n"
	_, err := Parse(content)
	var empty *EmptyImportError
	require.ErrorAs(t, err, &empty)
	assert.Contains(t, empty.Reason, "inventariopromedio")
}

func TestBadRowsAreSkippedNotFatal(t *testing.T) {
	var b strings.Builder
	b.WriteString("fecha;inventariopromedio;preciokg;ventaskg;perdidaskg;observacion\n")
	for i := 1; i <= 10; i++ {
		date := fmt.Sprintf("2025-07-%02d", i)
		if i == 3 || i == 7 {
			date = "not-a-date"
		}
		fmt.Fprintf(&b, "%s;1000;8,5;300;5;\n", date)
	}

	result, err := Parse(b.String())
	require.NoError(t, err)
	assert.Len(t, result.Records, 8)
	require.Len(t, result.RowErrors, 2)
	assert.Equal(t, "row 3: fecha invalid", result.RowErrors[0])
	assert.Equal(t, "row 7: fecha invalid", result.RowErrors[1])
}

func TestMultipleBadFieldsOneEntry(t *testing.T) {
	content := "fecha;inventariopromedio;preciokg;ventaskg;perdidaskg\nnope;abc;8,5;300;5\n2025-07-01;100;8,5;30;1\n"
	result, err := Parse(content)
	require.NoError(t, err)
	require.Len(t, result.RowErrors, 1)
	assert.Equal(t, "row 1: fecha invalid, inventariopromedio invalid", result.RowErrors[0])
}

func TestNegativeValuesRejected(t *testing.T) {
	content := "fecha;inventariopromedio;preciokg;ventaskg;perdidaskg\n2025-07-01;-10;8,5;300;5\n2025-07-02;100;8,5;30;1\n"
	result, err := Parse(content)
	require.NoError(t, err)
	require.Len(t, result.RowErrors, 1)
	assert.Contains(t, result.RowErrors[0], "inventariopromedio")
}

func TestEmptyImport(t *testing.T) {
	_, err := Parse("")
	var empty *EmptyImportError
	require.ErrorAs(t, err, &empty)

	// Header only, no data rows.
	_, err = Parse("fecha;inventariopromedio;preciokg;ventaskg;perdidaskg\n")
	require.ErrorAs(t, err, &empty)

	// All rows rejected.
	_, err = Parse("fecha;inventariopromedio;preciokg;ventaskg;perdidaskg\nbad;x;y;z;w\n")
	require.ErrorAs(t, err, &empty)
	assert.Len(t, empty.RowErrors, 1)
}

func TestErrorPreviewCapped(t *testing.T) {
	var b strings.Builder
	b.WriteString("fecha;inventariopromedio;preciokg;ventaskg;perdidaskg\n")
	for i := 0; i < 12; i++ {
		b.WriteString("bad;1;1;1;1\n")
	}
	b.WriteString("2025-07-01;100;8,5;30;1\n")

	result, err := Parse(b.String())
	require.NoError(t, err)
	assert.Len(t, result.RowErrors, 12)
	assert.Len(t, result.ErrorPreview(), 8)

	summary := result.Summary()
	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 12, summary.Skipped)
	assert.Equal(t, 12, summary.TotalErrors)
	assert.Len(t, summary.ErrorPreview, 8)
}

func TestParseDateFormats(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2025-07-01", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), true},
		{"01/07/2025", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), true},
		{"1/7/2025", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), true},
		{"3 de julio de 2025", time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC), true},
		{"15 de Setiembre de 2024", time.Date(2024, 9, 15, 0, 0, 0, 0, time.UTC), true},
		{"not-a-date", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12,5", 12.5, true},
		{"12.5", 12.5, true},
		{"1.234,56", 1234.56, true},
		{"1,234.56", 1234.56, true},
		{"1,234,567", 1234567, true},
		{"1.234.567", 1234567, true},
		{" 8,50 ", 8.5, true},
		{"0", 0, true},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseDecimal(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestRoundingIdempotent(t *testing.T) {
	content := "fecha;inventariopromedio;preciokg;ventaskg;perdidaskg\n2025-07-01;1150,4;8,555;340,6;10,2\n"
	result, err := Parse(content)
	require.NoError(t, err)
	rec := result.Records[0]

	// Re-serializing the rounded values and parsing again must not change them.
	again := fmt.Sprintf("fecha;inventariopromedio;preciokg;ventaskg;perdidaskg\n2025-07-01;%v;%v;%v;%v\n",
		rec.AvgInventory, rec.PricePerKg, rec.SalesKg, rec.LossesKg)
	result2, err := Parse(again)
	require.NoError(t, err)
	assert.Equal(t, rec.AvgInventory, result2.Records[0].AvgInventory)
	assert.Equal(t, rec.PricePerKg, result2.Records[0].PricePerKg)
	assert.Equal(t, rec.SalesKg, result2.Records[0].SalesKg)
	assert.Equal(t, rec.LossesKg, result2.Records[0].LossesKg)
}

func TestEmptyImportErrorMessage(t *testing.T) {
	err := &EmptyImportError{Reason: "no rows could be converted", RowErrors: []string{"row 1: fecha invalid"}}
	assert.Equal(t, "empty import: no rows could be converted (1 rows rejected)", err.Error())
	assert.True(t, errors.As(error(err), new(*EmptyImportError)))
}
