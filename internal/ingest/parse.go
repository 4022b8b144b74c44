// internal/ingest/parse.go
package ingest

import (
	"strconv"
	"strings"
	"time"
)

// dateFormats are tried in order. DD/MM wins over MM/DD on ambiguous input,
// matching the Peruvian convention of the source spreadsheets.
var dateFormats = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"01/02/2006",
}

// freeFormFormats back the locale fallback once Spanish month names have been
// replaced by their numbers.
var freeFormFormats = []string{
	"02-01-2006",
	"2-1-2006",
	"2/1/2006",
	"2 1 2006",
}

var spanishMonths = map[string]string{
	"enero":      "1",
	"febrero":    "2",
	"marzo":      "3",
	"abril":      "4",
	"mayo":       "5",
	"junio":      "6",
	"julio":      "7",
	"agosto":     "8",
	"septiembre": "9",
	"setiembre":  "9",
	"octubre":    "10",
	"noviembre":  "11",
	"diciembre":  "12",
}

// parseDate tries the four fixed formats and then a tolerant es-PE free-form
// parse ("3 de julio de 2025" and similar).
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	return parseDateFreeForm(s)
}

func parseDateFreeForm(s string) (time.Time, bool) {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " de ", " ")
	s = strings.ReplaceAll(s, ",", " ")
	for name, number := range spanishMonths {
		if strings.Contains(s, name) {
			s = strings.ReplaceAll(s, name, number)
			break
		}
	}
	s = strings.Join(strings.Fields(s), " ")
	for _, format := range freeFormFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseDecimal accepts both "1.234,56" and "1,234.56" conventions. When both
// separators appear, the rightmost one is the decimal mark and the other is a
// thousands separator; a lone comma is a decimal mark ("12,5" is 12.5).
func parseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, false
	}

	dot := strings.LastIndex(s, ".")
	comma := strings.LastIndex(s, ",")
	switch {
	case dot >= 0 && comma >= 0:
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		if strings.Count(s, ",") > 1 {
			// Only thousands separators: "1,234,567".
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
