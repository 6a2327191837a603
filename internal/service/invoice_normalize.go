package service

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/kerem-gursoy/uup/internal/dto"
	"github.com/kerem-gursoy/uup/internal/extraction"
)

// nullableNumber accepts a JSON number or a numeric string. Anything else,
// including blank strings and non-finite values, becomes nil.
func nullableNumber(v any) *float64 {
	var f float64
	switch t := v.(type) {
	case json.Number:
		parsed, err := strconv.ParseFloat(t.String(), 64)
		if err != nil {
			return nil
		}
		f = parsed
	case float64:
		f = t
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// nullableString trims strings and maps blanks to nil. JSON numbers keep their
// literal text so numeric barcodes and codes survive.
func nullableString(v any) *string {
	var s string
	switch t := v.(type) {
	case string:
		s = strings.TrimSpace(t)
	case json.Number:
		s = t.String()
	default:
		return nil
	}
	if s == "" {
		return nil
	}
	return &s
}

func normalizeLine(item map[string]any) dto.ParsedInvoiceLine {
	description, _ := item["description"].(string)
	return dto.ParsedInvoiceLine{
		LineNo:      nullableNumber(item["line_no"]),
		Code:        nullableString(item["code"]),
		Description: strings.TrimSpace(description),
		Barcode:     nullableString(item["barcode"]),
		Quantity:    nullableNumber(item["quantity"]),
		Unit:        nullableString(item["unit"]),
		UnitPrice:   nullableNumber(item["unit_price"]),
		TotalPrice:  nullableNumber(item["total_price"]),
	}
}

// normalizeLines converts every extracted item. Match fields stay empty.
func normalizeLines(doc *extraction.Document) []dto.ParsedInvoiceLine {
	lines := make([]dto.ParsedInvoiceLine, len(doc.LineItems))
	for i, item := range doc.LineItems {
		lines[i] = normalizeLine(item)
	}
	return lines
}
