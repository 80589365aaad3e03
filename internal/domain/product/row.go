package product

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	ColumnSKU         = "sku"
	ColumnName        = "name"
	ColumnDescription = "description"
	ColumnPrice       = "price"
	ColumnActive      = "active"
)

// Header maps the known columns of a delimited file to their positions.
// Columns it does not know are ignored.
type Header struct {
	sku         int
	name        int
	description int
	price       int
	active      int
}

func ParseHeader(fields []string) (Header, error) {
	h := Header{sku: -1, name: -1, description: -1, price: -1, active: -1}
	for i, field := range fields {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(field, "\ufeff"))) {
		case ColumnSKU:
			h.sku = i
		case ColumnName:
			h.name = i
		case ColumnDescription:
			h.description = i
		case ColumnPrice:
			h.price = i
		case ColumnActive:
			h.active = i
		}
	}

	if h.sku < 0 {
		return Header{}, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnSKU)
	}
	if h.name < 0 {
		return Header{}, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnName)
	}
	return h, nil
}

// RowOutcome is either an accepted record or the reason the row was skipped.
type RowOutcome struct {
	Record     Record
	SkipReason string
}

func (o RowOutcome) Ok() bool {
	return o.SkipReason == ""
}

func Skipped(reason string) RowOutcome {
	return RowOutcome{SkipReason: reason}
}

// Parse turns one data row into a RowOutcome. It never fails the caller.
func (h Header) Parse(fields []string) RowOutcome {
	record, err := NewRecord(
		column(fields, h.sku),
		column(fields, h.name),
		column(fields, h.description),
		ParsePrice(column(fields, h.price)),
		ParseActive(column(fields, h.active)),
	)
	if err != nil {
		return Skipped(err.Error())
	}
	return RowOutcome{Record: record}
}

// ParsePrice returns nil for empty, unparseable or out of range values,
// never zero. Prices are rounded to cents.
func ParsePrice(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return NormalizePrice(value)
}

// NormalizePrice rounds to cents and returns nil when the result does not
// fit the stored precision.
func NormalizePrice(value float64) *float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) || math.Abs(value) > MaxPrice {
		return nil
	}
	rounded := math.Round(value*100) / 100
	if math.Abs(rounded) > MaxPrice {
		return nil
	}
	return &rounded
}

// ParseActive defaults to true for anything it cannot read as a boolean.
func ParseActive(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "false", "f", "0", "no", "n", "inactive":
		return false
	default:
		return true
	}
}

func column(fields []string, index int) string {
	if index < 0 || index >= len(fields) {
		return ""
	}
	return fields[index]
}
