package product

import (
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

const (
	MaxSKULength  = 255
	MaxNameLength = 1024

	// MaxPrice is the largest magnitude a NUMERIC(12,2) column holds.
	MaxPrice = 9999999999.99
)

type Product struct {
	ID          int64
	SKU         string
	Identity    string
	Name        string
	Description string
	Price       *float64
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Record is one validated catalog row ready to be upserted. SKU keeps the
// caller's casing; Identity is the normalized form uniqueness is enforced on.
type Record struct {
	SKU         string
	Identity    string
	Name        string
	Description string
	Price       *float64
	Active      bool
}

// NormalizeIdentity trims and case-folds a natural key.
func NormalizeIdentity(sku string) string {
	return cases.Fold().String(strings.TrimSpace(sku))
}

// NewRecord validates the required fields and derives the identity.
func NewRecord(sku, name, description string, price *float64, active bool) (Record, error) {
	sku = truncate(strings.TrimSpace(sku), MaxSKULength)
	if sku == "" {
		return Record{}, ErrMissingSKU
	}
	identity := NormalizeIdentity(sku)
	if utf8.RuneCountInString(identity) > MaxSKULength {
		return Record{}, ErrSKUTooLong
	}
	name = truncate(strings.TrimSpace(name), MaxNameLength)
	if name == "" {
		return Record{}, ErrMissingName
	}
	if price != nil {
		price = NormalizePrice(*price)
		if price == nil {
			return Record{}, ErrPriceOutOfRange
		}
	}

	return Record{
		SKU:         sku,
		Identity:    identity,
		Name:        name,
		Description: strings.TrimSpace(description),
		Price:       price,
		Active:      active,
	}, nil
}

func truncate(value string, maxRunes int) string {
	if utf8.RuneCountInString(value) <= maxRunes {
		return value
	}
	runes := []rune(value)
	return string(runes[:maxRunes])
}

func (r Record) Valid() bool {
	return r.Identity != "" && strings.TrimSpace(r.Name) != ""
}
