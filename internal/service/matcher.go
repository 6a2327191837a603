package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/kerem-gursoy/uup/internal/dto"
	"github.com/kerem-gursoy/uup/internal/repository"

	"gorm.io/gorm"
)

// ProductMatcher suggests a catalogue product for an extracted line. Matchers
// only fill the matched* fields; they never reject a line.
type ProductMatcher interface {
	Match(ctx context.Context, line *dto.ParsedInvoiceLine) error
}

// Matcher names accepted by NewProductMatcher.
const (
	MatcherNone    = "none"
	MatcherBarcode = "barcode"
)

// NewProductMatcher returns the matcher registered under name.
func NewProductMatcher(name string, products repository.ProductRepository) (ProductMatcher, error) {
	switch name {
	case "", MatcherNone:
		return NoMatch{}, nil
	case MatcherBarcode:
		return &BarcodeMatcher{products: products}, nil
	default:
		return nil, fmt.Errorf("unknown product matcher %q", name)
	}
}

// NoMatch leaves every line unmatched.
type NoMatch struct{}

func (NoMatch) Match(context.Context, *dto.ParsedInvoiceLine) error { return nil }

// BarcodeMatcher matches a line whose barcode equals a product barcode exactly.
type BarcodeMatcher struct {
	products repository.ProductRepository
}

func (m *BarcodeMatcher) Match(ctx context.Context, line *dto.ParsedInvoiceLine) error {
	if line.Barcode == nil {
		return nil
	}
	p, err := m.products.FindByBarcode(ctx, *line.Barcode)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	line.MatchedProductID = &p.ID
	line.MatchedProductName = &p.Name
	line.MatchedBrand = p.Brand
	line.MatchScore = 1
	return nil
}
