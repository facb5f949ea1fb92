// Package catalog provides the magazine catalog: one entry per distinct
// sellable magazine edition, with cover price and current stock.
package catalog

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"bancaflow/internal/core/apperror"
	"bancaflow/internal/core/id"
	"bancaflow/internal/core/types"
)

// barcodePattern matches EAN-13 style numeric barcodes.
var barcodePattern = regexp.MustCompile(`^\d{13}$`)

// Magazine represents one distinct magazine+edition product record.
type Magazine struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Name is the full title as printed on the distributor document
	Name string `db:"name" json:"name"`

	// Nickname is an optional short name used by the seller
	Nickname *string `db:"nickname" json:"nickname,omitempty"`

	// EditionNumber is the issue number; 0 when the document omits it
	EditionNumber int `db:"edition_number" json:"editionNumber"`

	// Barcode is the EAN-13 barcode, unique when present
	Barcode *string `db:"barcode" json:"barcode,omitempty"`

	// StockQuantity is the current on-hand quantity
	StockQuantity int `db:"stock_quantity" json:"stockQuantity"`

	// CoverPrice is the printed cover price
	CoverPrice types.Money `db:"cover_price" json:"coverPrice"`

	// NetPrice is the distributor net price, when known
	NetPrice *types.Money `db:"net_price" json:"netPrice,omitempty"`

	// ImageURL is the cover image URL, when uploaded
	ImageURL *string `db:"image_url" json:"imageUrl,omitempty"`
}

// NewMagazine creates a new Magazine with generated ID.
func NewMagazine(name string, editionNumber int) *Magazine {
	return &Magazine{
		ID:            id.New(),
		Name:          name,
		EditionNumber: editionNumber,
		CoverPrice:    types.Zero(),
	}
}

// Validate checks entity invariants.
func (m *Magazine) Validate(ctx context.Context) error {
	if strings.TrimSpace(m.Name) == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}

	if m.StockQuantity < 0 {
		return apperror.NewValidation("stock quantity cannot be negative").
			WithDetail("field", "stockQuantity")
	}

	if m.CoverPrice.IsNegative() {
		return apperror.NewValidation("cover price cannot be negative").
			WithDetail("field", "coverPrice")
	}

	if m.Barcode != nil && *m.Barcode != "" && !barcodePattern.MatchString(*m.Barcode) {
		return apperror.NewValidation("barcode must be 13 digits").
			WithDetail("field", "barcode").
			WithDetail("value", *m.Barcode)
	}

	return nil
}

// HasBarcode reports whether the magazine carries a non-empty barcode.
func (m *Magazine) HasBarcode() bool {
	return m.Barcode != nil && strings.TrimSpace(*m.Barcode) != ""
}

// EditionKey returns the edition number as a comparison string.
// Unknown editions compare as "0" so documents without an edition column
// still group together.
func (m *Magazine) EditionKey() string {
	return strconv.Itoa(m.EditionNumber)
}

// SetBarcode back-fills the barcode if it is absent and the incoming value is
// well-formed. Returns true when the field was changed.
func (m *Magazine) SetBarcode(barcode string) bool {
	barcode = strings.TrimSpace(barcode)
	if m.HasBarcode() || !barcodePattern.MatchString(barcode) {
		return false
	}
	m.Barcode = &barcode
	return true
}

// IsWellFormedBarcode reports whether s is an EAN-13 style barcode.
func IsWellFormedBarcode(s string) bool {
	return barcodePattern.MatchString(strings.TrimSpace(s))
}
