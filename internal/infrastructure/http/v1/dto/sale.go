package dto

import (
	"time"

	"bancaflow/internal/core/apperror"
	"bancaflow/internal/core/id"
	"bancaflow/internal/core/types"
	"bancaflow/internal/domain/sales"
)

// RecordSaleRequest registers one counter sale. The magazine is identified
// either by scanned barcode or by catalog id.
type RecordSaleRequest struct {
	Barcode         string       `json:"barcode,omitempty"`
	MagazineID      string       `json:"magazineId,omitempty"`
	PaymentMethod   string       `json:"paymentMethod" binding:"required"`
	Quantity        int          `json:"quantity" binding:"required,min=1"`
	DiscountApplied *types.Money `json:"discountApplied,omitempty"`
	TotalValue      types.Money  `json:"totalValue" binding:"required"`
	SoldAt          *time.Time   `json:"soldAt,omitempty"`
}

// ToRecordInput converts to the domain input.
func (r *RecordSaleRequest) ToRecordInput() (sales.RecordInput, error) {
	input := sales.RecordInput{
		Barcode:       r.Barcode,
		PaymentMethod: sales.PaymentMethod(r.PaymentMethod),
		Quantity:      r.Quantity,
		TotalValue:    r.TotalValue,
	}

	if r.MagazineID != "" {
		magazineID, err := id.Parse(r.MagazineID)
		if err != nil {
			return sales.RecordInput{}, apperror.NewValidation("invalid magazine id").WithDetail("field", "magazineId")
		}
		input.MagazineID = magazineID
	}

	if r.DiscountApplied != nil {
		input.DiscountApplied = *r.DiscountApplied
	} else {
		input.DiscountApplied = types.Zero()
	}

	if r.SoldAt != nil {
		input.SoldAt = *r.SoldAt
	}

	return input, nil
}

// RegisterBarcodeRequest back-fills a barcode on a catalog entry.
type RegisterBarcodeRequest struct {
	Barcode string `json:"barcode" binding:"required"`
}
