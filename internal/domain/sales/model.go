// Package sales records counter sales and their stock effects.
package sales

import (
	"time"

	"bancaflow/internal/core/apperror"
	"bancaflow/internal/core/id"
	"bancaflow/internal/core/types"
)

// PaymentMethod is how the customer paid.
type PaymentMethod string

const (
	PaymentDebit  PaymentMethod = "debit"
	PaymentCredit PaymentMethod = "credit"
	PaymentCash   PaymentMethod = "cash"
	PaymentPix    PaymentMethod = "pix"
)

// Valid reports whether the payment method is one of the accepted values.
func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentDebit, PaymentCredit, PaymentCash, PaymentPix:
		return true
	}
	return false
}

// Sale is one recorded counter sale.
type Sale struct {
	ID              id.ID         `json:"id" db:"id"`
	OwnerID         id.ID         `json:"owner_id" db:"owner_id"`
	MagazineID      id.ID         `json:"magazine_id" db:"magazine_id"`
	PaymentMethod   PaymentMethod `json:"payment_method" db:"payment_method"`
	Quantity        int           `json:"quantity" db:"quantity"`
	DiscountApplied types.Money   `json:"discount_applied" db:"discount_applied"`
	TotalValue      types.Money   `json:"total_value" db:"total_value"`
	SoldAt          time.Time     `json:"sold_at" db:"sold_at"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
}

// Validate checks the sale's own fields, not its stock effect.
func (s *Sale) Validate() error {
	if !s.PaymentMethod.Valid() {
		return apperror.NewValidation("unknown payment method").
			WithDetail("payment_method", string(s.PaymentMethod))
	}
	if s.Quantity <= 0 {
		return apperror.NewValidation("sale quantity must be positive").
			WithDetail("quantity", s.Quantity)
	}
	if s.TotalValue.IsNegative() {
		return apperror.NewValidation("total value cannot be negative")
	}
	if s.DiscountApplied.IsNegative() {
		return apperror.NewValidation("discount cannot be negative")
	}
	return nil
}
