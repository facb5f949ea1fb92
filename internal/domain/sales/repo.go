package sales

import (
	"context"

	"bancaflow/internal/core/id"
)

// SaleWithMagazine is a sale joined against the catalog for display.
type SaleWithMagazine struct {
	Sale
	MagazineName  string `json:"magazine_name" db:"magazine_name"`
	EditionNumber int    `json:"edition_number" db:"edition_number"`
}

// Repository persists sales.
type Repository interface {
	// Create inserts the sale.
	Create(ctx context.Context, sale *Sale) error

	// ListRecentByOwner returns the owner's latest sales, newest first.
	ListRecentByOwner(ctx context.Context, ownerID id.ID, limit int) ([]*SaleWithMagazine, error)
}
