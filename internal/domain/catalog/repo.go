package catalog

import (
	"context"

	"bancaflow/internal/core/id"
)

// Repository defines persistence for the magazine catalog.
//
// Implementations must surface a barcode uniqueness violation as
// apperror.CodeDuplicate so callers can apply the retry-on-conflict
// re-fetch (concurrent creation of the same magazine).
type Repository interface {
	// Create inserts a new magazine.
	Create(ctx context.Context, magazine *Magazine) error

	// GetByID retrieves a magazine by ID.
	GetByID(ctx context.Context, magazineID id.ID) (*Magazine, error)

	// FindByBarcode retrieves a magazine by exact barcode.
	FindByBarcode(ctx context.Context, barcode string) (*Magazine, error)

	// List returns the full catalog snapshot, ordered by name.
	List(ctx context.Context) ([]*Magazine, error)

	// Update persists all mutable fields of an existing magazine.
	Update(ctx context.Context, magazine *Magazine) error

	// AdjustStock applies a stock delta atomically and returns the new
	// quantity. The store rejects adjustments that would drive stock below
	// zero with apperror.CodeInsufficientStock.
	AdjustStock(ctx context.Context, magazineID id.ID, delta int) (int, error)
}
