package returncall

import (
	"context"
	"time"

	"bancaflow/internal/core/id"
)

// Repository persists return calls and their lines.
type Repository interface {
	// Create inserts the document.
	Create(ctx context.Context, doc *Document) error

	// ExistsByDeadline reports whether the owner already registered a
	// return call with this deadline.
	ExistsByDeadline(ctx context.Context, ownerID id.ID, deadline time.Time) (bool, error)

	// SetFileURL stores the archived document's access URL.
	SetFileURL(ctx context.Context, docID id.ID, url string) error

	// GetByOwner returns one document with its lines, scoped to the owner.
	GetByOwner(ctx context.Context, docID, ownerID id.ID) (*DocumentWithLines, error)

	// ListByOwner returns the owner's return calls, newest deadline first.
	ListByOwner(ctx context.Context, ownerID id.ID) ([]*Document, error)

	// UpdateStatus transitions the owner's document to the given status.
	// A document that does not exist or belongs to someone else is a
	// not found error.
	UpdateStatus(ctx context.Context, docID, ownerID id.ID, status Status) error
}
