package delivery

import (
	"context"

	"bancaflow/internal/core/id"
)

// Repository persists delivery documents and their lines.
type Repository interface {
	// Create inserts the document.
	Create(ctx context.Context, doc *Document) error

	// SetFileURL stores the archived document's access URL.
	SetFileURL(ctx context.Context, docID id.ID, url string) error

	// GetByOwner returns one document with its lines, scoped to the owner.
	GetByOwner(ctx context.Context, docID, ownerID id.ID) (*DocumentWithLines, error)

	// ListByOwner returns the owner's documents, newest reference date first.
	ListByOwner(ctx context.Context, ownerID id.ID) ([]*Document, error)
}
