// Package document_repo provides PostgreSQL implementations for the
// delivery note and return call repositories.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"bancaflow/internal/core/apperror"
	"bancaflow/internal/core/id"
	"bancaflow/internal/domain/documents/delivery"
	"bancaflow/internal/domain/stock"
	"bancaflow/internal/infrastructure/storage/postgres"
)

const (
	deliveryNotesTable = "delivery_notes"
	deliveryLinesTable = "delivery_note_lines"
)

// Compile-time checks: the repo serves both the document side and the
// stock ledger's line recording.
var (
	_ delivery.Repository = (*DeliveryRepo)(nil)
	_ stock.DeliveryLines = (*DeliveryRepo)(nil)
)

// DeliveryRepo persists delivery notes and their lines.
type DeliveryRepo struct {
	txm  *postgres.TxManager
	cols []string
}

// NewDeliveryRepo creates a new delivery note repository.
func NewDeliveryRepo(txm *postgres.TxManager) *DeliveryRepo {
	return &DeliveryRepo{
		txm:  txm,
		cols: postgres.ExtractDBColumns[delivery.Document](),
	}
}

func (r *DeliveryRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts the document.
func (r *DeliveryRepo) Create(ctx context.Context, doc *delivery.Document) error {
	q := r.builder().
		Insert(deliveryNotesTable).
		SetMap(postgres.StructToMap(doc))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert delivery note: %w", err)
	}

	return nil
}

// SetFileURL stores the archived document's access URL.
func (r *DeliveryRepo) SetFileURL(ctx context.Context, docID id.ID, url string) error {
	sql := `UPDATE delivery_notes SET file_url = $2 WHERE id = $1`

	querier := r.txm.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, docID, url)
	if err != nil {
		return fmt.Errorf("set file url: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("delivery note", docID.String())
	}

	return nil
}

// GetByOwner returns one document with its lines, scoped to the owner.
func (r *DeliveryRepo) GetByOwner(ctx context.Context, docID, ownerID id.ID) (*delivery.DocumentWithLines, error) {
	q := r.builder().
		Select(r.cols...).
		From(deliveryNotesTable).
		Where(squirrel.Eq{"id": docID, "owner_id": ownerID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var doc delivery.Document
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("delivery note", docID.String())
		}
		return nil, fmt.Errorf("get delivery note: %w", err)
	}

	lines, err := r.linesFor(ctx, docID)
	if err != nil {
		return nil, err
	}

	return &delivery.DocumentWithLines{Document: doc, Lines: lines}, nil
}

func (r *DeliveryRepo) linesFor(ctx context.Context, docID id.ID) ([]delivery.LineDetail, error) {
	sql := `
		SELECT l.id, l.document_id, l.magazine_id, l.quantity,
		       m.name AS magazine_name, m.edition_number
		FROM delivery_note_lines l
		JOIN magazines m ON m.id = l.magazine_id
		WHERE l.document_id = $1
		ORDER BY m.name, m.edition_number
	`

	var lines []delivery.LineDetail
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, docID); err != nil {
		return nil, fmt.Errorf("list delivery lines: %w", err)
	}

	return lines, nil
}

// ListByOwner returns the owner's documents, newest reference date first.
func (r *DeliveryRepo) ListByOwner(ctx context.Context, ownerID id.ID) ([]*delivery.Document, error) {
	q := r.builder().
		Select(r.cols...).
		From(deliveryNotesTable).
		Where(squirrel.Eq{"owner_id": ownerID}).
		OrderBy("reference_date DESC, created_at DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var docs []*delivery.Document
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &docs, sql, args...); err != nil {
		return nil, fmt.Errorf("list delivery notes: %w", err)
	}

	return docs, nil
}

// Add records one delivered line. Repeated magazines within a document
// accumulate into a single line.
func (r *DeliveryRepo) Add(ctx context.Context, documentID, magazineID id.ID, quantity int) error {
	sql := `
		INSERT INTO delivery_note_lines (id, document_id, magazine_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (document_id, magazine_id)
		DO UPDATE SET quantity = delivery_note_lines.quantity + EXCLUDED.quantity
	`

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, id.New(), documentID, magazineID, quantity); err != nil {
		return fmt.Errorf("add delivery line: %w", err)
	}

	return nil
}
