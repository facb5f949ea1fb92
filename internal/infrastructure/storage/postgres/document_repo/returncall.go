package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"bancaflow/internal/core/apperror"
	"bancaflow/internal/core/id"
	"bancaflow/internal/domain/documents/returncall"
	"bancaflow/internal/domain/stock"
	"bancaflow/internal/infrastructure/storage/postgres"
)

const (
	returnCallsTable = "return_calls"
	returnLinesTable = "return_call_lines"
)

var (
	_ returncall.Repository = (*ReturnCallRepo)(nil)
	_ stock.ReturnLines     = (*ReturnCallRepo)(nil)
)

// ReturnCallRepo persists return calls and their lines.
type ReturnCallRepo struct {
	txm  *postgres.TxManager
	cols []string
}

// NewReturnCallRepo creates a new return call repository.
func NewReturnCallRepo(txm *postgres.TxManager) *ReturnCallRepo {
	return &ReturnCallRepo{
		txm:  txm,
		cols: postgres.ExtractDBColumns[returncall.Document](),
	}
}

func (r *ReturnCallRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts the document.
func (r *ReturnCallRepo) Create(ctx context.Context, doc *returncall.Document) error {
	q := r.builder().
		Insert(returnCallsTable).
		SetMap(postgres.StructToMap(doc))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err, "return_calls_owner_deadline_key") {
			return apperror.NewDuplicateDocument(doc.OwnerID.String(), doc.Deadline.Format("2006-01-02")).WithCause(err)
		}
		return fmt.Errorf("insert return call: %w", err)
	}

	return nil
}

// ExistsByDeadline reports whether the owner already registered a return
// call with this deadline.
func (r *ReturnCallRepo) ExistsByDeadline(ctx context.Context, ownerID id.ID, deadline time.Time) (bool, error) {
	sql := `
		SELECT EXISTS(
			SELECT 1 FROM return_calls
			WHERE owner_id = $1 AND deadline = $2
		)
	`

	var exists bool
	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, ownerID, deadline).Scan(&exists); err != nil {
		return false, fmt.Errorf("check return call deadline: %w", err)
	}

	return exists, nil
}

// SetFileURL stores the archived document's access URL.
func (r *ReturnCallRepo) SetFileURL(ctx context.Context, docID id.ID, url string) error {
	sql := `UPDATE return_calls SET file_url = $2 WHERE id = $1`

	querier := r.txm.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, docID, url)
	if err != nil {
		return fmt.Errorf("set file url: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("return call", docID.String())
	}

	return nil
}

// GetByOwner returns one document with its lines, scoped to the owner.
func (r *ReturnCallRepo) GetByOwner(ctx context.Context, docID, ownerID id.ID) (*returncall.DocumentWithLines, error) {
	q := r.builder().
		Select(r.cols...).
		From(returnCallsTable).
		Where(squirrel.Eq{"id": docID, "owner_id": ownerID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var doc returncall.Document
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("return call", docID.String())
		}
		return nil, fmt.Errorf("get return call: %w", err)
	}

	lines, err := r.linesFor(ctx, docID)
	if err != nil {
		return nil, err
	}

	return &returncall.DocumentWithLines{Document: doc, Lines: lines}, nil
}

func (r *ReturnCallRepo) linesFor(ctx context.Context, docID id.ID) ([]returncall.LineDetail, error) {
	sql := `
		SELECT l.id, l.document_id, l.magazine_id,
		       l.quantity_received, l.quantity_to_return, l.received_date,
		       m.name AS magazine_name, m.edition_number
		FROM return_call_lines l
		JOIN magazines m ON m.id = l.magazine_id
		WHERE l.document_id = $1
		ORDER BY m.name, m.edition_number
	`

	var lines []returncall.LineDetail
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, docID); err != nil {
		return nil, fmt.Errorf("list return call lines: %w", err)
	}

	return lines, nil
}

// ListByOwner returns the owner's return calls, newest deadline first.
func (r *ReturnCallRepo) ListByOwner(ctx context.Context, ownerID id.ID) ([]*returncall.Document, error) {
	q := r.builder().
		Select(r.cols...).
		From(returnCallsTable).
		Where(squirrel.Eq{"owner_id": ownerID}).
		OrderBy("deadline DESC, created_at DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var docs []*returncall.Document
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &docs, sql, args...); err != nil {
		return nil, fmt.Errorf("list return calls: %w", err)
	}

	return docs, nil
}

// UpdateStatus transitions the owner's document to the given status.
// A document that does not exist or belongs to someone else is reported as
// not found, indistinguishably.
func (r *ReturnCallRepo) UpdateStatus(ctx context.Context, docID, ownerID id.ID, status returncall.Status) error {
	sql := `UPDATE return_calls SET status = $3 WHERE id = $1 AND owner_id = $2`

	querier := r.txm.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, docID, ownerID, status)
	if err != nil {
		return fmt.Errorf("update return call status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("return call", docID.String())
	}

	return nil
}

// Add records one line of the return call. The outstanding quantity starts
// equal to the received quantity and is consumed by later sales. An already
// recorded received date is never overwritten by a merge.
func (r *ReturnCallRepo) Add(ctx context.Context, documentID, magazineID id.ID, quantity int, receivedAt *time.Time) error {
	sql := `
		INSERT INTO return_call_lines (
			id, document_id, magazine_id, quantity_received, quantity_to_return, received_date
		) VALUES ($1, $2, $3, $4, $4, $5)
		ON CONFLICT (document_id, magazine_id)
		DO UPDATE SET
			quantity_received = return_call_lines.quantity_received + EXCLUDED.quantity_received,
			quantity_to_return = return_call_lines.quantity_to_return + EXCLUDED.quantity_to_return,
			received_date = COALESCE(return_call_lines.received_date, EXCLUDED.received_date)
	`

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, id.New(), documentID, magazineID, quantity, receivedAt); err != nil {
		return fmt.Errorf("add return call line: %w", err)
	}

	return nil
}

// OpenForMagazine lists lines with an outstanding quantity, oldest deadline
// first. Line IDs are UUIDv7, so the id tiebreak is creation-ordered.
func (r *ReturnCallRepo) OpenForMagazine(ctx context.Context, magazineID id.ID) ([]stock.OpenReturnLine, error) {
	sql := `
		SELECT l.id AS line_id, l.document_id, d.deadline AS reference_date,
		       l.quantity_to_return
		FROM return_call_lines l
		JOIN return_calls d ON d.id = l.document_id
		WHERE l.magazine_id = $1 AND l.quantity_to_return > 0
		ORDER BY d.deadline, l.id
	`

	var lines []stock.OpenReturnLine
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, magazineID); err != nil {
		return nil, fmt.Errorf("list open return lines: %w", err)
	}

	return lines, nil
}

// SetQuantityToReturn overwrites the outstanding quantity on one line.
func (r *ReturnCallRepo) SetQuantityToReturn(ctx context.Context, lineID id.ID, quantity int) error {
	sql := `UPDATE return_call_lines SET quantity_to_return = $2 WHERE id = $1`

	querier := r.txm.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, lineID, quantity)
	if err != nil {
		return fmt.Errorf("set quantity to return: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("return call line", lineID.String())
	}

	return nil
}
