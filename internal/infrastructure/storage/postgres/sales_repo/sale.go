// Package sales_repo provides the PostgreSQL implementation of the sales
// repository.
package sales_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"bancaflow/internal/core/id"
	"bancaflow/internal/domain/sales"
	"bancaflow/internal/infrastructure/storage/postgres"
)

const salesTable = "sales"

var _ sales.Repository = (*SaleRepo)(nil)

// SaleRepo persists sales in PostgreSQL.
type SaleRepo struct {
	txm *postgres.TxManager
}

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(txm *postgres.TxManager) *SaleRepo {
	return &SaleRepo{txm: txm}
}

// Create inserts the sale.
func (r *SaleRepo) Create(ctx context.Context, sale *sales.Sale) error {
	q := squirrel.StatementBuilder.
		PlaceholderFormat(squirrel.Dollar).
		Insert(salesTable).
		SetMap(postgres.StructToMap(sale))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}

	return nil
}

// ListRecentByOwner returns the owner's latest sales, newest first.
func (r *SaleRepo) ListRecentByOwner(ctx context.Context, ownerID id.ID, limit int) ([]*sales.SaleWithMagazine, error) {
	sql := `
		SELECT s.id, s.owner_id, s.magazine_id, s.payment_method,
		       s.quantity, s.discount_applied, s.total_value,
		       s.sold_at, s.created_at,
		       m.name AS magazine_name, m.edition_number
		FROM sales s
		JOIN magazines m ON m.id = s.magazine_id
		WHERE s.owner_id = $1
		ORDER BY s.sold_at DESC, s.created_at DESC
		LIMIT $2
	`

	var rows []*sales.SaleWithMagazine
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, ownerID, limit); err != nil {
		return nil, fmt.Errorf("list recent sales: %w", err)
	}

	return rows, nil
}
