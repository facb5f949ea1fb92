// Package catalog_repo provides the PostgreSQL implementation of the
// magazine catalog repository.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"bancaflow/internal/core/apperror"
	"bancaflow/internal/core/id"
	"bancaflow/internal/domain/catalog"
	"bancaflow/internal/infrastructure/storage/postgres"
)

const magazinesTable = "magazines"

// Compile-time check that MagazineRepo implements catalog.Repository.
var _ catalog.Repository = (*MagazineRepo)(nil)

// MagazineRepo persists catalog entries in PostgreSQL.
type MagazineRepo struct {
	txm  *postgres.TxManager
	cols []string
}

// NewMagazineRepo creates a new magazine repository.
func NewMagazineRepo(txm *postgres.TxManager) *MagazineRepo {
	return &MagazineRepo{
		txm:  txm,
		cols: postgres.ExtractDBColumns[catalog.Magazine](),
	}
}

func (r *MagazineRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *MagazineRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().Select(r.cols...).From(magazinesTable)
}

// Create inserts a new magazine. A barcode collision surfaces as
// apperror.CodeDuplicate so the caller can re-fetch and reuse.
func (r *MagazineRepo) Create(ctx context.Context, magazine *catalog.Magazine) error {
	data := postgres.StructToMap(magazine)

	q := r.builder().
		Insert(magazinesTable).
		SetMap(data)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err, "magazines_barcode_key") {
			barcode := ""
			if magazine.Barcode != nil {
				barcode = *magazine.Barcode
			}
			return apperror.NewDuplicate("magazine", "barcode", barcode).WithCause(err)
		}
		return fmt.Errorf("insert magazine: %w", err)
	}

	return nil
}

// GetByID retrieves a magazine by ID.
func (r *MagazineRepo) GetByID(ctx context.Context, magazineID id.ID) (*catalog.Magazine, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": magazineID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var mag catalog.Magazine
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &mag, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("magazine", magazineID.String())
		}
		return nil, fmt.Errorf("get magazine by id: %w", err)
	}

	return &mag, nil
}

// FindByBarcode retrieves a magazine by exact barcode.
func (r *MagazineRepo) FindByBarcode(ctx context.Context, barcode string) (*catalog.Magazine, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"barcode": barcode}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var mag catalog.Magazine
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &mag, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("magazine", barcode)
		}
		return nil, fmt.Errorf("get magazine by barcode: %w", err)
	}

	return &mag, nil
}

// List returns the full catalog, ordered by name.
func (r *MagazineRepo) List(ctx context.Context) ([]*catalog.Magazine, error) {
	q := r.baseSelect().OrderBy("name, edition_number")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var mags []*catalog.Magazine
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &mags, sql, args...); err != nil {
		return nil, fmt.Errorf("list magazines: %w", err)
	}

	return mags, nil
}

// Update persists all mutable fields of an existing magazine.
func (r *MagazineRepo) Update(ctx context.Context, magazine *catalog.Magazine) error {
	data := postgres.StructToMap(magazine)
	delete(data, "id")

	q := r.builder().
		Update(magazinesTable).
		SetMap(data).
		Where(squirrel.Eq{"id": magazine.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		if postgres.IsUniqueViolation(err, "magazines_barcode_key") {
			barcode := ""
			if magazine.Barcode != nil {
				barcode = *magazine.Barcode
			}
			return apperror.NewDuplicate("magazine", "barcode", barcode).WithCause(err)
		}
		return fmt.Errorf("update magazine: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("magazine", magazine.ID.String())
	}

	return nil
}

// AdjustStock applies a stock delta atomically and returns the new quantity.
// The WHERE guard keeps stock from going below zero under concurrent sales.
func (r *MagazineRepo) AdjustStock(ctx context.Context, magazineID id.ID, delta int) (int, error) {
	sql := `
		UPDATE magazines
		SET stock_quantity = stock_quantity + $2
		WHERE id = $1 AND stock_quantity + $2 >= 0
		RETURNING stock_quantity
	`

	querier := r.txm.GetQuerier(ctx)

	var newQuantity int
	err := querier.QueryRow(ctx, sql, magazineID, delta).Scan(&newQuantity)
	if err == nil {
		return newQuantity, nil
	}
	if !pgxscan.NotFound(err) {
		return 0, fmt.Errorf("adjust stock: %w", err)
	}

	// Zero rows: either the magazine is missing or the delta would have
	// driven stock negative. Disambiguate with a plain read.
	var current int
	checkSQL := `SELECT stock_quantity FROM magazines WHERE id = $1`
	if err := querier.QueryRow(ctx, checkSQL, magazineID).Scan(&current); err != nil {
		if pgxscan.NotFound(err) {
			return 0, apperror.NewNotFound("magazine", magazineID.String())
		}
		return 0, fmt.Errorf("adjust stock: %w", err)
	}

	return 0, apperror.NewInsufficientStock(magazineID.String(), -delta, current)
}
