package sales

import (
	"context"
	"time"

	"bancaflow/internal/core/apperror"
	"bancaflow/internal/core/id"
	"bancaflow/internal/core/types"
	"bancaflow/internal/domain/catalog"
	"bancaflow/internal/domain/stock"
	"bancaflow/pkg/logger"
)

// RecordInput identifies the sold magazine either by barcode or directly by
// catalog id, plus the commercial details of the sale.
type RecordInput struct {
	Barcode         string
	MagazineID      id.ID
	PaymentMethod   PaymentMethod
	Quantity        int
	DiscountApplied types.Money
	TotalValue      types.Money
	SoldAt          time.Time
}

// RecordResult is the persisted sale plus the stock left after it.
type RecordResult struct {
	Sale           *Sale `json:"sale"`
	RemainingStock int   `json:"remaining_stock"`
}

// Service records sales through the stock ledger.
type Service struct {
	repo    Repository
	catalog catalog.Repository
	ledger  *stock.Service
}

// NewService creates a sales service.
func NewService(repo Repository, catalogRepo catalog.Repository, ledger *stock.Service) *Service {
	return &Service{repo: repo, catalog: catalogRepo, ledger: ledger}
}

// Record validates the sale, resolves the magazine, and applies it through
// the ledger so the stock decrement and the sale row land or fail together.
func (s *Service) Record(ctx context.Context, ownerID id.ID, input RecordInput) (*RecordResult, error) {
	magazineID := input.MagazineID
	if id.IsNil(magazineID) {
		if input.Barcode == "" {
			return nil, apperror.NewValidation("either barcode or magazine id is required")
		}
		mag, err := s.catalog.FindByBarcode(ctx, input.Barcode)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil, apperror.NewNotFound("magazine", input.Barcode)
			}
			return nil, err
		}
		magazineID = mag.ID
	}

	soldAt := input.SoldAt
	if soldAt.IsZero() {
		soldAt = time.Now().UTC()
	}

	sale := &Sale{
		ID:              id.New(),
		OwnerID:         ownerID,
		MagazineID:      magazineID,
		PaymentMethod:   input.PaymentMethod,
		Quantity:        input.Quantity,
		DiscountApplied: input.DiscountApplied,
		TotalValue:      input.TotalValue,
		SoldAt:          soldAt,
		CreatedAt:       time.Now().UTC(),
	}
	if err := sale.Validate(); err != nil {
		return nil, err
	}

	remaining, err := s.ledger.ApplySale(ctx, magazineID, sale.Quantity, func(ctx context.Context) error {
		return s.repo.Create(ctx, sale)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale recorded",
		"sale_id", sale.ID,
		"magazine_id", magazineID,
		"quantity", sale.Quantity,
		"payment_method", sale.PaymentMethod,
		"remaining_stock", remaining,
	)

	return &RecordResult{Sale: sale, RemainingStock: remaining}, nil
}

// Recent returns the owner's latest sales, newest first.
func (s *Service) Recent(ctx context.Context, ownerID id.ID, limit int) ([]*SaleWithMagazine, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListRecentByOwner(ctx, ownerID, limit)
}
