// Package stock provides the stock ledger: the single place where document
// processing turns into stock deltas and per-document line associations.
package stock

import (
	"context"
	"fmt"
	"time"

	"bancaflow/internal/core/apperror"
	"bancaflow/internal/core/id"
	"bancaflow/internal/core/types"
	"bancaflow/internal/domain/catalog"
	"bancaflow/pkg/logger"
)

// DeliveryLines records delivered quantities against a delivery document.
type DeliveryLines interface {
	Add(ctx context.Context, documentID, magazineID id.ID, quantity int) error
}

// OpenReturnLine is an outstanding return obligation for one magazine.
type OpenReturnLine struct {
	LineID           id.ID
	DocumentID       id.ID
	ReferenceDate    time.Time
	QuantityToReturn int
}

// ReturnLines records and settles return obligations against return documents.
type ReturnLines interface {
	Add(ctx context.Context, documentID, magazineID id.ID, quantity int, receivedAt *time.Time) error

	// OpenForMagazine lists lines with quantity_to_return > 0, oldest
	// reference date first (ties broken by line id, which is time-ordered).
	OpenForMagazine(ctx context.Context, magazineID id.ID) ([]OpenReturnLine, error)

	// SetQuantityToReturn overwrites the outstanding quantity on one line.
	SetQuantityToReturn(ctx context.Context, lineID id.ID, quantity int) error
}

// Service applies stock effects once a catalog identity is known.
type Service struct {
	catalog       catalog.Repository
	deliveryLines DeliveryLines
	returnLines   ReturnLines
}

// NewService creates a new stock ledger service.
func NewService(catalogRepo catalog.Repository, deliveryLines DeliveryLines, returnLines ReturnLines) *Service {
	return &Service{
		catalog:       catalogRepo,
		deliveryLines: deliveryLines,
		returnLines:   returnLines,
	}
}

// ApplyDelivery increments stock and records the delivery line association.
// Negative incoming quantities are clamped to 0 before the increment.
func (s *Service) ApplyDelivery(ctx context.Context, documentID id.ID, magazineID id.ID, quantity int) error {
	if quantity < 0 {
		quantity = 0
	}

	if _, err := s.catalog.AdjustStock(ctx, magazineID, quantity); err != nil {
		return fmt.Errorf("adjust stock: %w", err)
	}

	if err := s.deliveryLines.Add(ctx, documentID, magazineID, quantity); err != nil {
		return fmt.Errorf("add delivery line: %w", err)
	}

	return nil
}

// RecordDeliveryLine writes the line association without touching stock.
// Used when the catalog entry was just created with the delivered quantity
// as its initial stock.
func (s *Service) RecordDeliveryLine(ctx context.Context, documentID, magazineID id.ID, quantity int) error {
	if quantity < 0 {
		quantity = 0
	}
	if err := s.deliveryLines.Add(ctx, documentID, magazineID, quantity); err != nil {
		return fmt.Errorf("add delivery line: %w", err)
	}
	return nil
}

// ApplyReturnIntake records what is expected back without touching stock.
// The association carries quantity, an equal initial quantity_to_return and
// the date the goods were originally received, when the document states it.
func (s *Service) ApplyReturnIntake(ctx context.Context, documentID id.ID, magazineID id.ID, quantity int, receivedAt *time.Time) error {
	if quantity < 0 {
		quantity = 0
	}

	if err := s.returnLines.Add(ctx, documentID, magazineID, quantity, receivedAt); err != nil {
		return fmt.Errorf("add return line: %w", err)
	}

	return nil
}

// ApplySale decrements stock and invokes persist to record the sale. The two
// writes cannot share a transaction with the external store's row-level
// interface, so atomicity is a compensating action: decrement, attempt
// persist, re-increment on persist failure.
//
// On success the sold quantity is consumed from outstanding return
// obligations, oldest reference date first; that settlement is best-effort
// and never unwinds the sale. Returns the new stock quantity.
func (s *Service) ApplySale(ctx context.Context, magazineID id.ID, quantity int, persist func(ctx context.Context) error) (int, error) {
	if quantity <= 0 {
		return 0, apperror.NewValidation("sale quantity must be positive").
			WithDetail("field", "quantity")
	}

	mag, err := s.catalog.GetByID(ctx, magazineID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return 0, apperror.NewNotFound("magazine", magazineID.String())
		}
		return 0, err
	}

	if mag.StockQuantity < quantity {
		return 0, apperror.NewInsufficientStock(magazineID.String(), quantity, mag.StockQuantity)
	}

	newStock, err := s.catalog.AdjustStock(ctx, magazineID, -quantity)
	if err != nil {
		return 0, fmt.Errorf("decrement stock: %w", err)
	}

	if err := persist(ctx); err != nil {
		// Compensating action: the sale record did not land, put the stock back.
		if _, compErr := s.catalog.AdjustStock(ctx, magazineID, quantity); compErr != nil {
			logger.Error(ctx, "stock compensation failed after sale persist error",
				"magazine_id", magazineID,
				"quantity", quantity,
				"persist_error", err,
				"compensation_error", compErr,
			)
		}
		return 0, fmt.Errorf("persist sale: %w", err)
	}

	s.consumeReturnObligations(ctx, magazineID, quantity)

	return newStock, nil
}

// consumeReturnObligations walks open return lines for the magazine,
// oldest first, decrementing quantity_to_return until the sold quantity is
// used up. Failures are logged and do not affect the sale.
func (s *Service) consumeReturnObligations(ctx context.Context, magazineID id.ID, quantity int) {
	lines, err := s.returnLines.OpenForMagazine(ctx, magazineID)
	if err != nil {
		logger.Warn(ctx, "could not load open return lines",
			"magazine_id", magazineID,
			"error", err,
		)
		return
	}

	remaining := quantity
	for _, line := range lines {
		if remaining <= 0 {
			break
		}

		consumed := line.QuantityToReturn
		if consumed > remaining {
			consumed = remaining
		}

		if err := s.returnLines.SetQuantityToReturn(ctx, line.LineID, line.QuantityToReturn-consumed); err != nil {
			logger.Warn(ctx, "could not settle return line",
				"line_id", line.LineID,
				"magazine_id", magazineID,
				"error", err,
			)
			continue
		}
		remaining -= consumed
	}

	if remaining < quantity {
		logger.Info(ctx, "return obligations consumed by sale",
			"magazine_id", magazineID,
			"consumed", quantity-remaining,
		)
	}
}

// EnsureEntry creates a catalog entry from a line item. A barcode uniqueness
// violation means another writer already created this entry; the ledger
// re-queries by barcode and reuses the found entry rather than failing.
// Returns the entry and whether it was created by this call.
func (s *Service) EnsureEntry(ctx context.Context, item catalog.LineItem, initialStock int) (*catalog.Magazine, bool, error) {
	if initialStock < 0 {
		initialStock = 0
	}

	edition := 0
	if item.EditionNumber != nil {
		edition = *item.EditionNumber
	}

	mag := catalog.NewMagazine(item.Name, edition)
	mag.StockQuantity = initialStock

	if catalog.IsWellFormedBarcode(item.Barcode) {
		mag.SetBarcode(item.Barcode)
	}

	if item.CoverPrice != "" {
		price, err := types.ParseMoney(item.CoverPrice)
		if err != nil {
			return nil, false, apperror.NewValidation("unparseable cover price").
				WithDetail("value", item.CoverPrice)
		}
		mag.CoverPrice = price
	}
	if item.NetPrice != "" {
		price, err := types.ParseMoney(item.NetPrice)
		if err == nil {
			mag.NetPrice = &price
		}
	}

	if err := s.catalog.Create(ctx, mag); err != nil {
		if apperror.IsDuplicate(err) && mag.HasBarcode() {
			existing, findErr := s.catalog.FindByBarcode(ctx, *mag.Barcode)
			if findErr != nil {
				return nil, false, fmt.Errorf("re-fetch after barcode conflict: %w", findErr)
			}
			logger.Warn(ctx, "concurrent magazine creation detected, reusing existing entry",
				"magazine_id", existing.ID,
				"barcode", *mag.Barcode,
			)
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("create magazine: %w", err)
	}

	return mag, true, nil
}

// BackfillBarcode writes a well-formed barcode onto a magazine that has none.
// Best-effort: conflicts and storage errors are logged, never propagated.
func (s *Service) BackfillBarcode(ctx context.Context, mag *catalog.Magazine, barcode string) {
	if !mag.SetBarcode(barcode) {
		return
	}
	if err := s.catalog.Update(ctx, mag); err != nil {
		logger.Warn(ctx, "barcode back-fill failed",
			"magazine_id", mag.ID,
			"barcode", barcode,
			"error", err,
		)
	}
}
