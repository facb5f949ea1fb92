package sales

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bancaflow/internal/core/apperror"
	"bancaflow/internal/core/id"
	"bancaflow/internal/core/types"
	"bancaflow/internal/domain/catalog"
	"bancaflow/internal/domain/stock"
)

type fakeCatalogRepo struct {
	byID      map[id.ID]*catalog.Magazine
	byBarcode map[string]*catalog.Magazine
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		byID:      make(map[id.ID]*catalog.Magazine),
		byBarcode: make(map[string]*catalog.Magazine),
	}
}

func (f *fakeCatalogRepo) put(m *catalog.Magazine) {
	f.byID[m.ID] = m
	if m.HasBarcode() {
		f.byBarcode[*m.Barcode] = m
	}
}

func (f *fakeCatalogRepo) Create(_ context.Context, m *catalog.Magazine) error {
	f.put(m)
	return nil
}

func (f *fakeCatalogRepo) GetByID(_ context.Context, magazineID id.ID) (*catalog.Magazine, error) {
	m, ok := f.byID[magazineID]
	if !ok {
		return nil, apperror.NewNotFound("magazine", magazineID)
	}
	return m, nil
}

func (f *fakeCatalogRepo) FindByBarcode(_ context.Context, barcode string) (*catalog.Magazine, error) {
	m, ok := f.byBarcode[barcode]
	if !ok {
		return nil, apperror.NewNotFound("magazine", barcode)
	}
	return m, nil
}

func (f *fakeCatalogRepo) List(_ context.Context) ([]*catalog.Magazine, error) {
	return nil, nil
}

func (f *fakeCatalogRepo) Update(_ context.Context, m *catalog.Magazine) error {
	f.put(m)
	return nil
}

func (f *fakeCatalogRepo) AdjustStock(_ context.Context, magazineID id.ID, delta int) (int, error) {
	m, ok := f.byID[magazineID]
	if !ok {
		return 0, apperror.NewNotFound("magazine", magazineID)
	}
	if m.StockQuantity+delta < 0 {
		return 0, apperror.NewInsufficientStock(magazineID.String(), -delta, m.StockQuantity)
	}
	m.StockQuantity += delta
	return m.StockQuantity, nil
}

type noDeliveryLines struct{}

func (noDeliveryLines) Add(context.Context, id.ID, id.ID, int) error { return nil }

type fakeReturnLines struct {
	open    []stock.OpenReturnLine
	settled map[id.ID]int
}

func newFakeReturnLines() *fakeReturnLines {
	return &fakeReturnLines{settled: make(map[id.ID]int)}
}

func (f *fakeReturnLines) Add(context.Context, id.ID, id.ID, int, *time.Time) error { return nil }

func (f *fakeReturnLines) OpenForMagazine(context.Context, id.ID) ([]stock.OpenReturnLine, error) {
	return f.open, nil
}

func (f *fakeReturnLines) SetQuantityToReturn(_ context.Context, lineID id.ID, quantity int) error {
	f.settled[lineID] = quantity
	return nil
}

type fakeSaleRepo struct {
	created   []*Sale
	createErr error
}

func (f *fakeSaleRepo) Create(_ context.Context, sale *Sale) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, sale)
	return nil
}

func (f *fakeSaleRepo) ListRecentByOwner(context.Context, id.ID, int) ([]*SaleWithMagazine, error) {
	return nil, nil
}

type salesFixture struct {
	svc     *Service
	repo    *fakeSaleRepo
	catalog *fakeCatalogRepo
	lines   *fakeReturnLines
}

func newSalesFixture() *salesFixture {
	f := &salesFixture{
		repo:    &fakeSaleRepo{},
		catalog: newFakeCatalogRepo(),
		lines:   newFakeReturnLines(),
	}
	ledger := stock.NewService(f.catalog, noDeliveryLines{}, f.lines)
	f.svc = NewService(f.repo, f.catalog, ledger)
	return f
}

func magazineWithBarcode(name string, edition, stockQty int, barcode string) *catalog.Magazine {
	m := catalog.NewMagazine(name, edition)
	m.StockQuantity = stockQty
	m.SetBarcode(barcode)
	return m
}

func TestRecord(t *testing.T) {
	ctx := context.Background()
	ownerID := id.New()

	t.Run("by barcode", func(t *testing.T) {
		f := newSalesFixture()
		mag := magazineWithBarcode("Superinteressante", 451, 5, "9771234567003")
		f.catalog.put(mag)

		result, err := f.svc.Record(ctx, ownerID, RecordInput{
			Barcode:       "9771234567003",
			PaymentMethod: PaymentPix,
			Quantity:      2,
			TotalValue:    types.MustMoney("27.80"),
		})
		require.NoError(t, err)

		assert.Equal(t, 3, result.RemainingStock)
		require.Len(t, f.repo.created, 1)
		sale := f.repo.created[0]
		assert.Equal(t, mag.ID, sale.MagazineID)
		assert.Equal(t, ownerID, sale.OwnerID)
		assert.False(t, sale.SoldAt.IsZero())
	})

	t.Run("by magazine id", func(t *testing.T) {
		f := newSalesFixture()
		mag := catalog.NewMagazine("Placar", 1512)
		mag.StockQuantity = 4
		f.catalog.put(mag)

		result, err := f.svc.Record(ctx, ownerID, RecordInput{
			MagazineID:    mag.ID,
			PaymentMethod: PaymentCash,
			Quantity:      1,
			TotalValue:    types.MustMoney("13.90"),
		})
		require.NoError(t, err)
		assert.Equal(t, 3, result.RemainingStock)
	})

	t.Run("unknown barcode", func(t *testing.T) {
		f := newSalesFixture()

		_, err := f.svc.Record(ctx, ownerID, RecordInput{
			Barcode:       "9770000000000",
			PaymentMethod: PaymentDebit,
			Quantity:      1,
		})
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))
	})

	t.Run("neither barcode nor id", func(t *testing.T) {
		f := newSalesFixture()

		_, err := f.svc.Record(ctx, ownerID, RecordInput{
			PaymentMethod: PaymentDebit,
			Quantity:      1,
		})
		require.Error(t, err)

		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeValidation, appErr.Code)
	})

	t.Run("insufficient stock records nothing", func(t *testing.T) {
		f := newSalesFixture()
		mag := magazineWithBarcode("Veja", 2904, 1, "9771234567010")
		f.catalog.put(mag)

		_, err := f.svc.Record(ctx, ownerID, RecordInput{
			Barcode:       "9771234567010",
			PaymentMethod: PaymentCredit,
			Quantity:      3,
			TotalValue:    types.MustMoney("59.70"),
		})
		require.Error(t, err)
		assert.True(t, apperror.IsInsufficientStock(err))
		assert.Empty(t, f.repo.created)
		assert.Equal(t, 1, f.catalog.byID[mag.ID].StockQuantity)
	})

	t.Run("persist failure restores stock", func(t *testing.T) {
		f := newSalesFixture()
		f.repo.createErr = errors.New("insert failed")
		mag := magazineWithBarcode("Veja", 2904, 5, "9771234567010")
		f.catalog.put(mag)

		_, err := f.svc.Record(ctx, ownerID, RecordInput{
			Barcode:       "9771234567010",
			PaymentMethod: PaymentCredit,
			Quantity:      2,
			TotalValue:    types.MustMoney("39.80"),
		})
		require.Error(t, err)
		assert.Equal(t, 5, f.catalog.byID[mag.ID].StockQuantity)
	})

	t.Run("invalid payment method", func(t *testing.T) {
		f := newSalesFixture()
		mag := magazineWithBarcode("Veja", 2904, 5, "9771234567010")
		f.catalog.put(mag)

		_, err := f.svc.Record(ctx, ownerID, RecordInput{
			Barcode:       "9771234567010",
			PaymentMethod: PaymentMethod("cheque"),
			Quantity:      1,
		})
		require.Error(t, err)

		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeValidation, appErr.Code)
		assert.Equal(t, 5, f.catalog.byID[mag.ID].StockQuantity)
	})

	t.Run("sale consumes open return obligations", func(t *testing.T) {
		f := newSalesFixture()
		mag := magazineWithBarcode("Caras", 1602, 10, "9771234567027")
		f.catalog.put(mag)

		lineID := id.New()
		f.lines.open = []stock.OpenReturnLine{{
			LineID:           lineID,
			DocumentID:       id.New(),
			QuantityToReturn: 5,
		}}

		_, err := f.svc.Record(ctx, ownerID, RecordInput{
			Barcode:       "9771234567027",
			PaymentMethod: PaymentPix,
			Quantity:      2,
			TotalValue:    types.MustMoney("27.80"),
		})
		require.NoError(t, err)
		assert.Equal(t, 3, f.lines.settled[lineID])
	})
}
