package stock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bancaflow/internal/core/apperror"
	"bancaflow/internal/core/id"
	"bancaflow/internal/domain/catalog"
)

type fakeCatalogRepo struct {
	byID      map[id.ID]*catalog.Magazine
	byBarcode map[string]*catalog.Magazine

	createErr   error
	adjustCalls []int
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
	if f.createErr != nil {
		return f.createErr
	}
	if m.HasBarcode() {
		if _, ok := f.byBarcode[*m.Barcode]; ok {
			return apperror.NewDuplicate("magazine", "barcode", *m.Barcode)
		}
	}
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
	out := make([]*catalog.Magazine, 0, len(f.byID))
	for _, m := range f.byID {
		out = append(out, m)
	}
	return out, nil
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
	f.adjustCalls = append(f.adjustCalls, delta)
	return m.StockQuantity, nil
}

type deliveryLineCall struct {
	documentID id.ID
	magazineID id.ID
	quantity   int
}

type fakeDeliveryLines struct {
	calls []deliveryLineCall
	err   error
}

func (f *fakeDeliveryLines) Add(_ context.Context, documentID, magazineID id.ID, quantity int) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, deliveryLineCall{documentID, magazineID, quantity})
	return nil
}

type returnLineCall struct {
	documentID id.ID
	magazineID id.ID
	quantity   int
	receivedAt *time.Time
}

type fakeReturnLines struct {
	added   []returnLineCall
	open    []OpenReturnLine
	settled map[id.ID]int
	openErr error
}

func newFakeReturnLines() *fakeReturnLines {
	return &fakeReturnLines{settled: make(map[id.ID]int)}
}

func (f *fakeReturnLines) Add(_ context.Context, documentID, magazineID id.ID, quantity int, receivedAt *time.Time) error {
	f.added = append(f.added, returnLineCall{documentID, magazineID, quantity, receivedAt})
	return nil
}

func (f *fakeReturnLines) OpenForMagazine(_ context.Context, _ id.ID) ([]OpenReturnLine, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.open, nil
}

func (f *fakeReturnLines) SetQuantityToReturn(_ context.Context, lineID id.ID, quantity int) error {
	f.settled[lineID] = quantity
	return nil
}

func newMagazineWithStock(name string, edition, stock int) *catalog.Magazine {
	m := catalog.NewMagazine(name, edition)
	m.StockQuantity = stock
	return m
}

func TestApplyDelivery(t *testing.T) {
	ctx := context.Background()

	t.Run("increments stock and records line", func(t *testing.T) {
		repo := newFakeCatalogRepo()
		lines := &fakeDeliveryLines{}
		svc := NewService(repo, lines, newFakeReturnLines())

		mag := newMagazineWithStock("Mundo Estranho", 203, 4)
		repo.put(mag)
		docID := id.New()

		err := svc.ApplyDelivery(ctx, docID, mag.ID, 6)
		require.NoError(t, err)

		assert.Equal(t, 10, repo.byID[mag.ID].StockQuantity)
		require.Len(t, lines.calls, 1)
		assert.Equal(t, docID, lines.calls[0].documentID)
		assert.Equal(t, 6, lines.calls[0].quantity)
	})

	t.Run("clamps negative quantity to zero", func(t *testing.T) {
		repo := newFakeCatalogRepo()
		lines := &fakeDeliveryLines{}
		svc := NewService(repo, lines, newFakeReturnLines())

		mag := newMagazineWithStock("Quatro Rodas", 771, 4)
		repo.put(mag)

		err := svc.ApplyDelivery(ctx, id.New(), mag.ID, -3)
		require.NoError(t, err)

		assert.Equal(t, 4, repo.byID[mag.ID].StockQuantity)
		require.Len(t, lines.calls, 1)
		assert.Equal(t, 0, lines.calls[0].quantity)
	})
}

func TestApplyReturnIntake(t *testing.T) {
	ctx := context.Background()

	repo := newFakeCatalogRepo()
	lines := newFakeReturnLines()
	svc := NewService(repo, &fakeDeliveryLines{}, lines)

	mag := newMagazineWithStock("Veja", 2904, 7)
	repo.put(mag)
	docID := id.New()

	receivedAt := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	err := svc.ApplyReturnIntake(ctx, docID, mag.ID, 3, &receivedAt)
	require.NoError(t, err)

	// Stock is untouched until the physical return is confirmed.
	assert.Equal(t, 7, repo.byID[mag.ID].StockQuantity)
	require.Len(t, lines.added, 1)
	assert.Equal(t, 3, lines.added[0].quantity)
	require.NotNil(t, lines.added[0].receivedAt)
	assert.Equal(t, receivedAt, *lines.added[0].receivedAt)
}

func TestApplySale(t *testing.T) {
	ctx := context.Background()
	noopPersist := func(context.Context) error { return nil }

	t.Run("decrements stock and persists", func(t *testing.T) {
		repo := newFakeCatalogRepo()
		svc := NewService(repo, &fakeDeliveryLines{}, newFakeReturnLines())

		mag := newMagazineWithStock("Superinteressante", 451, 5)
		repo.put(mag)

		persisted := false
		newStock, err := svc.ApplySale(ctx, mag.ID, 2, func(context.Context) error {
			persisted = true
			return nil
		})
		require.NoError(t, err)
		assert.True(t, persisted)
		assert.Equal(t, 3, newStock)
		assert.Equal(t, 3, repo.byID[mag.ID].StockQuantity)
	})

	t.Run("insufficient stock leaves stock untouched", func(t *testing.T) {
		repo := newFakeCatalogRepo()
		svc := NewService(repo, &fakeDeliveryLines{}, newFakeReturnLines())

		mag := newMagazineWithStock("Superinteressante", 451, 1)
		repo.put(mag)

		_, err := svc.ApplySale(ctx, mag.ID, 2, noopPersist)
		require.Error(t, err)
		assert.True(t, apperror.IsInsufficientStock(err))
		assert.Equal(t, 1, repo.byID[mag.ID].StockQuantity)
		assert.Empty(t, repo.adjustCalls)
	})

	t.Run("persist failure compensates the decrement", func(t *testing.T) {
		repo := newFakeCatalogRepo()
		svc := NewService(repo, &fakeDeliveryLines{}, newFakeReturnLines())

		mag := newMagazineWithStock("Placar", 1512, 5)
		repo.put(mag)

		_, err := svc.ApplySale(ctx, mag.ID, 2, func(context.Context) error {
			return errors.New("insert failed")
		})
		require.Error(t, err)

		assert.Equal(t, 5, repo.byID[mag.ID].StockQuantity)
		assert.Equal(t, []int{-2, 2}, repo.adjustCalls)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		repo := newFakeCatalogRepo()
		svc := NewService(repo, &fakeDeliveryLines{}, newFakeReturnLines())

		mag := newMagazineWithStock("Placar", 1512, 5)
		repo.put(mag)

		_, err := svc.ApplySale(ctx, mag.ID, 0, noopPersist)
		require.Error(t, err)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeValidation, appErr.Code)
	})

	t.Run("unknown magazine is not found", func(t *testing.T) {
		svc := NewService(newFakeCatalogRepo(), &fakeDeliveryLines{}, newFakeReturnLines())

		_, err := svc.ApplySale(ctx, id.New(), 1, noopPersist)
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))
	})
}

func TestApplySaleConsumesReturnObligations(t *testing.T) {
	ctx := context.Background()
	noopPersist := func(context.Context) error { return nil }

	t.Run("oldest obligation settles first", func(t *testing.T) {
		repo := newFakeCatalogRepo()
		lines := newFakeReturnLines()
		svc := NewService(repo, &fakeDeliveryLines{}, lines)

		mag := newMagazineWithStock("Caras", 1602, 10)
		repo.put(mag)

		older := OpenReturnLine{
			LineID:           id.New(),
			DocumentID:       id.New(),
			ReferenceDate:    time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
			QuantityToReturn: 2,
		}
		newer := OpenReturnLine{
			LineID:           id.New(),
			DocumentID:       id.New(),
			ReferenceDate:    time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			QuantityToReturn: 4,
		}
		lines.open = []OpenReturnLine{older, newer}

		_, err := svc.ApplySale(ctx, mag.ID, 3, noopPersist)
		require.NoError(t, err)

		assert.Equal(t, 0, lines.settled[older.LineID])
		assert.Equal(t, 3, lines.settled[newer.LineID])
	})

	t.Run("settlement failure never unwinds the sale", func(t *testing.T) {
		repo := newFakeCatalogRepo()
		lines := newFakeReturnLines()
		lines.openErr = errors.New("list failed")
		svc := NewService(repo, &fakeDeliveryLines{}, lines)

		mag := newMagazineWithStock("Caras", 1602, 10)
		repo.put(mag)

		newStock, err := svc.ApplySale(ctx, mag.ID, 3, noopPersist)
		require.NoError(t, err)
		assert.Equal(t, 7, newStock)
	})
}

func TestEnsureEntry(t *testing.T) {
	ctx := context.Background()
	edition := 203

	t.Run("creates entry from line item", func(t *testing.T) {
		repo := newFakeCatalogRepo()
		svc := NewService(repo, &fakeDeliveryLines{}, newFakeReturnLines())

		item := catalog.LineItem{
			Name:          "Mundo Estranho",
			EditionNumber: &edition,
			Barcode:       "9771234567003",
			CoverPrice:    "13,90",
		}

		mag, created, err := svc.EnsureEntry(ctx, item, 5)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, 5, mag.StockQuantity)
		assert.Equal(t, 203, mag.EditionNumber)
		require.NotNil(t, mag.Barcode)
		assert.Equal(t, "9771234567003", *mag.Barcode)
		assert.Equal(t, "13.9", mag.CoverPrice.String())
	})

	t.Run("barcode conflict reuses existing entry", func(t *testing.T) {
		repo := newFakeCatalogRepo()
		svc := NewService(repo, &fakeDeliveryLines{}, newFakeReturnLines())

		existing := newMagazineWithStock("Mundo Estranho", 203, 2)
		existing.SetBarcode("9771234567003")
		repo.put(existing)

		item := catalog.LineItem{
			Name:          "Mundo Estranho",
			EditionNumber: &edition,
			Barcode:       "9771234567003",
		}

		mag, created, err := svc.EnsureEntry(ctx, item, 5)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, existing.ID, mag.ID)
		assert.Equal(t, 2, mag.StockQuantity)
	})

	t.Run("malformed barcode is dropped", func(t *testing.T) {
		repo := newFakeCatalogRepo()
		svc := NewService(repo, &fakeDeliveryLines{}, newFakeReturnLines())

		item := catalog.LineItem{Name: "Revista Avulsa", Barcode: "123"}

		mag, created, err := svc.EnsureEntry(ctx, item, 0)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Nil(t, mag.Barcode)
	})

	t.Run("clamps negative initial stock", func(t *testing.T) {
		repo := newFakeCatalogRepo()
		svc := NewService(repo, &fakeDeliveryLines{}, newFakeReturnLines())

		mag, _, err := svc.EnsureEntry(ctx, catalog.LineItem{Name: "Revista Avulsa"}, -4)
		require.NoError(t, err)
		assert.Equal(t, 0, mag.StockQuantity)
	})
}

func TestBackfillBarcode(t *testing.T) {
	ctx := context.Background()

	t.Run("fills missing barcode", func(t *testing.T) {
		repo := newFakeCatalogRepo()
		svc := NewService(repo, &fakeDeliveryLines{}, newFakeReturnLines())

		mag := newMagazineWithStock("Veja", 2904, 1)
		repo.put(mag)

		svc.BackfillBarcode(ctx, mag, "9771234567010")
		require.NotNil(t, repo.byID[mag.ID].Barcode)
		assert.Equal(t, "9771234567010", *repo.byID[mag.ID].Barcode)
	})

	t.Run("never overwrites an existing barcode", func(t *testing.T) {
		repo := newFakeCatalogRepo()
		svc := NewService(repo, &fakeDeliveryLines{}, newFakeReturnLines())

		mag := newMagazineWithStock("Veja", 2904, 1)
		mag.SetBarcode("9771234567010")
		repo.put(mag)

		svc.BackfillBarcode(ctx, mag, "9771234567027")
		assert.Equal(t, "9771234567010", *mag.Barcode)
	})
}
