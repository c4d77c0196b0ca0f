package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oboricienne/ordering/internal/domain"
	"github.com/oboricienne/ordering/internal/storage"
)

// mockStorage records every save so tests can check the persistence
// protocol without a real backend.
type mockStorage struct {
	m       sync.Mutex
	saved   map[string]domain.Snapshot
	saves   int
	loadErr error
	saveErr error
}

func newMockStorage() *mockStorage {
	return &mockStorage{saved: make(map[string]domain.Snapshot)}
}

func (m *mockStorage) Load(_ context.Context, key string) (domain.Snapshot, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.loadErr != nil {
		return domain.Snapshot{}, m.loadErr
	}
	snap, ok := m.saved[key]
	if !ok {
		return domain.Snapshot{}, storage.ErrNotFound
	}
	return snap.Clone(), nil
}

func (m *mockStorage) Save(_ context.Context, key string, snap domain.Snapshot) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved[key] = snap.Clone()
	return nil
}

func (m *mockStorage) Delete(_ context.Context, key string) error {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.saved, key)
	return nil
}

func (m *mockStorage) saveCount() int {
	m.m.Lock()
	defer m.m.Unlock()
	return m.saves
}

var (
	burger = domain.ProductInfo{ID: "p1", Name: "Le Classique", BasePrice: decimal.NewFromFloat(8.50)}
	tacos  = domain.ProductInfo{ID: "p2", Name: "Tacos XL", BasePrice: decimal.NewFromFloat(10.00)}

	extraCheese = domain.ChoiceSelection{
		GroupID: "g1", GroupName: "Fromage", OptionID: "o1", OptionName: "Extra cheese",
		PriceDelta: decimal.NewFromFloat(1.50),
	}
	noCheese = domain.ChoiceSelection{
		GroupID: "g1", GroupName: "Fromage", OptionID: "o2", OptionName: "No cheese",
		PriceDelta: decimal.Zero,
	}
)

func newTestStore(t *testing.T) (*Store, *mockStorage) {
	t.Helper()
	st := newMockStorage()
	return NewStore(context.Background(), "cart:test", st, zerolog.Nop()), st
}

func TestAddItem_NewLine(t *testing.T) {
	sut, _ := newTestStore(t)

	snap, err := sut.AddItem(context.Background(), burger, nil, 1, "")
	require.NoError(t, err)

	require.Len(t, snap.Items, 1)
	assert.NotEmpty(t, snap.Items[0].ID)
	assert.Equal(t, 1, snap.TotalItems)
	assert.Equal(t, "8.50", snap.Subtotal.StringFixed(2))
	assert.Equal(t, "8.50", snap.GrandTotal.StringFixed(2))
}

func TestAddItem_MergesSameConfiguration(t *testing.T) {
	sut, _ := newTestStore(t)
	ctx := context.Background()

	_, err := sut.AddItem(ctx, burger, nil, 1, "")
	require.NoError(t, err)
	snap, err := sut.AddItem(ctx, burger, nil, 2, "")
	require.NoError(t, err)

	require.Len(t, snap.Items, 1)
	assert.Equal(t, 3, snap.Items[0].Quantity)
	assert.Equal(t, 3, snap.TotalItems)
	assert.Equal(t, "25.50", snap.Subtotal.StringFixed(2))
}

func TestAddItem_ChoicePriceDelta(t *testing.T) {
	sut, _ := newTestStore(t)

	snap, err := sut.AddItem(context.Background(), tacos, []domain.ChoiceSelection{extraCheese}, 1, "")
	require.NoError(t, err)

	require.Len(t, snap.Items, 1)
	assert.Equal(t, "11.50", snap.Items[0].LineTotal.StringFixed(2))
}

func TestAddItem_DifferentChoicesSplitLines(t *testing.T) {
	sut, _ := newTestStore(t)
	ctx := context.Background()

	_, err := sut.AddItem(ctx, tacos, []domain.ChoiceSelection{extraCheese}, 1, "")
	require.NoError(t, err)
	snap, err := sut.AddItem(ctx, tacos, []domain.ChoiceSelection{noCheese}, 1, "")
	require.NoError(t, err)

	assert.Len(t, snap.Items, 2)
}

func TestAddItem_DifferentNoteSplitsLines(t *testing.T) {
	sut, _ := newTestStore(t)
	ctx := context.Background()

	_, err := sut.AddItem(ctx, burger, nil, 1, "")
	require.NoError(t, err)
	snap, err := sut.AddItem(ctx, burger, nil, 1, "sans oignons")
	require.NoError(t, err)

	assert.Len(t, snap.Items, 2)
}

func TestAddItem_ChoiceOrderDoesNotSplitLines(t *testing.T) {
	sut, _ := newTestStore(t)
	ctx := context.Background()

	other := domain.ChoiceSelection{
		GroupID: "g2", GroupName: "Sauce", OptionID: "o9", OptionName: "BBQ",
		PriceDelta: decimal.Zero,
	}

	_, err := sut.AddItem(ctx, tacos, []domain.ChoiceSelection{extraCheese, other}, 1, "")
	require.NoError(t, err)
	snap, err := sut.AddItem(ctx, tacos, []domain.ChoiceSelection{other, extraCheese}, 1, "")
	require.NoError(t, err)

	require.Len(t, snap.Items, 1)
	assert.Equal(t, 2, snap.Items[0].Quantity)
}

func TestAddItem_ClampsQuantityToOne(t *testing.T) {
	sut, _ := newTestStore(t)

	snap, err := sut.AddItem(context.Background(), burger, nil, -3, "")
	require.NoError(t, err)

	require.Len(t, snap.Items, 1)
	assert.Equal(t, 1, snap.Items[0].Quantity)
}

func TestAddItem_RejectsInvalidProduct(t *testing.T) {
	sut, _ := newTestStore(t)
	ctx := context.Background()

	_, err := sut.AddItem(ctx, domain.ProductInfo{Name: "no id"}, nil, 1, "")
	assert.ErrorIs(t, err, ErrInvalidProduct)

	negative := domain.ProductInfo{ID: "p9", BasePrice: decimal.NewFromFloat(-1)}
	_, err = sut.AddItem(ctx, negative, nil, 1, "")
	assert.ErrorIs(t, err, ErrInvalidProduct)

	assert.Empty(t, sut.Snapshot().Items)
}

func TestRemoveItem_DropsWholeLine(t *testing.T) {
	sut, _ := newTestStore(t)
	ctx := context.Background()

	_, err := sut.AddItem(ctx, burger, nil, 3, "")
	require.NoError(t, err)
	snapBefore, err := sut.AddItem(ctx, tacos, nil, 1, "")
	require.NoError(t, err)
	require.Equal(t, 4, snapBefore.TotalItems)

	snap := sut.RemoveItem(ctx, snapBefore.Items[0].ID)
	assert.Len(t, snap.Items, 1)
	assert.Equal(t, 1, snap.TotalItems)
	assert.Equal(t, "10.00", snap.Subtotal.StringFixed(2))
}

func TestRemoveItem_Idempotent(t *testing.T) {
	sut, _ := newTestStore(t)
	ctx := context.Background()

	first, err := sut.AddItem(ctx, burger, nil, 1, "")
	require.NoError(t, err)
	id := first.Items[0].ID

	once := sut.RemoveItem(ctx, id)
	twice := sut.RemoveItem(ctx, id)

	assert.Empty(t, once.Items)
	assert.Empty(t, twice.Items)
	assert.Equal(t, once.TotalItems, twice.TotalItems)
}

func TestSetQuantity_Updates(t *testing.T) {
	sut, _ := newTestStore(t)
	ctx := context.Background()

	first, err := sut.AddItem(ctx, burger, nil, 1, "")
	require.NoError(t, err)

	snap := sut.SetQuantity(ctx, first.Items[0].ID, 4)
	assert.Equal(t, 4, snap.Items[0].Quantity)
	assert.Equal(t, "34.00", snap.Items[0].LineTotal.StringFixed(2))
	assert.Equal(t, "34.00", snap.Subtotal.StringFixed(2))
}

func TestSetQuantity_NonPositiveRemoves(t *testing.T) {
	for _, quantity := range []int{0, -5} {
		sut, _ := newTestStore(t)
		ctx := context.Background()

		first, err := sut.AddItem(ctx, burger, nil, 2, "")
		require.NoError(t, err)

		snap := sut.SetQuantity(ctx, first.Items[0].ID, quantity)
		assert.Empty(t, snap.Items, "quantity %d should remove the line", quantity)
		assert.Equal(t, 0, snap.TotalItems)
	}
}

func TestSetQuantity_UnknownIDIsNoop(t *testing.T) {
	sut, st := newTestStore(t)
	ctx := context.Background()

	_, err := sut.AddItem(ctx, burger, nil, 2, "")
	require.NoError(t, err)
	savesBefore := st.saveCount()

	snap := sut.SetQuantity(ctx, "missing", 7)
	assert.Equal(t, 2, snap.TotalItems)
	assert.Equal(t, savesBefore, st.saveCount(), "a no-op must not persist")
}

func TestUpdateCustomizations_RecomputesLine(t *testing.T) {
	sut, _ := newTestStore(t)
	ctx := context.Background()

	first, err := sut.AddItem(ctx, tacos, []domain.ChoiceSelection{noCheese}, 2, "")
	require.NoError(t, err)
	require.Equal(t, "20.00", first.Items[0].LineTotal.StringFixed(2))

	snap := sut.UpdateCustomizations(ctx, first.Items[0].ID, []domain.ChoiceSelection{extraCheese})
	assert.Equal(t, "23.00", snap.Items[0].LineTotal.StringFixed(2))
	assert.Equal(t, "23.00", snap.Subtotal.StringFixed(2))
}

func TestUpdateCustomizations_DoesNotMergeLines(t *testing.T) {
	sut, _ := newTestStore(t)
	ctx := context.Background()

	_, err := sut.AddItem(ctx, tacos, []domain.ChoiceSelection{extraCheese}, 1, "")
	require.NoError(t, err)
	second, err := sut.AddItem(ctx, tacos, []domain.ChoiceSelection{noCheese}, 1, "")
	require.NoError(t, err)
	require.Len(t, second.Items, 2)

	// Now both lines have the same configuration; they stay separate.
	snap := sut.UpdateCustomizations(ctx, second.Items[1].ID, []domain.ChoiceSelection{extraCheese})
	assert.Len(t, snap.Items, 2)
}

func TestUpdateCustomizations_UnknownIDIsNoop(t *testing.T) {
	sut, _ := newTestStore(t)
	ctx := context.Background()

	_, err := sut.AddItem(ctx, tacos, []domain.ChoiceSelection{noCheese}, 1, "")
	require.NoError(t, err)

	snap := sut.UpdateCustomizations(ctx, "missing", []domain.ChoiceSelection{extraCheese})
	assert.Equal(t, "10.00", snap.Subtotal.StringFixed(2))
}

func TestSetDeliveryFee(t *testing.T) {
	sut, _ := newTestStore(t)
	ctx := context.Background()

	_, err := sut.AddItem(ctx, burger, nil, 3, "")
	require.NoError(t, err)

	snap := sut.SetDeliveryFee(ctx, decimal.NewFromFloat(3.00))
	assert.Equal(t, "25.50", snap.Subtotal.StringFixed(2))
	assert.Equal(t, "3.00", snap.DeliveryFee.StringFixed(2))
	assert.Equal(t, "28.50", snap.GrandTotal.StringFixed(2))
}

func TestClear_ResetsEverythingButVisibility(t *testing.T) {
	sut, _ := newTestStore(t)
	ctx := context.Background()

	sut.Open(ctx)
	_, err := sut.AddItem(ctx, burger, nil, 2, "")
	require.NoError(t, err)
	sut.SetDeliveryFee(ctx, decimal.NewFromFloat(3.00))

	snap := sut.Clear(ctx)
	assert.Empty(t, snap.Items)
	assert.Equal(t, 0, snap.TotalItems)
	assert.Equal(t, "0.00", snap.Subtotal.StringFixed(2))
	assert.Equal(t, "0.00", snap.DeliveryFee.StringFixed(2))
	assert.Equal(t, "0.00", snap.GrandTotal.StringFixed(2))
	assert.True(t, snap.IsOpen, "visibility survives a clear")
}

func TestVisibilityFlags(t *testing.T) {
	sut, _ := newTestStore(t)
	ctx := context.Background()

	assert.True(t, sut.Toggle(ctx).IsOpen)
	assert.False(t, sut.Toggle(ctx).IsOpen)
	assert.True(t, sut.Open(ctx).IsOpen)
	assert.False(t, sut.Close(ctx).IsOpen)
}

func TestPersistence_EveryMutationSaves(t *testing.T) {
	sut, st := newTestStore(t)
	ctx := context.Background()

	first, err := sut.AddItem(ctx, burger, nil, 1, "")
	require.NoError(t, err)
	sut.SetQuantity(ctx, first.Items[0].ID, 2)
	sut.SetDeliveryFee(ctx, decimal.NewFromFloat(1.50))
	sut.Toggle(ctx)
	sut.Clear(ctx)

	assert.Equal(t, 5, st.saveCount())
}

func TestPersistence_RestoreRoundTrip(t *testing.T) {
	st := newMockStorage()
	ctx := context.Background()

	original := NewStore(ctx, "cart:restore", st, zerolog.Nop())
	_, err := original.AddItem(ctx, burger, []domain.ChoiceSelection{extraCheese}, 2, "no pickles")
	require.NoError(t, err)
	want := original.SetDeliveryFee(ctx, decimal.NewFromFloat(1.50))

	restored := NewStore(ctx, "cart:restore", st, zerolog.Nop()).Snapshot()
	require.Len(t, restored.Items, 1)
	assert.Equal(t, want.Items[0].ID, restored.Items[0].ID)
	assert.Equal(t, want.TotalItems, restored.TotalItems)
	assert.True(t, restored.Subtotal.Equal(want.Subtotal))
	assert.True(t, restored.GrandTotal.Equal(want.GrandTotal))
}

func TestPersistence_CorruptSnapshotFallsBackToEmpty(t *testing.T) {
	st := newMockStorage()
	st.loadErr = errors.New("unmarshal snapshot failed")

	sut := NewStore(context.Background(), "cart:corrupt", st, zerolog.Nop())
	snap := sut.Snapshot()
	assert.Empty(t, snap.Items)
	assert.Equal(t, 0, snap.TotalItems)
}

func TestPersistence_SaveFailureKeepsMemoryState(t *testing.T) {
	st := newMockStorage()
	st.saveErr = errors.New("quota exceeded")

	sut := NewStore(context.Background(), "cart:failing", st, zerolog.Nop())
	snap, err := sut.AddItem(context.Background(), burger, nil, 1, "")
	require.NoError(t, err, "a persistence failure must not surface to the caller")
	assert.Len(t, snap.Items, 1)
	assert.Len(t, sut.Snapshot().Items, 1)
}

func TestSnapshot_IsACopy(t *testing.T) {
	sut, _ := newTestStore(t)

	_, err := sut.AddItem(context.Background(), burger, nil, 1, "")
	require.NoError(t, err)

	snap := sut.Snapshot()
	snap.Items[0].Quantity = 42

	assert.Equal(t, 1, sut.Snapshot().Items[0].Quantity)
}
