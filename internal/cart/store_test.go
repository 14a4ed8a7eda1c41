package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidEng0805/web-final-re-exam/internal/domain"
	"github.com/DavidEng0805/web-final-re-exam/internal/kv"
)

type fakeKV struct {
	data   map[string][]byte
	getErr error
	setErr error
	sets   int
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string][]byte)}
}

func (f *fakeKV) Get(_ context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	value, ok := f.data[key]
	if !ok {
		return nil, kv.ErrNotFound
	}
	return value, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value []byte) error {
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value
	return nil
}

func (f *fakeKV) Delete(_ context.Context, key string) error {
	delete(f.data, key)
	return nil
}

func product(id int64, price float64) domain.Product {
	return domain.Product{
		ID:       id,
		Title:    "Product",
		Price:    price,
		Category: "Food",
	}
}

func TestAdd_SameProductTwice_SingleLineItem(t *testing.T) {
	ctx := context.Background()
	sut := NewStore(ctx, newFakeKV(), "cart")

	sut.Add(ctx, product(1, 5))
	sut.Add(ctx, product(1, 5))

	snap := sut.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, int64(1), snap[0].ID)
	assert.Equal(t, 2, snap[0].Qty)
}

func TestAdd_DistinctProducts_InsertionOrder(t *testing.T) {
	ctx := context.Background()
	sut := NewStore(ctx, newFakeKV(), "cart")

	sut.Add(ctx, product(3, 1))
	sut.Add(ctx, product(1, 2))
	sut.Add(ctx, product(2, 3))
	sut.Add(ctx, product(1, 2))

	snap := sut.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, int64(3), snap[0].ID)
	assert.Equal(t, int64(1), snap[1].ID)
	assert.Equal(t, int64(2), snap[2].ID)
}

func TestChangeQty_BelowOne_RemovesItem(t *testing.T) {
	ctx := context.Background()
	sut := NewStore(ctx, newFakeKV(), "cart")

	sut.Add(ctx, product(1, 5))
	sut.Add(ctx, product(1, 5))
	sut.ChangeQty(ctx, 1, -5)

	assert.Empty(t, sut.Snapshot())
}

func TestChangeQty_NeverLeavesZeroQty(t *testing.T) {
	ctx := context.Background()
	sut := NewStore(ctx, newFakeKV(), "cart")

	sut.Add(ctx, product(1, 5))
	sut.ChangeQty(ctx, 1, -1)

	assert.Empty(t, sut.Snapshot())
}

func TestChangeQty_UnknownID_NoOp(t *testing.T) {
	ctx := context.Background()
	store := newFakeKV()
	sut := NewStore(ctx, store, "cart")
	sut.Add(ctx, product(1, 5))
	setsBefore := store.sets

	sut.ChangeQty(ctx, 99, 1)

	snap := sut.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, 1, snap[0].Qty)
	assert.Equal(t, setsBefore, store.sets, "no-op must not persist")
}

func TestRemove_UnknownID_SnapshotUnchanged(t *testing.T) {
	ctx := context.Background()
	sut := NewStore(ctx, newFakeKV(), "cart")
	sut.Add(ctx, product(1, 5))

	sut.Remove(ctx, 99)

	snap := sut.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, int64(1), snap[0].ID)
}

func TestClear_EmptiesCartAndPersistsEmptyList(t *testing.T) {
	ctx := context.Background()
	store := newFakeKV()
	sut := NewStore(ctx, store, "cart")
	sut.Add(ctx, product(1, 5))
	sut.Add(ctx, product(2, 7))

	sut.Clear(ctx)

	assert.Empty(t, sut.Snapshot())
	assert.JSONEq(t, "[]", string(store.data["cart"]))
}

func TestRoundTrip_ReloadReproducesOrderedSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newFakeKV()

	first := NewStore(ctx, store, "cart")
	first.Add(ctx, product(2, 10))
	first.Add(ctx, product(1, 25))
	first.Add(ctx, product(2, 10))

	second := NewStore(ctx, store, "cart")
	assert.Equal(t, first.Snapshot(), second.Snapshot())
}

func TestNewStore_CorruptData_FallsBackToEmptyCart(t *testing.T) {
	ctx := context.Background()
	store := newFakeKV()
	store.data["cart"] = []byte("{not json")

	sut := NewStore(ctx, store, "cart")
	assert.Empty(t, sut.Snapshot())
}

func TestNewStore_ReadError_FallsBackToEmptyCart(t *testing.T) {
	ctx := context.Background()
	store := newFakeKV()
	store.getErr = errors.New("storage offline")

	sut := NewStore(ctx, store, "cart")
	assert.Empty(t, sut.Snapshot())
}

func TestNewStore_DropsPersistedZeroQtyItems(t *testing.T) {
	ctx := context.Background()
	store := newFakeKV()
	store.data["cart"] = []byte(`[{"id":1,"title":"a","price":5,"qty":0},{"id":2,"title":"b","price":3,"qty":2}]`)

	sut := NewStore(ctx, store, "cart")
	snap := sut.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, int64(2), snap[0].ID)
}

func TestWriteFailure_MemoryStateStaysAuthoritative(t *testing.T) {
	ctx := context.Background()
	store := newFakeKV()
	store.setErr = errors.New("storage offline")
	sut := NewStore(ctx, store, "cart")

	var notified int
	sut.Subscribe(func(domain.Snapshot) { notified++ })

	sut.Add(ctx, product(1, 5))

	require.Len(t, sut.Snapshot(), 1)
	assert.Equal(t, 2, notified, "replay plus one mutation")
}

func TestSubscribe_ReceivesCurrentSnapshotImmediately(t *testing.T) {
	ctx := context.Background()
	sut := NewStore(ctx, newFakeKV(), "cart")
	sut.Add(ctx, product(1, 5))
	sut.Add(ctx, product(2, 7))
	sut.ChangeQty(ctx, 1, 3)

	var received []domain.Snapshot
	sut.Subscribe(func(snap domain.Snapshot) {
		received = append(received, snap)
	})

	// Only the latest snapshot is replayed, never the intermediates.
	require.Len(t, received, 1)
	require.Len(t, received[0], 2)
	assert.Equal(t, 4, received[0][0].Qty)
}

func TestSubscribe_ReceivesEveryMutationInCommitOrder(t *testing.T) {
	ctx := context.Background()
	sut := NewStore(ctx, newFakeKV(), "cart")

	var received []domain.Snapshot
	sut.Subscribe(func(snap domain.Snapshot) {
		received = append(received, snap)
	})

	sut.Add(ctx, product(1, 5))
	sut.Add(ctx, product(1, 5))
	sut.Remove(ctx, 1)

	require.Len(t, received, 4)
	assert.Empty(t, received[0])
	assert.Equal(t, 1, received[1][0].Qty)
	assert.Equal(t, 2, received[2][0].Qty)
	assert.Empty(t, received[3])
}

func TestSubscriber_PanicDoesNotBlockOthers(t *testing.T) {
	ctx := context.Background()
	sut := NewStore(ctx, newFakeKV(), "cart")

	sut.Subscribe(func(domain.Snapshot) { panic("broken subscriber") })
	var notified int
	sut.Subscribe(func(domain.Snapshot) { notified++ })

	sut.Add(ctx, product(1, 5))

	assert.Equal(t, 2, notified)
	require.Len(t, sut.Snapshot(), 1)
}

func TestUnsubscribe_StopsDeliveries(t *testing.T) {
	ctx := context.Background()
	sut := NewStore(ctx, newFakeKV(), "cart")

	var notified int
	unsubscribe := sut.Subscribe(func(domain.Snapshot) { notified++ })
	sut.Add(ctx, product(1, 5))
	unsubscribe()
	sut.Add(ctx, product(2, 7))

	assert.Equal(t, 2, notified, "replay plus first mutation only")
}

func TestSnapshot_IsDefensiveCopy(t *testing.T) {
	ctx := context.Background()
	sut := NewStore(ctx, newFakeKV(), "cart")
	sut.Add(ctx, product(1, 5))

	snap := sut.Snapshot()
	snap[0].Qty = 99
	snap[0].Title = "tampered"

	fresh := sut.Snapshot()
	assert.Equal(t, 1, fresh[0].Qty)
	assert.Equal(t, "Product", fresh[0].Title)
}
