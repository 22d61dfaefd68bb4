package cart

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BadarHossain1/harris-vale-storefront/internal/identity"
	apperrors "github.com/BadarHossain1/harris-vale-storefront/pkg/errors"
)

// --- Mock Store ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) FetchLines(ctx context.Context, actor identity.Actor) ([]Line, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Line), args.Error(1)
}

func (m *mockStore) UpdateQuantity(ctx context.Context, lineID string, quantity int) error {
	args := m.Called(ctx, lineID, quantity)
	return args.Error(0)
}

func (m *mockStore) RemoveLine(ctx context.Context, lineID string) error {
	args := m.Called(ctx, lineID)
	return args.Error(0)
}

func (m *mockStore) Clear(ctx context.Context, actor identity.Actor) error {
	args := m.Called(ctx, actor)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testLines() []Line {
	return []Line{
		{ID: "l1", ProductID: "p1", Name: "Wool Coat", UnitPrice: 500, Size: SizeM, Quantity: 2},
		{ID: "l2", ProductID: "p2", Name: "Linen Shirt", UnitPrice: 120, Size: SizeL, Quantity: 1},
	}
}

func loadedEngine(t *testing.T, store *mockStore, notifier Notifier) (*Engine, identity.Actor) {
	t.Helper()
	actor := identity.Guest("guest_1700000000000_abc123def")
	store.On("FetchLines", mock.Anything, actor).Return(testLines(), nil).Once()
	if notifier == nil {
		notifier = &NoticeQueue{}
	}
	e := NewEngine(store, notifier, newTestLogger())
	e.Load(context.Background(), actor)
	return e, actor
}

func yes() Confirmer { return ConfirmFunc(func(string) bool { return true }) }
func no() Confirmer  { return ConfirmFunc(func(string) bool { return false }) }

// --- Tests ---

func TestLoadComputesTotals(t *testing.T) {
	store := &mockStore{}
	e, _ := loadedEngine(t, store, nil)

	snap := e.Snapshot()
	assert.Equal(t, 3, snap.TotalItems)
	assert.Equal(t, 1120.0, snap.TotalPrice)
	store.AssertExpectations(t)
}

func TestLoadFailureYieldsEmptyCart(t *testing.T) {
	store := &mockStore{}
	actor := identity.Guest("guest_1700000000000_abc123def")
	store.On("FetchLines", mock.Anything, actor).Return(nil, errors.New("backend down")).Once()

	e := NewEngine(store, &NoticeQueue{}, newTestLogger())
	snap := e.Load(context.Background(), actor)

	assert.Empty(t, snap.Lines)
	assert.Equal(t, 0, snap.TotalItems)
	assert.Equal(t, 0.0, snap.TotalPrice)
}

func TestIncrementConfirmsRemotelyBeforeLocalApply(t *testing.T) {
	store := &mockStore{}
	e, _ := loadedEngine(t, store, nil)
	store.On("UpdateQuantity", mock.Anything, "l2", 2).Return(nil).Once()

	err := e.ChangeQuantity(context.Background(), "l2", +1, yes())
	require.NoError(t, err)

	snap := e.Snapshot()
	assert.Equal(t, 4, snap.TotalItems)
	assert.Equal(t, 1240.0, snap.TotalPrice)
	store.AssertExpectations(t)
}

func TestDecrementLeavesOneItem(t *testing.T) {
	store := &mockStore{}
	e, _ := loadedEngine(t, store, nil)
	store.On("UpdateQuantity", mock.Anything, "l1", 1).Return(nil).Once()

	err := e.ChangeQuantity(context.Background(), "l1", -1, yes())
	require.NoError(t, err)

	snap := e.Snapshot()
	assert.Equal(t, 1, snap.Lines[0].Quantity)
	assert.Equal(t, 620.0, snap.TotalPrice)
}

func TestDecrementBelowOneRoutesToRemove(t *testing.T) {
	store := &mockStore{}
	e, _ := loadedEngine(t, store, nil)
	store.On("RemoveLine", mock.Anything, "l2").Return(nil).Once()

	err := e.ChangeQuantity(context.Background(), "l2", -1, yes())
	require.NoError(t, err)

	snap := e.Snapshot()
	assert.Len(t, snap.Lines, 1)
	assert.Equal(t, "l1", snap.Lines[0].ID)
	// UpdateQuantity with a value below 1 must never reach the store.
	store.AssertNotCalled(t, "UpdateQuantity", mock.Anything, mock.Anything, mock.Anything)
}

func TestRemoveDeclinedLeavesMirrorUntouched(t *testing.T) {
	store := &mockStore{}
	e, _ := loadedEngine(t, store, nil)

	err := e.RemoveLine(context.Background(), "l1", no())
	assert.ErrorIs(t, err, ErrNotConfirmed)

	snap := e.Snapshot()
	assert.Len(t, snap.Lines, 2)
	store.AssertNotCalled(t, "RemoveLine", mock.Anything, mock.Anything)
}

func TestRemoveFailureKeepsLine(t *testing.T) {
	store := &mockStore{}
	q := &NoticeQueue{}
	e, _ := loadedEngine(t, store, q)
	store.On("RemoveLine", mock.Anything, "l1").Return(apperrors.Backend("item is locked")).Once()

	err := e.RemoveLine(context.Background(), "l1", yes())
	require.Error(t, err)

	snap := e.Snapshot()
	assert.Len(t, snap.Lines, 2)

	notices := q.Drain()
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeError, notices[0].Level)
	assert.Equal(t, "item is locked", notices[0].Message)
}

func TestRemoveSuccessNotifiesWithName(t *testing.T) {
	store := &mockStore{}
	q := &NoticeQueue{}
	e, _ := loadedEngine(t, store, q)
	store.On("RemoveLine", mock.Anything, "l2").Return(nil).Once()

	require.NoError(t, e.RemoveLine(context.Background(), "l2", yes()))

	notices := q.Drain()
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeSuccess, notices[0].Level)
	assert.Equal(t, "Linen Shirt removed from cart", notices[0].Message)
}

func TestUnknownLineIsNoOp(t *testing.T) {
	store := &mockStore{}
	e, _ := loadedEngine(t, store, nil)

	require.NoError(t, e.ChangeQuantity(context.Background(), "nope", +1, yes()))
	require.NoError(t, e.RemoveLine(context.Background(), "nope", yes()))

	assert.Len(t, e.Snapshot().Lines, 2)
	store.AssertNotCalled(t, "UpdateQuantity", mock.Anything, mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "RemoveLine", mock.Anything, mock.Anything)
}

func TestClearConfirmedEmptiesMirror(t *testing.T) {
	store := &mockStore{}
	q := &NoticeQueue{}
	actor := identity.Authenticated("shopper@example.com", "Shopper")
	store.On("FetchLines", mock.Anything, actor).Return(testLines(), nil).Once()
	store.On("Clear", mock.Anything, actor).Return(nil).Once()

	e := NewEngine(store, q, newTestLogger())
	e.Load(context.Background(), actor)

	require.NoError(t, e.Clear(context.Background(), actor, yes()))

	snap := e.Snapshot()
	assert.Empty(t, snap.Lines)
	assert.Equal(t, 0, snap.TotalItems)

	notices := q.Drain()
	require.Len(t, notices, 1)
	assert.Equal(t, "Cart cleared for shopper@example.com", notices[0].Message)
}

func TestClearDeclinedDoesNothing(t *testing.T) {
	store := &mockStore{}
	e, actor := loadedEngine(t, store, nil)

	err := e.Clear(context.Background(), actor, no())
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Len(t, e.Snapshot().Lines, 2)
	store.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
}

func TestUpdateFailureLeavesQuantity(t *testing.T) {
	store := &mockStore{}
	q := &NoticeQueue{}
	e, _ := loadedEngine(t, store, q)
	store.On("UpdateQuantity", mock.Anything, "l1", 3).Return(errors.New("boom")).Once()

	err := e.ChangeQuantity(context.Background(), "l1", +1, yes())
	require.Error(t, err)

	snap := e.Snapshot()
	assert.Equal(t, 2, snap.Lines[0].Quantity)
	assert.Equal(t, 1120.0, snap.TotalPrice)

	notices := q.Drain()
	require.Len(t, notices, 1)
	// A bare error carries no user-facing message; the fallback is used.
	assert.Equal(t, "Could not update quantity", notices[0].Message)
}

func TestUpdatingFlagReleasedAfterFailure(t *testing.T) {
	store := &mockStore{}
	e, _ := loadedEngine(t, store, nil)
	store.On("UpdateQuantity", mock.Anything, "l1", 3).Return(errors.New("boom")).Once()

	_ = e.ChangeQuantity(context.Background(), "l1", +1, yes())
	assert.False(t, e.Updating())

	// The next mutation proceeds normally.
	store.On("UpdateQuantity", mock.Anything, "l1", 3).Return(nil).Once()
	require.NoError(t, e.ChangeQuantity(context.Background(), "l1", +1, yes()))
}

func TestConcurrentMutationRejected(t *testing.T) {
	store := &mockStore{}
	e, _ := loadedEngine(t, store, nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	store.On("UpdateQuantity", mock.Anything, "l1", 3).Run(func(mock.Arguments) {
		close(entered)
		<-release
	}).Return(nil).Once()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = e.ChangeQuantity(context.Background(), "l1", +1, yes())
	}()

	<-entered
	assert.True(t, e.Updating())
	err := e.ChangeQuantity(context.Background(), "l2", +1, yes())
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	wg.Wait()
	assert.False(t, e.Updating())
}

func TestSnapshotIsACopy(t *testing.T) {
	store := &mockStore{}
	e, _ := loadedEngine(t, store, nil)

	snap := e.Snapshot()
	snap.Lines[0].Quantity = 99

	assert.Equal(t, 2, e.Snapshot().Lines[0].Quantity)
}
