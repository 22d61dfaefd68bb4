package cart

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BadarHossain1/harris-vale-storefront/internal/identity"
)

func TestSessionReusedPerActor(t *testing.T) {
	m := NewManager(&mockStore{}, newTestLogger())

	e1, q1 := m.Session("guest_1_aaaaaaaaa")
	e2, q2 := m.Session("guest_1_aaaaaaaaa")
	assert.Same(t, e1, e2)
	assert.Same(t, q1, q2)

	e3, _ := m.Session("guest_2_bbbbbbbbb")
	assert.NotSame(t, e1, e3)
}

func TestIdentitySwitchDoesNotMergeCarts(t *testing.T) {
	store := &mockStore{}
	guest := identity.Guest("guest_1700000000000_abc123def")
	user := identity.Authenticated("shopper@example.com", "Shopper")

	store.On("FetchLines", mock.Anything, guest).Return(testLines(), nil).Once()
	store.On("FetchLines", mock.Anything, user).Return([]Line(nil), nil).Once()

	m := NewManager(store, newTestLogger())

	guestEngine, _ := m.Session(guest.ID)
	guestEngine.Load(context.Background(), guest)
	require.Len(t, guestEngine.Snapshot().Lines, 2)

	// Logging in keys a fresh engine; the guest's lines stay behind.
	userEngine, _ := m.Session(user.ID)
	userEngine.Load(context.Background(), user)
	assert.Empty(t, userEngine.Snapshot().Lines)
	assert.Len(t, guestEngine.Snapshot().Lines, 2)
}

func TestIdleSessionsAreEvicted(t *testing.T) {
	m := NewManager(&mockStore{}, newTestLogger())

	now := time.Unix(1700000000, 0)
	m.nowFunc = func() time.Time { return now }

	stale1, _ := m.Session("guest_1_aaaaaaaaa")
	m.Session("guest_2_bbbbbbbbb")
	require.Equal(t, 2, m.sessionCount())

	now = now.Add(sessionTTL + time.Minute)
	fresh, _ := m.Session("guest_3_ccccccccc")
	m.cleanup()

	assert.Equal(t, 1, m.sessionCount())

	// The evicted actor gets a brand new engine, the fresh one keeps its own.
	replacement, _ := m.Session("guest_1_aaaaaaaaa")
	assert.NotSame(t, stale1, replacement)
	kept, _ := m.Session("guest_3_ccccccccc")
	assert.Same(t, fresh, kept)
}

func TestActiveSessionsSurviveCleanup(t *testing.T) {
	m := NewManager(&mockStore{}, newTestLogger())

	now := time.Unix(1700000000, 0)
	m.nowFunc = func() time.Time { return now }

	engine, _ := m.Session("guest_1_aaaaaaaaa")

	// A request just inside the TTL refreshes lastSeen.
	now = now.Add(sessionTTL - time.Minute)
	m.Session("guest_1_aaaaaaaaa")

	now = now.Add(2 * time.Minute)
	m.cleanup()

	kept, _ := m.Session("guest_1_aaaaaaaaa")
	assert.Same(t, engine, kept)
}

func TestNoticeQueueDrainClears(t *testing.T) {
	q := &NoticeQueue{}
	q.Success("first")
	q.Error("second")

	notices := q.Drain()
	require.Len(t, notices, 2)
	assert.Equal(t, NoticeSuccess, notices[0].Level)
	assert.Equal(t, "first", notices[0].Message)
	assert.Equal(t, NoticeError, notices[1].Level)

	assert.Empty(t, q.Drain())
}
