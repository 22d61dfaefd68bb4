package cart

import (
	"log/slog"
	"sync"
	"time"
)

// NoticeLevel classifies a user-facing notification.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is one queued toast message.
type Notice struct {
	Level   NoticeLevel
	Message string
}

// NoticeQueue is a Notifier that queues toasts until the next response for
// the actor drains them. This is the flash-message pattern: the engine emits,
// the HTTP layer delivers.
type NoticeQueue struct {
	mu      sync.Mutex
	notices []Notice
}

// Success implements Notifier.
func (q *NoticeQueue) Success(msg string) { q.push(NoticeSuccess, msg) }

// Error implements Notifier.
func (q *NoticeQueue) Error(msg string) { q.push(NoticeError, msg) }

func (q *NoticeQueue) push(level NoticeLevel, msg string) {
	q.mu.Lock()
	q.notices = append(q.notices, Notice{Level: level, Message: msg})
	q.mu.Unlock()
}

// Drain returns and clears the queued notices in emission order.
func (q *NoticeQueue) Drain() []Notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.notices
	q.notices = nil
	return out
}

// sessionTTL bounds how long an idle actor's engine is kept. Cookieless
// clients mint a fresh guest ID per request, so without eviction the map
// grows without bound on a public endpoint. The mirror is only a cache of
// the remote cart; eviction costs one refetch on the next request.
const sessionTTL = 30 * time.Minute

// Manager hands out one engine per actor ID so the updating flag serializes
// mutations across requests from the same shopper. Engines are created
// lazily and evicted after a period of inactivity; a different actor ID
// (login, logout, new guest) simply gets a different engine, which is also
// why an identity switch never merges carts.
type Manager struct {
	mu      sync.Mutex
	engines map[string]*session

	store   Store
	logger  *slog.Logger
	ttl     time.Duration
	nowFunc func() time.Time // injectable clock for testing
}

type session struct {
	engine   *Engine
	notices  *NoticeQueue
	lastSeen time.Time
}

// NewManager creates an empty manager backed by the given store. It starts a
// background loop that evicts sessions idle longer than the TTL.
func NewManager(store Store, logger *slog.Logger) *Manager {
	m := &Manager{
		engines: make(map[string]*session),
		store:   store,
		logger:  logger,
		ttl:     sessionTTL,
		nowFunc: time.Now,
	}
	go m.cleanupLoop()
	return m
}

// Session returns the engine and notice queue for the given actor ID,
// creating them on first use. It refreshes lastSeen on every call.
func (m *Manager) Session(actorID string) (*Engine, *NoticeQueue) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.engines[actorID]
	if !ok {
		q := &NoticeQueue{}
		s = &session{
			engine:  NewEngine(m.store, q, m.logger),
			notices: q,
		}
		m.engines[actorID] = s
	}
	s.lastSeen = m.nowFunc()
	return s.engine, s.notices
}

// cleanupLoop runs a ticker that evicts sessions not seen within the TTL.
func (m *Manager) cleanupLoop() {
	ticker := time.NewTicker(m.ttl)
	defer ticker.Stop()
	for range ticker.C {
		m.cleanup()
	}
}

// cleanup evicts all sessions whose lastSeen is older than the TTL.
func (m *Manager) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowFunc()
	for actorID, s := range m.engines {
		if now.Sub(s.lastSeen) > m.ttl {
			delete(m.engines, actorID)
		}
	}
}

// sessionCount returns the number of live sessions (used in tests).
func (m *Manager) sessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.engines)
}
