package bannotice

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("confirmation session not found")
	ErrSessionExpired  = errors.New("confirmation session expired")
)

// Target locates a published notice.
type Target struct {
	ChannelID string
	MessageID string
}

// Actor is the operator behind an interaction.
type Actor struct {
	ID   string
	Name string
}

func (a Actor) String() string {
	if a.Name == "" {
		return a.ID
	}
	return a.Name + " (" + a.ID + ")"
}

// ActionSession is a pending confirmation for a destructive action. It holds
// no in-flight work, so expiring it needs no cancellation.
type ActionSession struct {
	ID       string
	Target   Target
	Action   Action
	Actor    Actor
	Deadline time.Time
}

type sessionEntry struct {
	session ActionSession
	timer   *time.Timer
}

// SessionManager keeps confirmation sessions until they are taken or expire.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	ttl      time.Duration
	now      func() time.Time
	onExpire func(ActionSession)
}

func NewSessionManager(ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &SessionManager{
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// OnExpire registers a hook called once for every session that times out.
func (m *SessionManager) OnExpire(fn func(ActionSession)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = fn
}

// Open starts a session for action on target.
func (m *SessionManager) Open(target Target, action Action, actor Actor) ActionSession {
	session := ActionSession{
		ID:       uuid.NewString(),
		Target:   target,
		Action:   action,
		Actor:    actor,
		Deadline: m.now().Add(m.ttl),
	}
	entry := &sessionEntry{session: session}

	m.mu.Lock()
	m.sessions[session.ID] = entry
	entry.timer = time.AfterFunc(m.ttl, func() { m.expire(session.ID) })
	m.mu.Unlock()

	return session
}

// Take removes and returns a live session. Each session can be taken once,
// which is what makes a double-pressed confirm a no-op.
func (m *SessionManager) Take(id string) (ActionSession, error) {
	m.mu.Lock()
	entry, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
		entry.timer.Stop()
	}
	m.mu.Unlock()

	if !ok {
		return ActionSession{}, ErrSessionNotFound
	}
	if m.now().After(entry.session.Deadline) {
		return entry.session, ErrSessionExpired
	}
	return entry.session, nil
}

// Len returns the number of pending sessions.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *SessionManager) expire(id string) {
	m.mu.Lock()
	entry, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	hook := m.onExpire
	m.mu.Unlock()

	if ok && hook != nil {
		hook(entry.session)
	}
}
