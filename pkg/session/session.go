package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/storekit/pkg/event"
)

// Event is a process-wide authentication notification.
type Event string

const (
	// EventLoggedOut signals that a previously valid session became invalid,
	// typically because a token refresh failed. Guest sessions never emit it.
	EventLoggedOut Event = "auth:logout"
)

// Session tracks the access token and guest identity for one client.
// All methods are safe for concurrent use.
type Session struct {
	mu          sync.RWMutex
	accessToken string
	guestID     string
	bus         *event.Bus[Event]
}

// New creates an unauthenticated session with a fresh guest identifier.
func New() *Session {
	return &Session{
		guestID: uuid.NewString(),
		bus:     event.NewBus[Event](4),
	}
}

// Token returns the current access token, or the empty string when the
// session is anonymous.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// SetToken stores a new access token, marking the session authenticated.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = token
}

// Clear drops the access token without notifying subscribers. Used for an
// ordinary user-initiated logout.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
}

// Authenticated reports whether an access token is currently held.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken != ""
}

// GuestID returns the stable anonymous identifier for this session.
func (s *Session) GuestID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.guestID
}

// Invalidate clears the token and broadcasts EventLoggedOut. Call it when
// the server rejects a session that was believed valid.
func (s *Session) Invalidate() {
	s.mu.Lock()
	s.accessToken = ""
	s.mu.Unlock()

	s.bus.Publish(EventLoggedOut)
}

// Subscribe registers for authentication events. The subscription ends when
// ctx is cancelled or the returned subscriber is closed.
func (s *Session) Subscribe(ctx context.Context) *event.Subscriber[Event] {
	return s.bus.Subscribe(ctx)
}

// Close releases the event bus and all subscribers.
func (s *Session) Close() {
	s.bus.Close()
}
