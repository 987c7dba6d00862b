package chat

import (
	"context"
	"time"

	"github.com/louisbranch/linkup/internal/storage"
)

// Authenticator resolves a raw access token to a user id.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (int64, error)
}

// Store is the slice of persistence the realtime layer needs.
type Store interface {
	GetUser(ctx context.Context, id int64) (storage.User, error)
	CreateMessage(ctx context.Context, senderID, recipientID int64, text string) (storage.Message, error)
	FriendIDs(ctx context.Context, userID int64) ([]int64, error)
	SetOnline(ctx context.Context, id int64, online bool, lastSeen time.Time) error
}

// Hub owns the realtime state of the service: the connection registry, the
// delivery router and the presence tracker. One hub serves all websocket
// connections of the process.
type Hub struct {
	store    Store
	auth     Authenticator
	registry *Registry
	router   *Router
	presence *Presence
	now      func() time.Time
}

// NewHub wires a hub over the given store and authenticator.
func NewHub(store Store, auth Authenticator) *Hub {
	registry := NewRegistry()
	router := NewRouter(registry)
	return &Hub{
		store:    store,
		auth:     auth,
		registry: registry,
		router:   router,
		presence: NewPresence(store, router),
		now:      time.Now,
	}
}

// IsOnline reports whether the user has at least one live connection.
func (h *Hub) IsOnline(userID int64) bool {
	return h.registry.IsPresent(userID)
}

// NotifyFriendEvent pushes a friend_request_event frame to the target user's
// live connections. Offline targets discover the change through the REST
// surface on their next sync, so an absent target is not an error.
func (h *Hub) NotifyFriendEvent(targetID int64, event string, requestID int64, counterpart storage.User) {
	h.router.Push(targetID, friendRequestEventFrame{
		Type:      "friend_request_event",
		Event:     event,
		RequestID: requestID,
		User:      newSenderPayload(counterpart),
		Timestamp: formatTimestamp(h.now()),
	})
}
