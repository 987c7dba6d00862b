package chat

import (
	"context"
	"log"
	"time"
)

// Presence persists online transitions and tells a user's friends about them.
// Store failures are logged and swallowed: presence is advisory and must never
// take a live connection down with it.
type Presence struct {
	store  Store
	router *Router
}

// NewPresence returns a presence tracker backed by the store and router.
func NewPresence(store Store, router *Router) *Presence {
	return &Presence{store: store, router: router}
}

// SetOnline records the user's presence flag. On the offline transition the
// timestamp also becomes the user's last seen time.
func (p *Presence) SetOnline(ctx context.Context, userID int64, online bool, at time.Time) {
	if err := p.store.SetOnline(ctx, userID, online, at); err != nil {
		log.Printf("chat: persist presence for user %d: %v", userID, err)
	}
}

// BroadcastStatus sends a user_status frame to every friend of the user. The
// audience is resolved fresh on each call so friendships made mid-session are
// picked up without any cache invalidation.
func (p *Presence) BroadcastStatus(ctx context.Context, userID int64, online bool, at time.Time) {
	audience, err := p.store.FriendIDs(ctx, userID)
	if err != nil {
		log.Printf("chat: resolve status audience for user %d: %v", userID, err)
		return
	}
	p.router.Broadcast(audience, newUserStatusFrame(userID, online, at))
}
