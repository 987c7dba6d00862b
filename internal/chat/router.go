package chat

import "log"

// Router fans frames out to the live connections of target users. Delivery is
// best effort: a peer whose write fails is skipped and logged, it never stalls
// delivery to the remaining peers.
type Router struct {
	registry *Registry
}

// NewRouter returns a router over the given registry.
func NewRouter(registry *Registry) *Router {
	return &Router{registry: registry}
}

// Push delivers the frame to every live connection of the user. Users with no
// connections are silently skipped.
func (rt *Router) Push(userID int64, frame any) {
	for _, peer := range rt.registry.Peers(userID) {
		if err := peer.writeFrame(frame); err != nil {
			log.Printf("chat: deliver frame to user %d: %v", userID, err)
		}
	}
}

// Broadcast delivers the frame to every live connection of each user.
func (rt *Router) Broadcast(userIDs []int64, frame any) {
	for _, userID := range userIDs {
		rt.Push(userID, frame)
	}
}
