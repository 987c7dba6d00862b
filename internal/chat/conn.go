package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"golang.org/x/net/websocket"

	"github.com/louisbranch/linkup/internal/storage"
)

type wsUserKey struct{}

// Handler returns the HTTP handler for the websocket endpoint. Tokens arrive
// as a query parameter because browser websocket clients cannot set headers.
// A missing or invalid token does not abort the upgrade; the connection is
// accepted and then closed by the handler, mirroring how an in-band protocol
// error would be treated.
func (h *Hub) Handler() http.Handler {
	wsHandler := websocket.Handler(h.handleConn)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if token := r.URL.Query().Get("token"); token != "" {
			userID, err := h.auth.Authenticate(r.Context(), token)
			if err != nil {
				log.Printf("chat: authenticate websocket: %v", err)
			} else {
				r = r.WithContext(context.WithValue(r.Context(), wsUserKey{}, userID))
			}
		}
		wsHandler.ServeHTTP(w, r)
	})
}

func (h *Hub) handleConn(ws *websocket.Conn) {
	defer ws.Close()

	ctx := ws.Request().Context()
	userID, ok := ctx.Value(wsUserKey{}).(int64)
	if !ok {
		return
	}
	self, err := h.store.GetUser(ctx, userID)
	if err != nil {
		log.Printf("chat: load user %d on connect: %v", userID, err)
		return
	}

	peer := newPeer(json.NewEncoder(ws))
	now := h.now()
	if h.registry.Register(userID, peer) {
		h.presence.SetOnline(ctx, userID, true, now)
		h.presence.BroadcastStatus(ctx, userID, true, now)
	}
	defer h.finishConn(userID, peer)

	for {
		var data string
		if err := websocket.Message.Receive(ws, &data); err != nil {
			return
		}
		h.handleFrame(ctx, self, peer, []byte(data))
	}
}

// finishConn runs the offline transition for a closing connection. It uses a
// fresh context because the request context dies with the handler and the
// last seen write must still land. The offline flag is persisted while this
// peer is still registered; another device of the same user registering
// between that write and Unregister reverses it.
func (h *Hub) finishConn(userID int64, peer *Peer) {
	ctx := context.Background()
	now := h.now()

	wrote := false
	if h.registry.Size(userID) == 1 {
		h.presence.SetOnline(ctx, userID, false, now)
		wrote = true
	}
	last := h.registry.Unregister(userID, peer)
	if last && !wrote {
		h.presence.SetOnline(ctx, userID, false, now)
	}
	if !last {
		if wrote {
			h.presence.SetOnline(ctx, userID, true, now)
		}
		return
	}
	h.presence.BroadcastStatus(ctx, userID, false, now)
}

// handleFrame processes one inbound frame. Protocol errors are answered with
// an error frame and leave the connection open.
func (h *Hub) handleFrame(ctx context.Context, self storage.User, peer *Peer, data []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		h.writeError(peer, "Invalid JSON", nil)
		return
	}
	switch frame.Type {
	case "chat_message":
		h.handleChatMessage(ctx, self, peer, frame)
	default:
		h.writeError(peer, fmt.Sprintf("Unknown message type: %s", frame.Type), nil)
	}
}

func (h *Hub) handleChatMessage(ctx context.Context, self storage.User, peer *Peer, frame inboundFrame) {
	text := strings.TrimSpace(frame.Message)
	if text == "" {
		h.writeError(peer, "Message cannot be empty", frame.TempID)
		return
	}
	if frame.RecipientID == nil {
		h.writeError(peer, "Recipient ID required", frame.TempID)
		return
	}

	recipient, err := h.store.GetUser(ctx, *frame.RecipientID)
	if errors.Is(err, storage.ErrNotFound) {
		h.writeError(peer, "Recipient not found", frame.TempID)
		return
	}
	if err != nil {
		h.writeError(peer, err.Error(), frame.TempID)
		return
	}

	msg, err := h.store.CreateMessage(ctx, self.ID, recipient.ID, text)
	if err != nil {
		h.writeError(peer, err.Error(), frame.TempID)
		return
	}

	// Acknowledge the sender before fanning out, so the temp_id reconciles
	// ahead of any echoed copy on the sender's other devices.
	if err := peer.writeFrame(messageSentFrame{
		Type:      "message_sent",
		ID:        msg.ID,
		Timestamp: formatTimestamp(msg.SentAt),
		TempID:    frame.TempID,
	}); err != nil {
		log.Printf("chat: ack message %d to user %d: %v", msg.ID, self.ID, err)
	}

	h.router.Push(recipient.ID, chatMessageFrame{
		Type:        "chat_message",
		ID:          msg.ID,
		Message:     msg.Text,
		Sender:      newSenderPayload(self),
		RecipientID: recipient.ID,
		Timestamp:   formatTimestamp(msg.SentAt),
		IsRead:      false,
		TempID:      frame.TempID,
	})
}

func (h *Hub) writeError(peer *Peer, message string, tempID json.RawMessage) {
	if err := peer.writeFrame(newErrorFrame(message, tempID)); err != nil {
		log.Printf("chat: write error frame: %v", err)
	}
}
