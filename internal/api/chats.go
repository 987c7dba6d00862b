package api

import (
	"errors"
	"log"
	"net/http"
	"sort"
	"strconv"

	"github.com/louisbranch/linkup/internal/storage"
)

const historyLimit = 50

type recentChatPayload struct {
	Friend      profilePayload `json:"friend"`
	LastMessage messagePayload `json:"last_message"`
	UnreadCount int            `json:"unread_count"`
}

func (h *Handler) handleRecentChats(w http.ResponseWriter, r *http.Request, callerID int64) {
	ctx := r.Context()
	friends, err := h.store.Friends(ctx, callerID)
	if err != nil {
		log.Printf("api: recent chats for user %d: %v", callerID, err)
		writeError(w, http.StatusInternalServerError, "Failed to list chats")
		return
	}

	chats := make([]recentChatPayload, 0, len(friends))
	for _, friend := range friends {
		last, err := h.store.LastMessageBetween(ctx, callerID, friend.ID)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			log.Printf("api: last message with user %d: %v", friend.ID, err)
			continue
		}
		unread, err := h.store.UnreadCount(ctx, friend.ID, callerID)
		if err != nil {
			log.Printf("api: unread count from user %d: %v", friend.ID, err)
		}
		chats = append(chats, recentChatPayload{
			Friend:      newProfilePayload(friend),
			LastMessage: newMessagePayload(last),
			UnreadCount: unread,
		})
	}

	// Newest conversation first; message ids break same-millisecond ties.
	sort.Slice(chats, func(i, j int) bool {
		a, b := chats[i].LastMessage, chats[j].LastMessage
		if a.Timestamp != b.Timestamp {
			return a.Timestamp > b.Timestamp
		}
		return a.ID > b.ID
	})
	writeJSON(w, http.StatusOK, map[string]any{"chats": chats})
}

func (h *Handler) handleChatHistory(w http.ResponseWriter, r *http.Request, callerID int64) {
	friendID, ok := h.resolveFriend(w, r)
	if !ok {
		return
	}
	messages, err := h.store.MessagesBetween(r.Context(), callerID, friendID, historyLimit)
	if err != nil {
		log.Printf("api: history with user %d: %v", friendID, err)
		writeError(w, http.StatusInternalServerError, "Failed to load chat history")
		return
	}

	payloads := make([]messagePayload, 0, len(messages))
	for _, m := range messages {
		payloads = append(payloads, newMessagePayload(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": payloads})
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request, callerID int64) {
	friendID, ok := h.resolveFriend(w, r)
	if !ok {
		return
	}
	marked, err := h.store.MarkRead(r.Context(), friendID, callerID)
	if err != nil {
		log.Printf("api: mark read from user %d: %v", friendID, err)
		writeError(w, http.StatusInternalServerError, "Failed to mark messages read")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"marked_read": marked})
}

// resolveFriend parses the friend id from the path and checks the user
// exists, answering the request itself when it does not.
func (h *Handler) resolveFriend(w http.ResponseWriter, r *http.Request) (int64, bool) {
	friendID, err := strconv.ParseInt(r.PathValue("friendID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return 0, false
	}
	if _, err := h.store.GetUser(r.Context(), friendID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return 0, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to load user")
		return 0, false
	}
	return friendID, true
}
