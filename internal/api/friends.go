package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/louisbranch/linkup/internal/chat"
	"github.com/louisbranch/linkup/internal/storage"
)

const suggestionLimit = 10

type friendRequestBody struct {
	ToUserID int64 `json:"to_user_id"`
}

type requestPayload struct {
	ID        int64          `json:"id"`
	From      profilePayload `json:"from"`
	Status    string         `json:"status"`
	CreatedAt string         `json:"created_at"`
}

func (h *Handler) handleFriends(w http.ResponseWriter, r *http.Request, callerID int64) {
	friends, err := h.store.Friends(r.Context(), callerID)
	if err != nil {
		log.Printf("api: list friends for user %d: %v", callerID, err)
		writeError(w, http.StatusInternalServerError, "Failed to list friends")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"friends": newProfilePayloads(friends)})
}

func (h *Handler) handleFriendRequest(w http.ResponseWriter, r *http.Request, callerID int64) {
	var body friendRequestBody
	if !decodeBody(w, r, &body) {
		return
	}
	if body.ToUserID == callerID {
		writeError(w, http.StatusBadRequest, "Cannot send a friend request to yourself")
		return
	}

	ctx := r.Context()
	if _, err := h.store.GetUser(ctx, body.ToUserID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to send friend request")
		return
	}

	already, err := h.store.AreFriends(ctx, callerID, body.ToUserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to send friend request")
		return
	}
	if already {
		writeError(w, http.StatusBadRequest, "Already friends")
		return
	}

	request, err := h.store.CreateFriendRequest(ctx, callerID, body.ToUserID)
	if err != nil {
		log.Printf("api: create friend request %d -> %d: %v", callerID, body.ToUserID, err)
		writeError(w, http.StatusInternalServerError, "Failed to send friend request")
		return
	}

	if caller, err := h.store.GetUser(ctx, callerID); err == nil {
		h.notify(body.ToUserID, chat.EventRequestReceived, request.ID, caller)
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":         request.ID,
		"to_user_id": request.ToUserID,
		"status":     request.Status,
		"created_at": request.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) handlePendingRequests(w http.ResponseWriter, r *http.Request, callerID int64) {
	ctx := r.Context()
	pending, err := h.store.PendingRequestsTo(ctx, callerID)
	if err != nil {
		log.Printf("api: pending requests for user %d: %v", callerID, err)
		writeError(w, http.StatusInternalServerError, "Failed to list friend requests")
		return
	}

	payloads := make([]requestPayload, 0, len(pending))
	for _, request := range pending {
		sender, err := h.store.GetUser(ctx, request.FromUserID)
		if err != nil {
			continue
		}
		payloads = append(payloads, requestPayload{
			ID:        request.ID,
			From:      newProfilePayload(sender),
			Status:    request.Status,
			CreatedAt: request.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": payloads})
}

func (h *Handler) handleAcceptRequest(w http.ResponseWriter, r *http.Request, callerID int64) {
	h.resolveRequest(w, r, callerID, storage.RequestAccepted)
}

func (h *Handler) handleRejectRequest(w http.ResponseWriter, r *http.Request, callerID int64) {
	h.resolveRequest(w, r, callerID, storage.RequestRejected)
}

// resolveRequest accepts or rejects a pending request addressed to the
// caller. Requests addressed to someone else answer 404 rather than 403 so
// request ids are not probeable.
func (h *Handler) resolveRequest(w http.ResponseWriter, r *http.Request, callerID int64, status string) {
	requestID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Friend request not found")
		return
	}

	ctx := r.Context()
	request, err := h.store.GetFriendRequest(ctx, requestID)
	if err != nil || request.ToUserID != callerID || request.Status != storage.RequestPending {
		writeError(w, http.StatusNotFound, "Friend request not found")
		return
	}

	if err := h.store.UpdateFriendRequestStatus(ctx, requestID, status); err != nil {
		log.Printf("api: update friend request %d: %v", requestID, err)
		writeError(w, http.StatusInternalServerError, "Failed to update friend request")
		return
	}

	event := chat.EventRequestRejected
	if status == storage.RequestAccepted {
		event = chat.EventRequestAccepted
		if err := h.store.CreateFriendship(ctx, request.FromUserID, request.ToUserID); err != nil {
			log.Printf("api: create friendship %d/%d: %v", request.FromUserID, request.ToUserID, err)
			writeError(w, http.StatusInternalServerError, "Failed to update friend request")
			return
		}
	}

	if caller, err := h.store.GetUser(ctx, callerID); err == nil {
		h.notify(request.FromUserID, event, request.ID, caller)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (h *Handler) handleSuggestions(w http.ResponseWriter, r *http.Request, callerID int64) {
	suggested, err := h.store.SuggestedUsers(r.Context(), callerID, suggestionLimit)
	if err != nil {
		log.Printf("api: suggestions for user %d: %v", callerID, err)
		writeError(w, http.StatusInternalServerError, "Failed to list suggestions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": newProfilePayloads(suggested)})
}

func (h *Handler) notify(targetID int64, event string, requestID int64, counterpart storage.User) {
	if h.notifier == nil {
		return
	}
	h.notifier.NotifyFriendEvent(targetID, event, requestID, counterpart)
}
