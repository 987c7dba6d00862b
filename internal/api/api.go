// Package api serves the JSON REST surface: accounts, friends and chat
// history. Realtime delivery lives in the chat package; handlers here only
// reach it through the Notifier when a friend request changes state.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/linkup/internal/storage"
	"github.com/louisbranch/linkup/internal/token"
)

// Tokens issues and validates credential pairs. *token.Manager satisfies it.
type Tokens interface {
	IssuePair(userID int64) (token.Pair, error)
	Refresh(raw string) (token.Pair, error)
	Verify(raw string) (int64, error)
}

// Notifier pushes friend request events to a user's live connections.
// Offline users are a silent no-op.
type Notifier interface {
	NotifyFriendEvent(targetID int64, event string, requestID int64, counterpart storage.User)
}

// Handler bundles the REST endpoints over one store and token manager.
type Handler struct {
	store    storage.Store
	tokens   Tokens
	notifier Notifier
}

// New wires a REST handler. The notifier may be nil when no realtime layer is
// attached, which some tests rely on.
func New(store storage.Store, tokens Tokens, notifier Notifier) *Handler {
	return &Handler{store: store, tokens: tokens, notifier: notifier}
}

// Register mounts every endpoint on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc(http.MethodPost+" /api/auth/signup", h.handleSignup)
	mux.HandleFunc(http.MethodPost+" /api/auth/login", h.handleLogin)
	mux.HandleFunc(http.MethodPost+" /api/auth/refresh", h.handleRefresh)

	mux.HandleFunc(http.MethodGet+" /api/friends", h.requireAuth(h.handleFriends))
	mux.HandleFunc(http.MethodPost+" /api/friends/request", h.requireAuth(h.handleFriendRequest))
	mux.HandleFunc(http.MethodGet+" /api/friends/requests", h.requireAuth(h.handlePendingRequests))
	mux.HandleFunc(http.MethodPost+" /api/friends/accept/{id}", h.requireAuth(h.handleAcceptRequest))
	mux.HandleFunc(http.MethodPost+" /api/friends/reject/{id}", h.requireAuth(h.handleRejectRequest))
	mux.HandleFunc(http.MethodGet+" /api/friends/suggestions", h.requireAuth(h.handleSuggestions))

	mux.HandleFunc(http.MethodGet+" /api/chats", h.requireAuth(h.handleRecentChats))
	mux.HandleFunc(http.MethodGet+" /api/chats/{friendID}", h.requireAuth(h.handleChatHistory))
	mux.HandleFunc(http.MethodPost+" /api/chats/{friendID}/read", h.requireAuth(h.handleMarkRead))
}

// requireAuth resolves the caller from a bearer token before invoking next.
func (h *Handler) requireAuth(next func(http.ResponseWriter, *http.Request, int64)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw := strings.TrimPrefix(header, "Bearer ")
		if raw == header || strings.TrimSpace(raw) == "" {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		userID, err := h.tokens.Verify(strings.TrimSpace(raw))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		next(w, r, userID)
	}
}

type profilePayload struct {
	ID             int64   `json:"id"`
	Username       string  `json:"username"`
	PhoneNumber    string  `json:"phone_number"`
	Email          string  `json:"email,omitempty"`
	Bio            string  `json:"bio,omitempty"`
	ProfilePicture *string `json:"profile_picture"`
	IsOnline       bool    `json:"is_online"`
	LastSeen       string  `json:"last_seen"`
}

func newProfilePayload(u storage.User) profilePayload {
	p := profilePayload{
		ID:          u.ID,
		Username:    u.Username,
		PhoneNumber: u.PhoneNumber,
		Email:       u.Email,
		Bio:         u.Bio,
		IsOnline:    u.IsOnline,
		LastSeen:    u.LastSeen.UTC().Format(time.RFC3339),
	}
	if u.ProfilePicture != "" {
		pic := u.ProfilePicture
		p.ProfilePicture = &pic
	}
	return p
}

func newProfilePayloads(users []storage.User) []profilePayload {
	payloads := make([]profilePayload, 0, len(users))
	for _, u := range users {
		payloads = append(payloads, newProfilePayload(u))
	}
	return payloads
}

type messagePayload struct {
	ID          int64  `json:"id"`
	SenderID    int64  `json:"sender_id"`
	RecipientID int64  `json:"recipient_id"`
	Message     string `json:"message"`
	Timestamp   string `json:"timestamp"`
	IsRead      bool   `json:"is_read"`
}

func newMessagePayload(m storage.Message) messagePayload {
	return messagePayload{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Message:     m.Text,
		Timestamp:   m.SentAt.UTC().Format(time.RFC3339),
		IsRead:      m.IsRead,
	}
}

type errorPayload struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	_ = encoder.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorPayload{Error: message})
}

// decodeBody parses a JSON request body into target and reports whether it
// succeeded, answering 400 itself when it did not.
func decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}
