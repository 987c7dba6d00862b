package chat

import (
	"encoding/json"
	"time"

	"github.com/louisbranch/linkup/internal/storage"
)

// Friend request event names carried in friend_request_event frames.
const (
	EventRequestReceived = "request_received"
	EventRequestAccepted = "request_accepted"
	EventRequestRejected = "request_rejected"
)

// inboundFrame is the union of fields a client may send. RecipientID is a
// pointer so a missing field is distinguishable from an explicit zero, and
// TempID is kept raw so whatever the client sent is echoed back untouched.
type inboundFrame struct {
	Type        string          `json:"type"`
	Message     string          `json:"message"`
	RecipientID *int64          `json:"recipient_id"`
	TempID      json.RawMessage `json:"temp_id"`
}

type senderPayload struct {
	ID             int64   `json:"id"`
	Username       string  `json:"username"`
	ProfilePicture *string `json:"profile_picture"`
}

func newSenderPayload(u storage.User) senderPayload {
	p := senderPayload{ID: u.ID, Username: u.Username}
	if u.ProfilePicture != "" {
		pic := u.ProfilePicture
		p.ProfilePicture = &pic
	}
	return p
}

type messageSentFrame struct {
	Type      string          `json:"type"`
	ID        int64           `json:"id"`
	Timestamp string          `json:"timestamp"`
	TempID    json.RawMessage `json:"temp_id,omitempty"`
}

type chatMessageFrame struct {
	Type        string          `json:"type"`
	ID          int64           `json:"id"`
	Message     string          `json:"message"`
	Sender      senderPayload   `json:"sender"`
	RecipientID int64           `json:"recipient_id"`
	Timestamp   string          `json:"timestamp"`
	IsRead      bool            `json:"is_read"`
	TempID      json.RawMessage `json:"temp_id,omitempty"`
}

type userStatusFrame struct {
	Type      string `json:"type"`
	UserID    int64  `json:"user_id"`
	IsOnline  bool   `json:"is_online"`
	Timestamp string `json:"timestamp"`
}

type friendRequestEventFrame struct {
	Type      string        `json:"type"`
	Event     string        `json:"event"`
	RequestID int64         `json:"request_id"`
	User      senderPayload `json:"user"`
	Timestamp string        `json:"timestamp"`
}

type errorFrame struct {
	Type    string          `json:"type"`
	Message string          `json:"message"`
	TempID  json.RawMessage `json:"temp_id,omitempty"`
}

func newErrorFrame(message string, tempID json.RawMessage) errorFrame {
	return errorFrame{Type: "error", Message: message, TempID: tempID}
}

func newUserStatusFrame(userID int64, online bool, at time.Time) userStatusFrame {
	return userStatusFrame{
		Type:      "user_status",
		UserID:    userID,
		IsOnline:  online,
		Timestamp: formatTimestamp(at),
	}
}

// formatTimestamp renders wire timestamps as RFC 3339 in UTC.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
