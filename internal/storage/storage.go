// Package storage defines persistence contracts for messenger state.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// Friend request lifecycle states.
const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestRejected = "rejected"
)

// User stores one registered account.
type User struct {
	ID             int64
	Username       string
	PhoneNumber    string
	Email          string
	Bio            string
	ProfilePicture string
	PasswordHash   string
	IsOnline       bool
	LastSeen       time.Time
	CreatedAt      time.Time
}

// Message stores one direct message between two users. Immutable after
// creation except the read flag.
type Message struct {
	ID          int64
	SenderID    int64
	RecipientID int64
	Text        string
	SentAt      time.Time
	IsRead      bool
}

// FriendRequest stores one directed friend request and its lifecycle state.
type FriendRequest struct {
	ID         int64
	FromUserID int64
	ToUserID   int64
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Friendship stores one undirected friend relationship. UserA is always the
// smaller id so each pair has a single canonical row.
type Friendship struct {
	UserA     int64
	UserB     int64
	CreatedAt time.Time
}

// RecentChat pairs a friend with the latest message exchanged and the number
// of messages from that friend not yet read.
type RecentChat struct {
	Friend      User
	LastMessage Message
	UnreadCount int
}

// UserStore persists accounts and their presence flags.
type UserStore interface {
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	GetUserByPhoneNumber(ctx context.Context, phoneNumber string) (User, error)
	SetOnline(ctx context.Context, id int64, online bool, lastSeen time.Time) error
}

// MessageStore persists direct messages.
type MessageStore interface {
	CreateMessage(ctx context.Context, senderID, recipientID int64, text string) (Message, error)
	MessagesBetween(ctx context.Context, userID, friendID int64, limit int) ([]Message, error)
	LastMessageBetween(ctx context.Context, userID, friendID int64) (Message, error)
	UnreadCount(ctx context.Context, fromUserID, toUserID int64) (int, error)
	MarkRead(ctx context.Context, fromUserID, toUserID int64) (int, error)
}

// FriendStore persists friend requests and friendships.
type FriendStore interface {
	CreateFriendRequest(ctx context.Context, fromUserID, toUserID int64) (FriendRequest, error)
	GetFriendRequest(ctx context.Context, id int64) (FriendRequest, error)
	PendingRequestsTo(ctx context.Context, userID int64) ([]FriendRequest, error)
	UpdateFriendRequestStatus(ctx context.Context, id int64, status string) error
	CreateFriendship(ctx context.Context, userA, userB int64) error
	AreFriends(ctx context.Context, userA, userB int64) (bool, error)
	FriendIDs(ctx context.Context, userID int64) ([]int64, error)
	Friends(ctx context.Context, userID int64) ([]User, error)
	SuggestedUsers(ctx context.Context, userID int64, limit int) ([]User, error)
}

// Store aggregates every persistence contract the server consumes.
type Store interface {
	UserStore
	MessageStore
	FriendStore
}
