package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/louisbranch/linkup/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir() + "/linkup.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func createTestUser(t *testing.T, store *Store, username string) storage.User {
	t.Helper()
	user, err := store.CreateUser(context.Background(), storage.User{
		Username:     username,
		PhoneNumber:  "+1555" + username,
		PasswordHash: "hash-" + username,
	})
	if err != nil {
		t.Fatalf("create user %q: %v", username, err)
	}
	return user
}

func TestUserRoundTripAndLookups(t *testing.T) {
	store := openTestStore(t)

	created := createTestUser(t, store, "ana")
	if created.ID == 0 {
		t.Fatal("expected assigned user id")
	}

	byID, err := store.GetUser(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if byID.Username != "ana" {
		t.Fatalf("expected username ana, got %q", byID.Username)
	}

	byName, err := store.GetUserByUsername(context.Background(), "ana")
	if err != nil {
		t.Fatalf("get user by username: %v", err)
	}
	if byName.ID != created.ID {
		t.Fatalf("expected id %d, got %d", created.ID, byName.ID)
	}

	byPhone, err := store.GetUserByPhoneNumber(context.Background(), created.PhoneNumber)
	if err != nil {
		t.Fatalf("get user by phone: %v", err)
	}
	if byPhone.ID != created.ID {
		t.Fatalf("expected id %d, got %d", created.ID, byPhone.ID)
	}

	if _, err := store.GetUser(context.Background(), created.ID+100); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateUserRejectsDuplicateUsername(t *testing.T) {
	store := openTestStore(t)

	createTestUser(t, store, "ana")
	_, err := store.CreateUser(context.Background(), storage.User{
		Username:     "ana",
		PhoneNumber:  "+15550002",
		PasswordHash: "hash",
	})
	if err == nil {
		t.Fatal("expected duplicate username to fail")
	}
}

func TestSetOnlineUpdatesPresenceAndLastSeen(t *testing.T) {
	store := openTestStore(t)

	user := createTestUser(t, store, "ana")
	lastSeen := time.Date(2026, time.March, 1, 9, 30, 0, 0, time.UTC)

	if err := store.SetOnline(context.Background(), user.ID, true, lastSeen); err != nil {
		t.Fatalf("set online: %v", err)
	}
	got, err := store.GetUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !got.IsOnline {
		t.Fatal("expected user to be online")
	}
	if !got.LastSeen.Equal(lastSeen) {
		t.Fatalf("expected last seen %v, got %v", lastSeen, got.LastSeen)
	}

	if err := store.SetOnline(context.Background(), user.ID+100, true, lastSeen); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing user, got %v", err)
	}
}

func TestMessagesBetweenReturnsOldestFirstWindow(t *testing.T) {
	store := openTestStore(t)

	ana := createTestUser(t, store, "ana")
	bo := createTestUser(t, store, "bo")

	texts := []string{"one", "two", "three"}
	for _, text := range texts {
		if _, err := store.CreateMessage(context.Background(), ana.ID, bo.ID, text); err != nil {
			t.Fatalf("create message %q: %v", text, err)
		}
	}
	if _, err := store.CreateMessage(context.Background(), bo.ID, ana.ID, "reply"); err != nil {
		t.Fatalf("create reply: %v", err)
	}

	messages, err := store.MessagesBetween(context.Background(), ana.ID, bo.ID, 50)
	if err != nil {
		t.Fatalf("messages between: %v", err)
	}
	if len(messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(messages))
	}
	if messages[0].Text != "one" || messages[3].Text != "reply" {
		t.Fatalf("expected oldest-first ordering, got %q .. %q", messages[0].Text, messages[3].Text)
	}

	limited, err := store.MessagesBetween(context.Background(), ana.ID, bo.ID, 2)
	if err != nil {
		t.Fatalf("messages between limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected window of 2, got %d", len(limited))
	}
	if limited[0].Text != "three" || limited[1].Text != "reply" {
		t.Fatalf("expected newest window oldest-first, got %q, %q", limited[0].Text, limited[1].Text)
	}
}

func TestUnreadCountAndMarkRead(t *testing.T) {
	store := openTestStore(t)

	ana := createTestUser(t, store, "ana")
	bo := createTestUser(t, store, "bo")

	for range 3 {
		if _, err := store.CreateMessage(context.Background(), bo.ID, ana.ID, "hey"); err != nil {
			t.Fatalf("create message: %v", err)
		}
	}

	count, err := store.UnreadCount(context.Background(), bo.ID, ana.ID)
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 unread, got %d", count)
	}

	marked, err := store.MarkRead(context.Background(), bo.ID, ana.ID)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if marked != 3 {
		t.Fatalf("expected 3 marked, got %d", marked)
	}

	count, err = store.UnreadCount(context.Background(), bo.ID, ana.ID)
	if err != nil {
		t.Fatalf("unread count after mark: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 unread after mark, got %d", count)
	}

	marked, err = store.MarkRead(context.Background(), bo.ID, ana.ID)
	if err != nil {
		t.Fatalf("mark read replay: %v", err)
	}
	if marked != 0 {
		t.Fatalf("expected no rows on replay, got %d", marked)
	}
}

func TestLastMessageBetween(t *testing.T) {
	store := openTestStore(t)

	ana := createTestUser(t, store, "ana")
	bo := createTestUser(t, store, "bo")

	if _, err := store.LastMessageBetween(context.Background(), ana.ID, bo.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound without messages, got %v", err)
	}

	if _, err := store.CreateMessage(context.Background(), ana.ID, bo.ID, "first"); err != nil {
		t.Fatalf("create message: %v", err)
	}
	if _, err := store.CreateMessage(context.Background(), bo.ID, ana.ID, "latest"); err != nil {
		t.Fatalf("create message: %v", err)
	}

	last, err := store.LastMessageBetween(context.Background(), ana.ID, bo.ID)
	if err != nil {
		t.Fatalf("last message: %v", err)
	}
	if last.Text != "latest" {
		t.Fatalf("expected latest message, got %q", last.Text)
	}
}

func TestFriendRequestLifecycle(t *testing.T) {
	store := openTestStore(t)

	ana := createTestUser(t, store, "ana")
	bo := createTestUser(t, store, "bo")

	request, err := store.CreateFriendRequest(context.Background(), ana.ID, bo.ID)
	if err != nil {
		t.Fatalf("create friend request: %v", err)
	}
	if request.Status != storage.RequestPending {
		t.Fatalf("expected pending status, got %q", request.Status)
	}

	pending, err := store.PendingRequestsTo(context.Background(), bo.ID)
	if err != nil {
		t.Fatalf("pending requests: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != request.ID {
		t.Fatalf("expected the created request pending, got %+v", pending)
	}

	if err := store.UpdateFriendRequestStatus(context.Background(), request.ID, storage.RequestRejected); err != nil {
		t.Fatalf("reject request: %v", err)
	}

	// Re-sending resets the same row to pending.
	resent, err := store.CreateFriendRequest(context.Background(), ana.ID, bo.ID)
	if err != nil {
		t.Fatalf("resend friend request: %v", err)
	}
	if resent.ID != request.ID {
		t.Fatalf("expected upsert onto row %d, got %d", request.ID, resent.ID)
	}
	if resent.Status != storage.RequestPending {
		t.Fatalf("expected pending after resend, got %q", resent.Status)
	}

	if err := store.UpdateFriendRequestStatus(context.Background(), request.ID+100, storage.RequestAccepted); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing request, got %v", err)
	}
	if err := store.UpdateFriendRequestStatus(context.Background(), request.ID, "bogus"); err == nil {
		t.Fatal("expected unknown status to fail")
	}
}

func TestFriendshipCanonicalOrderingAndIdempotence(t *testing.T) {
	store := openTestStore(t)

	ana := createTestUser(t, store, "ana")
	bo := createTestUser(t, store, "bo")

	if err := store.CreateFriendship(context.Background(), bo.ID, ana.ID); err != nil {
		t.Fatalf("create friendship: %v", err)
	}
	// Reversed order lands on the same canonical row.
	if err := store.CreateFriendship(context.Background(), ana.ID, bo.ID); err != nil {
		t.Fatalf("replay friendship: %v", err)
	}

	friends, err := store.FriendIDs(context.Background(), ana.ID)
	if err != nil {
		t.Fatalf("friend ids: %v", err)
	}
	if len(friends) != 1 || friends[0] != bo.ID {
		t.Fatalf("expected single friend %d, got %v", bo.ID, friends)
	}

	ok, err := store.AreFriends(context.Background(), bo.ID, ana.ID)
	if err != nil {
		t.Fatalf("are friends: %v", err)
	}
	if !ok {
		t.Fatal("expected pair to be friends")
	}

	if err := store.CreateFriendship(context.Background(), ana.ID, ana.ID); err == nil {
		t.Fatal("expected self friendship to fail")
	}
}

func TestFriendsReturnsProfiles(t *testing.T) {
	store := openTestStore(t)

	ana := createTestUser(t, store, "ana")
	bo := createTestUser(t, store, "bo")
	cam := createTestUser(t, store, "cam")

	if err := store.CreateFriendship(context.Background(), ana.ID, bo.ID); err != nil {
		t.Fatalf("create friendship: %v", err)
	}
	if err := store.CreateFriendship(context.Background(), ana.ID, cam.ID); err != nil {
		t.Fatalf("create friendship: %v", err)
	}

	friends, err := store.Friends(context.Background(), ana.ID)
	if err != nil {
		t.Fatalf("friends: %v", err)
	}
	if len(friends) != 2 {
		t.Fatalf("expected 2 friends, got %d", len(friends))
	}
	if friends[0].Username != "bo" || friends[1].Username != "cam" {
		t.Fatalf("expected bo, cam; got %q, %q", friends[0].Username, friends[1].Username)
	}
}

func TestSuggestedUsersExcludesFriendsAndPending(t *testing.T) {
	store := openTestStore(t)

	ana := createTestUser(t, store, "ana")
	friend := createTestUser(t, store, "friend")
	pendingOut := createTestUser(t, store, "pendingout")
	pendingIn := createTestUser(t, store, "pendingin")
	fresh := createTestUser(t, store, "fresh")

	if err := store.CreateFriendship(context.Background(), ana.ID, friend.ID); err != nil {
		t.Fatalf("create friendship: %v", err)
	}
	if _, err := store.CreateFriendRequest(context.Background(), ana.ID, pendingOut.ID); err != nil {
		t.Fatalf("create outgoing request: %v", err)
	}
	if _, err := store.CreateFriendRequest(context.Background(), pendingIn.ID, ana.ID); err != nil {
		t.Fatalf("create incoming request: %v", err)
	}

	suggestions, err := store.SuggestedUsers(context.Background(), ana.ID, 10)
	if err != nil {
		t.Fatalf("suggestions: %v", err)
	}
	if len(suggestions) != 1 || suggestions[0].ID != fresh.ID {
		t.Fatalf("expected only %q suggested, got %+v", "fresh", suggestions)
	}
}
