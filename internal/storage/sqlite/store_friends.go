package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/linkup/internal/storage"
)

const requestColumns = `id, from_user_id, to_user_id, status, created_at, updated_at`

// CreateFriendRequest upserts one directed friend request back to pending and
// returns the stored row.
func (s *Store) CreateFriendRequest(ctx context.Context, fromUserID, toUserID int64) (storage.FriendRequest, error) {
	if err := ctx.Err(); err != nil {
		return storage.FriendRequest{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.FriendRequest{}, fmt.Errorf("storage is not configured")
	}
	if fromUserID == toUserID {
		return storage.FriendRequest{}, fmt.Errorf("target user must differ from sender")
	}

	now := toMillis(time.Now().UTC())
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO friend_requests (from_user_id, to_user_id, status, created_at, updated_at)
		 VALUES (?, ?, 'pending', ?, ?)
		 ON CONFLICT(from_user_id, to_user_id) DO UPDATE SET
		   status = 'pending',
		   updated_at = excluded.updated_at`,
		fromUserID,
		toUserID,
		now,
		now,
	)
	if err != nil {
		return storage.FriendRequest{}, fmt.Errorf("create friend request: %w", err)
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+requestColumns+` FROM friend_requests
		 WHERE from_user_id = ? AND to_user_id = ?`,
		fromUserID, toUserID,
	)
	return scanFriendRequest(row)
}

// GetFriendRequest returns one friend request by id.
func (s *Store) GetFriendRequest(ctx context.Context, id int64) (storage.FriendRequest, error) {
	if err := ctx.Err(); err != nil {
		return storage.FriendRequest{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.FriendRequest{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM friend_requests WHERE id = ?`, id)
	return scanFriendRequest(row)
}

// PendingRequestsTo returns pending requests addressed to a user, newest first.
func (s *Store) PendingRequestsTo(ctx context.Context, userID int64) ([]storage.FriendRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT `+requestColumns+` FROM friend_requests
		 WHERE to_user_id = ? AND status = 'pending'
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	defer rows.Close()

	var requests []storage.FriendRequest
	for rows.Next() {
		request, err := scanFriendRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending requests: %w", err)
	}
	return requests, nil
}

// UpdateFriendRequestStatus moves one request to a new lifecycle state.
func (s *Store) UpdateFriendRequestStatus(ctx context.Context, id int64, status string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	switch status {
	case storage.RequestPending, storage.RequestAccepted, storage.RequestRejected:
	default:
		return fmt.Errorf("unknown friend request status %q", status)
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE friend_requests SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		toMillis(time.Now().UTC()),
		id,
	)
	if err != nil {
		return fmt.Errorf("update friend request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update friend request rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CreateFriendship records an undirected friendship; replays are no-ops.
func (s *Store) CreateFriendship(ctx context.Context, userA, userB int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if userA == userB {
		return fmt.Errorf("cannot befriend self")
	}
	userA, userB = orderPair(userA, userB)

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO friendships (user_a, user_b, created_at) VALUES (?, ?, ?)`,
		userA,
		userB,
		toMillis(time.Now().UTC()),
	)
	if err != nil {
		return fmt.Errorf("create friendship: %w", err)
	}
	return nil
}

// AreFriends reports whether a friendship row exists for the pair.
func (s *Store) AreFriends(ctx context.Context, userA, userB int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s == nil || s.sqlDB == nil {
		return false, fmt.Errorf("storage is not configured")
	}
	userA, userB = orderPair(userA, userB)

	var found int
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT 1 FROM friendships WHERE user_a = ? AND user_b = ?`,
		userA, userB,
	).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check friendship: %w", err)
	}
	return true, nil
}

// FriendIDs returns the ids of every friend of a user.
func (s *Store) FriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT CASE WHEN user_a = ? THEN user_b ELSE user_a END
		 FROM friendships
		 WHERE user_a = ? OR user_b = ?`,
		userID, userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list friend ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan friend id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate friend ids: %w", err)
	}
	return ids, nil
}

// Friends returns the full profile rows of every friend of a user, most
// recent friendship first.
func (s *Store) Friends(ctx context.Context, userID int64) ([]storage.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE id IN (
		   SELECT CASE WHEN user_a = ? THEN user_b ELSE user_a END
		   FROM friendships
		   WHERE user_a = ? OR user_b = ?
		 )
		 ORDER BY username`,
		userID, userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

// SuggestedUsers returns users who are neither the caller, nor friends, nor a
// counterpart of a pending request.
func (s *Store) SuggestedUsers(ctx context.Context, userID int64, limit int) ([]storage.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE id != ?
		   AND id NOT IN (
		     SELECT CASE WHEN user_a = ? THEN user_b ELSE user_a END
		     FROM friendships WHERE user_a = ? OR user_b = ?
		   )
		   AND id NOT IN (
		     SELECT CASE WHEN from_user_id = ? THEN to_user_id ELSE from_user_id END
		     FROM friend_requests
		     WHERE (from_user_id = ? OR to_user_id = ?) AND status = 'pending'
		   )
		 ORDER BY created_at DESC
		 LIMIT ?`,
		userID, userID, userID, userID, userID, userID, userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

func collectUsers(rows *sql.Rows) ([]storage.User, error) {
	var users []storage.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func scanFriendRequest(row rowScanner) (storage.FriendRequest, error) {
	var request storage.FriendRequest
	var createdAt, updatedAt int64
	err := row.Scan(
		&request.ID,
		&request.FromUserID,
		&request.ToUserID,
		&request.Status,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.FriendRequest{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.FriendRequest{}, fmt.Errorf("scan friend request: %w", err)
	}
	request.CreatedAt = fromMillis(createdAt)
	request.UpdatedAt = fromMillis(updatedAt)
	return request, nil
}

func orderPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}
