package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/linkup/internal/storage"
)

const userColumns = `id, username, phone_number, email, bio, profile_picture,
	 password_hash, is_online, last_seen, created_at`

// CreateUser inserts one account and returns it with its assigned id.
func (s *Store) CreateUser(ctx context.Context, user storage.User) (storage.User, error) {
	if err := ctx.Err(); err != nil {
		return storage.User{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.User{}, fmt.Errorf("storage is not configured")
	}
	user.Username = strings.TrimSpace(user.Username)
	user.PhoneNumber = strings.TrimSpace(user.PhoneNumber)
	if user.Username == "" {
		return storage.User{}, fmt.Errorf("username is required")
	}
	if user.PhoneNumber == "" {
		return storage.User{}, fmt.Errorf("phone number is required")
	}
	if user.PasswordHash == "" {
		return storage.User{}, fmt.Errorf("password hash is required")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.LastSeen.IsZero() {
		user.LastSeen = user.CreatedAt
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO users (username, phone_number, email, bio, profile_picture,
		   password_hash, is_online, last_seen, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Username,
		user.PhoneNumber,
		user.Email,
		user.Bio,
		user.ProfilePicture,
		user.PasswordHash,
		boolToInt(user.IsOnline),
		toMillis(user.LastSeen),
		toMillis(user.CreatedAt),
	)
	if err != nil {
		return storage.User{}, fmt.Errorf("create user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return storage.User{}, fmt.Errorf("read user id: %w", err)
	}
	user.ID = id
	return user, nil
}

// GetUser returns one account by id.
func (s *Store) GetUser(ctx context.Context, id int64) (storage.User, error) {
	return s.getUserWhere(ctx, "id = ?", id)
}

// GetUserByUsername returns one account by its unique username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (storage.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return storage.User{}, fmt.Errorf("username is required")
	}
	return s.getUserWhere(ctx, "username = ?", username)
}

// GetUserByPhoneNumber returns one account by its unique phone number.
func (s *Store) GetUserByPhoneNumber(ctx context.Context, phoneNumber string) (storage.User, error) {
	phoneNumber = strings.TrimSpace(phoneNumber)
	if phoneNumber == "" {
		return storage.User{}, fmt.Errorf("phone number is required")
	}
	return s.getUserWhere(ctx, "phone_number = ?", phoneNumber)
}

// SetOnline updates the persisted presence flag and last-seen timestamp.
func (s *Store) SetOnline(ctx context.Context, id int64, online bool, lastSeen time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if lastSeen.IsZero() {
		lastSeen = time.Now().UTC()
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE users SET is_online = ?, last_seen = ? WHERE id = ?`,
		boolToInt(online),
		toMillis(lastSeen),
		id,
	)
	if err != nil {
		return fmt.Errorf("set online: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set online rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) getUserWhere(ctx context.Context, where string, args ...any) (storage.User, error) {
	if err := ctx.Err(); err != nil {
		return storage.User{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.User{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, args...)
	return scanUser(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (storage.User, error) {
	var user storage.User
	var online int
	var lastSeen, createdAt int64
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PhoneNumber,
		&user.Email,
		&user.Bio,
		&user.ProfilePicture,
		&user.PasswordHash,
		&online,
		&lastSeen,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.User{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.User{}, fmt.Errorf("scan user: %w", err)
	}
	user.IsOnline = online != 0
	user.LastSeen = fromMillis(lastSeen)
	user.CreatedAt = fromMillis(createdAt)
	return user, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
