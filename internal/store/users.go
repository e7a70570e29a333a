package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

func (s *Store) FindUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.db.QueryRow(ctx, `
		select id, email, name, password_hash, role, permissions, is_active
		from users
		where lower(email) = lower($1)
	`, email).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.Permissions, &u.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (s *Store) CreateSession(ctx context.Context, userID int64, expiresAt time.Time) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, `
		insert into user_sessions (user_id, status, expires_at)
		values ($1, 'ACTIVE', $2)
		returning id
	`, userID, expiresAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

// GetActiveSession returns the session together with the user's current role
// and permissions, so permission edits apply without a new login.
func (s *Store) GetActiveSession(ctx context.Context, sessionID, userID int64) (Session, error) {
	var sess Session
	err := s.db.QueryRow(ctx, `
		select us.id, u.id, u.role, u.email, u.permissions, us.expires_at
		from user_sessions us
		join users u on u.id = us.user_id
		where us.id = $1 and u.id = $2
		  and us.status = 'ACTIVE' and us.expires_at > now()
		  and u.is_active
	`, sessionID, userID).Scan(&sess.ID, &sess.UserID, &sess.Role, &sess.Email, &sess.Permissions, &sess.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

func (s *Store) RevokeSession(ctx context.Context, sessionID int64) error {
	_, err := s.db.Exec(ctx, `
		update user_sessions set status = 'REVOKED', revoked_at = now()
		where id = $1 and status = 'ACTIVE'
	`, sessionID)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}
