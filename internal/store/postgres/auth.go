package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/leandropaiva-dev/minhavez-sub001/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

func (s *Store) Login(ctx context.Context, input store.LoginInput) (store.Session, error) {
	var userID, businessID, passwordHash string
	row := s.pool.QueryRow(ctx, `
		SELECT user_id, business_id, password_hash
		FROM staff_users
		WHERE email = $1 AND active = TRUE
	`, input.Email)
	if err := row.Scan(&userID, &businessID, &passwordHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Session{}, store.ErrInvalidCredentials
		}
		return store.Session{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(input.Password)); err != nil {
		return store.Session{}, store.ErrInvalidCredentials
	}

	ttl := input.TTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	session := store.Session{
		SessionID:  uuid.NewString(),
		UserID:     userID,
		BusinessID: businessID,
		ExpiresAt:  time.Now().UTC().Add(ttl),
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (session_id, user_id, business_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, session.SessionID, session.UserID, session.BusinessID, session.ExpiresAt, time.Now().UTC())
	if err != nil {
		return store.Session{}, err
	}
	return session, nil
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (store.Session, error) {
	var session store.Session
	row := s.pool.QueryRow(ctx, `
		SELECT session_id, user_id, business_id, expires_at
		FROM sessions
		WHERE session_id = $1 AND expires_at > $2
	`, sessionID, time.Now().UTC())
	if err := row.Scan(&session.SessionID, &session.UserID, &session.BusinessID, &session.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Session{}, store.ErrSessionNotFound
		}
		return store.Session{}, err
	}
	return session, nil
}
