package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrUsernameTaken is returned when linking a device under a username that
// already belongs to another device.
var ErrUsernameTaken = errors.New("username taken")

// Session is one linked device: legacy clients authenticate with a local
// username/password pair that maps to the stored OAuth tokens.
type Session struct {
	DeviceID     string `json:"device_id"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IsLinked     bool   `json:"is_linked"`
}

// SessionStore persists device sessions in SQLite.
type SessionStore struct {
	db *sql.DB
}

// OpenSessionStore opens (or creates) the session database at path.
func OpenSessionStore(path string) (*SessionStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("sessions: mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sessions: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS device_sessions (
		device_id     TEXT PRIMARY KEY,
		username      TEXT NOT NULL DEFAULT '',
		password      TEXT NOT NULL DEFAULT '',
		access_token  TEXT NOT NULL DEFAULT '',
		refresh_token TEXT NOT NULL DEFAULT '',
		is_linked     INTEGER NOT NULL DEFAULT 0
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("sessions: init schema: %w", err)
	}
	return &SessionStore{db: db}, nil
}

func (s *SessionStore) Close() error { return s.db.Close() }

// UsernameTaken reports whether any session already uses username.
func (s *SessionStore) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM device_sessions WHERE username = ?`, username).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sessions: username lookup: %w", err)
	}
	return n > 0, nil
}

// LinkDevice stores or updates a device session. A username held by a
// different device is rejected; an already linked device keeps its
// credentials.
func (s *SessionStore) LinkDevice(ctx context.Context, sess Session) error {
	if sess.Username != "" {
		var owner string
		err := s.db.QueryRowContext(ctx,
			`SELECT device_id FROM device_sessions WHERE username = ?`, sess.Username).Scan(&owner)
		switch {
		case err == nil && owner != sess.DeviceID:
			return ErrUsernameTaken
		case err != nil && !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("sessions: username lookup: %w", err)
		}
	}

	existing, err := s.byDeviceID(ctx, sess.DeviceID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if err == nil && existing.IsLinked {
		return nil
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO device_sessions
		(device_id, username, password, access_token, refresh_token, is_linked)
		VALUES (?, ?, ?, ?, ?, 1)
		ON CONFLICT(device_id) DO UPDATE SET
			username = excluded.username,
			password = excluded.password,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			is_linked = 1`,
		sess.DeviceID, sess.Username, sess.Password, sess.AccessToken, sess.RefreshToken)
	if err != nil {
		return fmt.Errorf("sessions: link device: %w", err)
	}
	return nil
}

func (s *SessionStore) byDeviceID(ctx context.Context, deviceID string) (Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx, `SELECT device_id, username, password,
		access_token, refresh_token, is_linked
		FROM device_sessions WHERE device_id = ?`, deviceID).
		Scan(&sess.DeviceID, &sess.Username, &sess.Password,
			&sess.AccessToken, &sess.RefreshToken, &sess.IsLinked)
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

// ByCredentials returns the session matching a username/password pair, or
// false when none matches.
func (s *SessionStore) ByCredentials(ctx context.Context, username, password string) (Session, bool, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx, `SELECT device_id, username, password,
		access_token, refresh_token, is_linked
		FROM device_sessions WHERE username = ? AND password = ?`, username, password).
		Scan(&sess.DeviceID, &sess.Username, &sess.Password,
			&sess.AccessToken, &sess.RefreshToken, &sess.IsLinked)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("sessions: credential lookup: %w", err)
	}
	return sess, true, nil
}

// LoginDeviceID returns the device id for a linked session with matching
// credentials. ClientLogin echoes it back as SID/LSID/Auth.
func (s *SessionStore) LoginDeviceID(ctx context.Context, username, password string) (string, bool, error) {
	sess, ok, err := s.ByCredentials(ctx, username, password)
	if err != nil || !ok || !sess.IsLinked {
		return "", false, err
	}
	return sess.DeviceID, true, nil
}
