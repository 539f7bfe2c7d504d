package model

import (
	"database/sql"
	"errors"
	"time"
)

// Session ties an issued access/refresh token pair to a user. Tokens are
// looked up on every authenticated request; expired rows count as missing.
type Session struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Token        string    `json:"-"`
	RefreshToken string    `json:"-"`
	UserAgent    string    `json:"user_agent"`
	ClientIP     string    `json:"client_ip"`
	IsBlocked    bool      `json:"is_blocked"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

var ErrSessionExpired = errors.New("session expired or blocked")

func CreateSession(db *sql.DB, s *Session) error {
	s.CreatedAt = time.Now()
	query := `
	INSERT INTO sessions (user_id, token, refresh_token, user_agent, client_ip, is_blocked, expires_at, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := db.Exec(query, s.UserID, s.Token, s.RefreshToken, s.UserAgent, s.ClientIP, s.IsBlocked, s.ExpiresAt, s.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = id
	return nil
}

func GetSessionByToken(db *sql.DB, token string) (*Session, error) {
	return getSessionBy(db, "token", token)
}

func GetSessionByRefreshToken(db *sql.DB, refreshToken string) (*Session, error) {
	return getSessionBy(db, "refresh_token", refreshToken)
}

func getSessionBy(db *sql.DB, column, value string) (*Session, error) {
	query := `
	SELECT id, user_id, token, refresh_token, user_agent, client_ip, is_blocked, expires_at, created_at
	FROM sessions
	WHERE ` + column + ` = ?`
	row := db.QueryRow(query, value)
	var s Session
	err := row.Scan(&s.ID, &s.UserID, &s.Token, &s.RefreshToken, &s.UserAgent, &s.ClientIP, &s.IsBlocked, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if s.IsBlocked || time.Now().After(s.ExpiresAt) {
		return nil, ErrSessionExpired
	}
	return &s, nil
}

func DeleteSessionByToken(db *sql.DB, token string) error {
	_, err := db.Exec(`DELETE FROM sessions WHERE token = ?`, token)
	return err
}

func DeleteSessionByRefreshToken(db *sql.DB, refreshToken string) error {
	_, err := db.Exec(`DELETE FROM sessions WHERE refresh_token = ?`, refreshToken)
	return err
}
