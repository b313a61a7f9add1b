package models

import "time"

// DefaultAvatar is the sentinel stored when a user has not uploaded a picture.
const DefaultAvatar = "default.jpg"

// User represents a registered account and its public profile
type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Username     string
	Email        string
	Bio          string
	PasswordHash string
	Avatar       string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName returns the display name used in emails and templates
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Session represents an authenticated session stored server-side
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
