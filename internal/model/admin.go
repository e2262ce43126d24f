package model

import "time"

// Admin is an office user allowed to manage families and appointments.
type Admin struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is an opaque bearer token issued at login.
type Session struct {
	ID        int64     `json:"id"`
	Token     string    `json:"-"`
	AdminID   int64     `json:"admin_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
