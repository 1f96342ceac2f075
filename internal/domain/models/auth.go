package models

import "time"

// Principal is the authenticated identity attached to a session.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Credentials carries the email/password pair used to sign in or sign up.
type Credentials struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Session is issued by the identity provider after a successful sign-in.
type Session struct {
	Principal Principal `json:"principal"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// User is the stored account record of the local identity provider.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
