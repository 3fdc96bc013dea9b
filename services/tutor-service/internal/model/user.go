package model

import (
	"time"
)

// User represents an identity record. A user can sign in with a password, with
// Google, or both; at least one of PasswordHash and GoogleID is always set.
type User struct {
	ID           int64     `bson:"_id"`
	Username     string    `bson:"username"`
	Email        string    `bson:"email"`
	FullName     string    `bson:"full_name,omitempty"`
	PasswordHash string    `bson:"password_hash,omitempty"`
	GoogleID     string    `bson:"google_id,omitempty"`
	Picture      string    `bson:"picture,omitempty"`
	Disabled     bool      `bson:"disabled"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

// HasPassword reports whether the user can sign in with a local password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// HasGoogleIdentity reports whether the user is linked to a Google account.
func (u *User) HasGoogleIdentity() bool {
	return u.GoogleID != ""
}
