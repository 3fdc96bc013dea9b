package repository

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrDuplicateUsername    = errors.New("username already registered")
	ErrDuplicateEmail       = errors.New("email already registered")
	ErrDuplicateGoogleID    = errors.New("google account already linked to another user")
	ErrGoogleIDAlreadySet   = errors.New("user is already linked to a different google account")
	ErrNoAuthenticationPath = errors.New("user needs a password hash or a google id")
)

// Default names of the unique indexes on the users collection.
const (
	usernameIndex = "username_1"
	emailIndex    = "email_1"
	googleIDIndex = "google_id_1"
)

// translateDuplicateKey maps a unique index violation to the matching domain
// error by the name of the violated index. Other errors are returned
// unchanged.
func translateDuplicateKey(err error) error {
	if err == nil || !mongo.IsDuplicateKeyError(err) {
		return err
	}

	switch violatedIndex(err) {
	case usernameIndex:
		return ErrDuplicateUsername
	case emailIndex:
		return ErrDuplicateEmail
	case googleIDIndex:
		return ErrDuplicateGoogleID
	default:
		return err
	}
}

// violatedIndex extracts the index name from a server message of the form
// "E11000 duplicate key error collection: db.users index: email_1 dup key: {...}".
func violatedIndex(err error) string {
	msg := err.Error()
	_, rest, ok := strings.Cut(msg, "index: ")
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(rest, " ")
	return name
}
