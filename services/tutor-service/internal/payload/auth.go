package payload

import "time"

type SignupRequest struct {
	Username string `json:"username"  validate:"required"`
	Email    string `json:"email"     validate:"required,email"`
	FullName string `json:"full_name"`
	Password string `json:"password"  validate:"required"`
}

// TokenRequest is the OAuth2 password grant form posted to /token.
type TokenRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type GoogleAuthRequest struct {
	AccessToken string `json:"access_token" validate:"required"`
}

type GoogleAuthResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	User        GoogleAuthUser `json:"user"`
}

type GoogleAuthUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// UserResponse is the public view of an account with its usage history.
type UserResponse struct {
	ID        int64              `json:"id"`
	Username  string             `json:"username"`
	Email     string             `json:"email"`
	FullName  string             `json:"full_name,omitempty"`
	Disabled  bool               `json:"disabled"`
	CreatedAt time.Time          `json:"created_at"`
	Picture   string             `json:"picture,omitempty"`
	Queries   []QueryResponse    `json:"queries"`
	Documents []DocumentResponse `json:"documents"`
}

type QueryResponse struct {
	ID        int64     `json:"id"`
	Topic     string    `json:"topic"`
	Response  string    `json:"response"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type DocumentResponse struct {
	ID        int64     `json:"id"`
	Filename  string    `json:"filename"`
	Content   string    `json:"content,omitempty"`
	Response  string    `json:"response,omitempty"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type ErrorResponse struct {
	Detail any `json:"detail"`
}
