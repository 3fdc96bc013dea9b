package model

import (
	"time"
)

// Query records a generated tutor answer.
type Query struct {
	ID        int64     `bson:"_id"`
	UserID    int64     `bson:"user_id"`
	Topic     string    `bson:"topic"`
	Response  string    `bson:"response"`
	CreatedAt time.Time `bson:"created_at"`
}

// Document records an analysed upload.
type Document struct {
	ID        int64     `bson:"_id"`
	UserID    int64     `bson:"user_id"`
	Filename  string    `bson:"filename"`
	Content   string    `bson:"content,omitempty"`
	Response  string    `bson:"response,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}
