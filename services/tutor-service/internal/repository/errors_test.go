package repository

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func duplicateKey(index, dupKey string) error {
	return mongo.WriteException{
		WriteErrors: []mongo.WriteError{{
			Code:    11000,
			Message: "E11000 duplicate key error collection: ai_tutor.users index: " + index + " dup key: " + dupKey,
		}},
	}
}

func TestTranslateDuplicateKey(t *testing.T) {
	other := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "nil", err: nil, want: nil},
		{name: "username", err: duplicateKey("username_1", `{ username: "alice" }`), want: ErrDuplicateUsername},
		{name: "email", err: duplicateKey("email_1", `{ email: "alice@example.com" }`), want: ErrDuplicateEmail},
		{name: "google id", err: duplicateKey("google_id_1", `{ google_id: "g-1" }`), want: ErrDuplicateGoogleID},
		{
			name: "email value mentioning another field",
			err:  duplicateKey("email_1", `{ email: "username@google_id.example" }`),
			want: ErrDuplicateEmail,
		},
		{
			name: "username value mentioning email",
			err:  duplicateKey("username_1", `{ username: "email" }`),
			want: ErrDuplicateUsername,
		},
		{name: "not a duplicate", err: other, want: other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateDuplicateKey(tt.err)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}
