package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/ai-tutor-api/services/tutor-service/internal/model"
)

func TestMemoryStore_CreateUser(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	user, err := s.CreateUser(ctx, &model.User{Username: "ada", Email: "ada@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	tests := []struct {
		name string
		user model.User
		want error
	}{
		{name: "duplicate username", user: model.User{Username: "ada", Email: "other@example.com", PasswordHash: "h"}, want: ErrDuplicateUsername},
		{name: "duplicate email", user: model.User{Username: "ada2", Email: "ada@example.com", PasswordHash: "h"}, want: ErrDuplicateEmail},
		{name: "no auth path", user: model.User{Username: "bob", Email: "bob@example.com"}, want: ErrNoAuthenticationPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := tt.user
			_, err := s.CreateUser(ctx, &u)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	google, err := s.CreateUser(ctx, &model.User{Username: "grace", Email: "grace@example.com", GoogleID: "g-1"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, google.ID)

	_, err = s.CreateUser(ctx, &model.User{Username: "grace2", Email: "grace2@example.com", GoogleID: "g-1"})
	assert.ErrorIs(t, err, ErrDuplicateGoogleID)
}

func TestMemoryStore_Lookups(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	created, err := s.CreateUser(ctx, &model.User{Username: "ada", Email: "ada@example.com", GoogleID: "g-1"})
	require.NoError(t, err)

	byName, err := s.GetUserByUsername(ctx, "ada")
	require.NoError(t, err)
	byEmail, err := s.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	byGoogle, err := s.GetUserByGoogleID(ctx, "g-1")
	require.NoError(t, err)
	byID, err := s.GetUserByID(ctx, created.ID)
	require.NoError(t, err)

	for _, u := range []*model.User{byName, byEmail, byGoogle, byID} {
		assert.Equal(t, created.ID, u.ID)
	}

	_, err = s.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = s.GetUserByGoogleID(ctx, "")
	assert.ErrorIs(t, err, ErrUserNotFound)

	// returned records are copies
	byName.Username = "mutated"
	again, err := s.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada", again.Username)
}

func TestMemoryStore_LinkGoogleIdentity(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	ada, err := s.CreateUser(ctx, &model.User{Username: "ada", Email: "ada@example.com", PasswordHash: "hash"})
	require.NoError(t, err)
	grace, err := s.CreateUser(ctx, &model.User{Username: "grace", Email: "grace@example.com", GoogleID: "g-grace"})
	require.NoError(t, err)

	linked, err := s.LinkGoogleIdentity(ctx, ada.ID, LinkGoogleIdentityParams{GoogleID: "g-ada", Picture: "pic"})
	require.NoError(t, err)
	assert.Equal(t, "g-ada", linked.GoogleID)
	assert.Equal(t, "pic", linked.Picture)
	assert.Equal(t, "hash", linked.PasswordHash)
	assert.Equal(t, "ada", linked.Username)

	_, err = s.LinkGoogleIdentity(ctx, ada.ID, LinkGoogleIdentityParams{GoogleID: "g-ada"})
	assert.NoError(t, err, "relinking the same id is idempotent")

	_, err = s.LinkGoogleIdentity(ctx, ada.ID, LinkGoogleIdentityParams{GoogleID: "g-other"})
	assert.ErrorIs(t, err, ErrGoogleIDAlreadySet)

	bob, err := s.CreateUser(ctx, &model.User{Username: "bob", Email: "bob@example.com", PasswordHash: "hash"})
	require.NoError(t, err)
	_, err = s.LinkGoogleIdentity(ctx, bob.ID, LinkGoogleIdentityParams{GoogleID: grace.GoogleID})
	assert.ErrorIs(t, err, ErrDuplicateGoogleID)

	_, err = s.LinkGoogleIdentity(ctx, 999, LinkGoogleIdentityParams{GoogleID: "g-x"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemoryStore_SetDisabled(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	ada, err := s.CreateUser(ctx, &model.User{Username: "ada", Email: "ada@example.com", PasswordHash: "hash"})
	require.NoError(t, err)

	disabled, err := s.SetDisabled(ctx, ada.ID, true)
	require.NoError(t, err)
	assert.True(t, disabled.Disabled)

	_, err = s.SetDisabled(ctx, 42, true)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemoryStore_ConcurrentCreatesKeepUsernamesUnique(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.CreateUser(ctx, &model.User{
				Username:     "same",
				Email:        fmt.Sprintf("user%d@example.com", i),
				PasswordHash: "h",
			})
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
}

func TestMemoryStore_Usage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	q, err := s.CreateQuery(ctx, &model.Query{UserID: 1, Topic: "recursion", Response: "r"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, q.ID)

	d, err := s.CreateDocument(ctx, &model.Document{UserID: 1, Filename: "notes.txt", Content: "c", Response: "r"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, d.ID)

	assert.Len(t, s.Queries(), 1)
	assert.Len(t, s.Documents(), 1)
}

func TestMemoryStore_ListUsageByUser(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	queries, err := s.ListQueriesByUser(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, queries)
	assert.Empty(t, queries)

	for _, q := range []model.Query{
		{UserID: 1, Topic: "recursion"},
		{UserID: 2, Topic: "loops"},
		{UserID: 1, Topic: "closures"},
	} {
		_, err := s.CreateQuery(ctx, &q)
		require.NoError(t, err)
	}
	_, err = s.CreateDocument(ctx, &model.Document{UserID: 2, Filename: "notes.txt"})
	require.NoError(t, err)

	queries, err = s.ListQueriesByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, queries, 2)
	assert.Equal(t, "recursion", queries[0].Topic)
	assert.Equal(t, "closures", queries[1].Topic)

	documents, err := s.ListDocumentsByUser(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, documents)
	assert.Empty(t, documents)

	documents, err = s.ListDocumentsByUser(ctx, 2)
	require.NoError(t, err)
	require.Len(t, documents, 1)
	assert.Equal(t, "notes.txt", documents[0].Filename)
}
