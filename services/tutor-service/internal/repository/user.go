package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/ai-tutor-api/services/tutor-service/internal/model"
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByGoogleID(ctx context.Context, googleID string) (*model.User, error)
	LinkGoogleIdentity(ctx context.Context, id int64, params LinkGoogleIdentityParams) (*model.User, error)
	SetDisabled(ctx context.Context, id int64, disabled bool) (*model.User, error)
}

// LinkGoogleIdentityParams defines the Google account attached to an existing user.
type LinkGoogleIdentityParams struct {
	GoogleID string
	Picture  string
}

const userCollection = "users"

type userMongoRepository struct {
	db *mongo.Database
}

// NewUserMongoRepository creates the repository and its unique indexes.
func NewUserMongoRepository(ctx context.Context, db *mongo.Database) (UserRepository, error) {
	collection := db.Collection(userCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "google_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return nil, fmt.Errorf("failed to create user indexes: %w", err)
	}

	return &userMongoRepository{db: db}, nil
}

func (r *userMongoRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	if !user.HasPassword() && !user.HasGoogleIdentity() {
		return nil, ErrNoAuthenticationPath
	}

	// The unique indexes are the source of truth; these lookups only give a
	// precise error for the common case.
	if err := r.ensureUnique(ctx, user); err != nil {
		return nil, err
	}

	id, err := nextSequence(ctx, r.db, userCollection)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := r.db.Collection(userCollection).InsertOne(ctx, user); err != nil {
		return nil, translateDuplicateKey(err)
	}

	return user, nil
}

func (r *userMongoRepository) ensureUnique(ctx context.Context, user *model.User) error {
	checks := []struct {
		filter bson.M
		err    error
		skip   bool
	}{
		{filter: bson.M{"username": user.Username}, err: ErrDuplicateUsername},
		{filter: bson.M{"email": user.Email}, err: ErrDuplicateEmail},
		{filter: bson.M{"google_id": user.GoogleID}, err: ErrDuplicateGoogleID, skip: user.GoogleID == ""},
	}

	for _, check := range checks {
		if check.skip {
			continue
		}

		count, err := r.db.Collection(userCollection).CountDocuments(ctx, check.filter, options.Count().SetLimit(1))
		if err != nil {
			return err
		}
		if count > 0 {
			return check.err
		}
	}

	return nil
}

func (r *userMongoRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *userMongoRepository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *userMongoRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userMongoRepository) GetUserByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	if googleID == "" {
		return nil, ErrUserNotFound
	}

	return r.findOne(ctx, bson.M{"google_id": googleID})
}

func (r *userMongoRepository) LinkGoogleIdentity(
	ctx context.Context,
	id int64,
	params LinkGoogleIdentityParams,
) (*model.User, error) {
	if params.GoogleID == "" {
		return nil, errors.New("google id is required")
	}

	set := bson.M{
		"google_id":  params.GoogleID,
		"updated_at": time.Now().UTC(),
	}
	if params.Picture != "" {
		set["picture"] = params.Picture
	}

	// google_id is write-once: only users without one match the filter.
	result := r.db.Collection(userCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": id, "google_id": bson.M{"$exists": false}},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if err := result.Err(); err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, translateDuplicateKey(err)
		}

		existing, getErr := r.GetUserByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		if existing.GoogleID == params.GoogleID {
			return existing, nil
		}

		return nil, ErrGoogleIDAlreadySet
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userMongoRepository) SetDisabled(ctx context.Context, id int64, disabled bool) (*model.User, error) {
	result := r.db.Collection(userCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"disabled": disabled, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	return decodeUser(result)
}

func (r *userMongoRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	return decodeUser(r.db.Collection(userCollection).FindOne(ctx, filter))
}

func decodeUser(result *mongo.SingleResult) (*model.User, error) {
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}
