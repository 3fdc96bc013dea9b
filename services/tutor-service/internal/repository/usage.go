package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/ai-tutor-api/services/tutor-service/internal/model"
)

// UsageRepository persists the queries and documents users send to the tutor.
type UsageRepository interface {
	CreateQuery(ctx context.Context, query *model.Query) (*model.Query, error)
	CreateDocument(ctx context.Context, document *model.Document) (*model.Document, error)
	// ListQueriesByUser returns the queries of userID, oldest first.
	ListQueriesByUser(ctx context.Context, userID int64) ([]model.Query, error)
	// ListDocumentsByUser returns the documents of userID, oldest first.
	ListDocumentsByUser(ctx context.Context, userID int64) ([]model.Document, error)
}

const (
	queryCollection    = "queries"
	documentCollection = "documents"
)

type usageMongoRepository struct {
	db *mongo.Database
}

// NewUsageMongoRepository creates the repository and its lookup indexes.
func NewUsageMongoRepository(ctx context.Context, db *mongo.Database) (UsageRepository, error) {
	byUser := mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index(),
	}

	for _, name := range []string{queryCollection, documentCollection} {
		if _, err := db.Collection(name).Indexes().CreateOne(ctx, byUser); err != nil {
			return nil, err
		}
	}

	return &usageMongoRepository{db: db}, nil
}

func (r *usageMongoRepository) CreateQuery(ctx context.Context, query *model.Query) (*model.Query, error) {
	id, err := nextSequence(ctx, r.db, queryCollection)
	if err != nil {
		return nil, err
	}

	query.ID = id
	query.CreatedAt = time.Now().UTC()

	if _, err := r.db.Collection(queryCollection).InsertOne(ctx, query); err != nil {
		return nil, err
	}

	return query, nil
}

func (r *usageMongoRepository) CreateDocument(ctx context.Context, document *model.Document) (*model.Document, error) {
	id, err := nextSequence(ctx, r.db, documentCollection)
	if err != nil {
		return nil, err
	}

	document.ID = id
	document.CreatedAt = time.Now().UTC()

	if _, err := r.db.Collection(documentCollection).InsertOne(ctx, document); err != nil {
		return nil, err
	}

	return document, nil
}

func (r *usageMongoRepository) ListQueriesByUser(ctx context.Context, userID int64) ([]model.Query, error) {
	queries := []model.Query{}
	if err := r.findByUser(ctx, queryCollection, userID, &queries); err != nil {
		return nil, err
	}

	return queries, nil
}

func (r *usageMongoRepository) ListDocumentsByUser(ctx context.Context, userID int64) ([]model.Document, error) {
	documents := []model.Document{}
	if err := r.findByUser(ctx, documentCollection, userID, &documents); err != nil {
		return nil, err
	}

	return documents, nil
}

func (r *usageMongoRepository) findByUser(ctx context.Context, collection string, userID int64, results any) error {
	cursor, err := r.db.Collection(collection).Find(
		ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return err
	}

	return cursor.All(ctx, results)
}
