package repositories

import (
	"context"
	"time"

	"github.com/recordwithme/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PhotoRepository defines the interface for group photo operations
type PhotoRepository interface {
	CreatePhoto(ctx context.Context, photo *models.Photo) error
	GetPhotosByGroupBetween(ctx context.Context, groupID string, from, to time.Time) ([]models.Photo, error)
}

// MongoPhotoRepository implements PhotoRepository for MongoDB
type MongoPhotoRepository struct {
	collection *mongo.Collection
}

// NewMongoPhotoRepository creates a new MongoPhotoRepository
func NewMongoPhotoRepository(db *mongo.Database) *MongoPhotoRepository {
	return &MongoPhotoRepository{collection: db.Collection("photos")}
}

// CreatePhoto stores a new photo in MongoDB
func (r *MongoPhotoRepository) CreatePhoto(ctx context.Context, photo *models.Photo) error {
	photo.ID = primitive.NewObjectID()
	_, err := r.collection.InsertOne(ctx, photo)
	return err
}

// GetPhotosByGroupBetween returns the group's photos taken in [from, to), oldest first
func (r *MongoPhotoRepository) GetPhotosByGroupBetween(ctx context.Context, groupID string, from, to time.Time) ([]models.Photo, error) {
	filter := bson.M{
		"group_id": groupID,
		"taken_at": bson.M{"$gte": from, "$lt": to},
	}
	opts := options.Find().SetSort(bson.D{{Key: "taken_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var photos []models.Photo
	if err = cursor.All(ctx, &photos); err != nil {
		return nil, err
	}
	return photos, nil
}
