package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Photo is a group photo stored in MongoDB with its image embedded as base64.
type Photo struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	GroupID   string             `json:"group_id" bson:"group_id"`
	UserID    string             `json:"user_id" bson:"user_id"` // Firebase UID of the uploader
	Caption   string             `json:"caption,omitempty" bson:"caption,omitempty"`
	ImageData string             `json:"image_data" bson:"image_data"`
	MimeType  string             `json:"mime_type" bson:"mime_type"`
	TakenAt   time.Time          `json:"taken_at" bson:"taken_at"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// CreatePhotoRequest defines the request body for uploading a photo
type CreatePhotoRequest struct {
	Caption   string    `json:"caption,omitempty" validate:"omitempty,max=280"`
	ImageData string    `json:"image_data" validate:"required,base64"`
	MimeType  string    `json:"mime_type" validate:"required,oneof=image/jpeg image/png image/webp"`
	TakenAt   time.Time `json:"taken_at" validate:"required"`
}
