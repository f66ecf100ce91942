package repositories

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"
	"github.com/recordwithme/backend/internal/models"
)

// FriendshipRepository defines the read side of friendships. Mutations go
// through StoreTx.
type FriendshipRepository interface {
	ListFriends(ctx context.Context, userID string) ([]models.Friend, error)
	ListFriendRequests(ctx context.Context, userID string) ([]models.FriendRequest, error)
}

// FirestoreFriendshipRepository implements FriendshipRepository for Firestore
type FirestoreFriendshipRepository struct {
	paths
}

// NewFirestoreFriendshipRepository creates a new FirestoreFriendshipRepository
func NewFirestoreFriendshipRepository(client *firestore.Client) *FirestoreFriendshipRepository {
	return &FirestoreFriendshipRepository{paths: paths{client}}
}

// ListFriends returns the friends recorded under users/{userId}/friends, newest first
func (r *FirestoreFriendshipRepository) ListFriends(ctx context.Context, userID string) ([]models.Friend, error) {
	docs, err := r.user(userID).Collection("friends").
		OrderBy("addedAt", firestore.Desc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Wrapf(err, "list friends for %s", userID)
	}

	friends := make([]models.Friend, 0, len(docs))
	for _, doc := range docs {
		var f models.Friend
		if err := doc.DataTo(&f); err != nil {
			return nil, errors.Wrapf(err, "decode friend %s", doc.Ref.ID)
		}
		f.UserID = doc.Ref.ID
		friends = append(friends, f)
	}
	return friends, nil
}

// ListFriendRequests returns the pending requests addressed to userID
func (r *FirestoreFriendshipRepository) ListFriendRequests(ctx context.Context, userID string) ([]models.FriendRequest, error) {
	docs, err := r.user(userID).Collection("friendRequests").Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Wrapf(err, "list friend requests for %s", userID)
	}

	requests := make([]models.FriendRequest, 0, len(docs))
	for _, doc := range docs {
		var fr models.FriendRequest
		if err := doc.DataTo(&fr); err != nil {
			return nil, errors.Wrapf(err, "decode friend request %s", doc.Ref.ID)
		}
		fr.FromUserID = doc.Ref.ID
		requests = append(requests, fr)
	}
	return requests, nil
}
