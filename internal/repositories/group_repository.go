package repositories

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"
	"github.com/recordwithme/backend/internal/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GroupRepository defines read access to groups.
type GroupRepository interface {
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	ListGroups(ctx context.Context, userID string) ([]models.Group, error)
}

type firestoreGroupRepository struct {
	paths
}

func NewFirestoreGroupRepository(client *firestore.Client) GroupRepository {
	return &firestoreGroupRepository{paths: paths{client}}
}

// GetGroup returns ErrNotFound when groups/{groupId} does not exist.
func (r *firestoreGroupRepository) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	snap, err := r.group(groupID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "get group %s", groupID)
	}

	var g models.Group
	if err := snap.DataTo(&g); err != nil {
		return nil, errors.Wrapf(err, "decode group %s", groupID)
	}
	g.ID = groupID
	return &g, nil
}

// ListGroups reads the user's denormalized group copies.
func (r *firestoreGroupRepository) ListGroups(ctx context.Context, userID string) ([]models.Group, error) {
	docs, err := r.user(userID).Collection("groups").Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Wrapf(err, "list groups for %s", userID)
	}

	groups := make([]models.Group, 0, len(docs))
	for _, doc := range docs {
		var g models.Group
		if err := doc.DataTo(&g); err != nil {
			return nil, errors.Wrapf(err, "decode group %s", doc.Ref.ID)
		}
		g.ID = doc.Ref.ID
		groups = append(groups, g)
	}
	return groups, nil
}
