package repositories

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"
)

// NotificationRepository is the durable, on-demand notification store.
type NotificationRepository interface {
	// ListNotifications returns users/{userId}/notifications keyed by document
	// ID. On failure it returns an empty, non-nil map along with the error.
	ListNotifications(ctx context.Context, userID string) (map[string]RawRecord, error)
	DeleteNotification(ctx context.Context, userID, id string) error
}

type firestoreNotificationRepository struct {
	paths
}

func NewFirestoreNotificationRepository(client *firestore.Client) NotificationRepository {
	return &firestoreNotificationRepository{paths: paths{client}}
}

func (r *firestoreNotificationRepository) ListNotifications(ctx context.Context, userID string) (map[string]RawRecord, error) {
	docs, err := r.user(userID).Collection("notifications").Documents(ctx).GetAll()
	if err != nil {
		return map[string]RawRecord{}, errors.Wrapf(err, "list notifications for %s", userID)
	}

	records := make(map[string]RawRecord, len(docs))
	for _, doc := range docs {
		records[doc.Ref.ID] = RawRecord(doc.Data())
	}
	return records, nil
}

func (r *firestoreNotificationRepository) DeleteNotification(ctx context.Context, userID, id string) error {
	if _, err := r.notification(userID, id).Delete(ctx); err != nil {
		return errors.Wrapf(err, "delete notification %s for %s", id, userID)
	}
	return nil
}
