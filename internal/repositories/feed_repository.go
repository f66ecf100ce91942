package repositories

import (
	"context"
	"time"

	"firebase.google.com/go/v4/db"
	"github.com/pkg/errors"
	"github.com/recordwithme/backend/internal/models"
)

// NotificationFeed is the push-style notification source keyed by user ID.
type NotificationFeed interface {
	// Fetch returns every record currently stored for userID.
	Fetch(ctx context.Context, userID string) (map[string]RawRecord, error)
	// Watch calls fn with a full snapshot once and again after every change
	// below userID. Calls to fn never overlap. Watch blocks until ctx is done
	// (returning ctx.Err()) or the feed is lost (returning ErrFeedLost).
	Watch(ctx context.Context, userID string, fn func(map[string]RawRecord)) error
	Put(ctx context.Context, userID, id string, n *models.Notification) error
	Remove(ctx context.Context, userID, id string) error
}

// RTDBNotificationFeed implements NotificationFeed on the Firebase Realtime
// Database under notifications/{userId}/{notificationId}.
type RTDBNotificationFeed struct {
	client   *db.Client
	root     string
	interval time.Duration
}

// NewRTDBNotificationFeed creates a feed polling for changes every interval.
func NewRTDBNotificationFeed(client *db.Client, interval time.Duration) *RTDBNotificationFeed {
	return &RTDBNotificationFeed{client: client, root: "notifications", interval: interval}
}

func (f *RTDBNotificationFeed) ref(userID string) *db.Ref {
	return f.client.NewRef(f.root).Child(userID)
}

// Fetch reads the user's feed once.
func (f *RTDBNotificationFeed) Fetch(ctx context.Context, userID string) (map[string]RawRecord, error) {
	var raw map[string]interface{}
	if err := f.ref(userID).Get(ctx, &raw); err != nil {
		return nil, errors.Wrapf(err, "fetch feed for %s", userID)
	}
	return toRecords(raw), nil
}

// Watch re-reads the whole subtree with an ETag-conditional GET and only
// hands a snapshot to fn when the ETag moved.
func (f *RTDBNotificationFeed) Watch(ctx context.Context, userID string, fn func(map[string]RawRecord)) error {
	ref := f.ref(userID)

	var initial map[string]interface{}
	etag, err := ref.GetWithETag(ctx, &initial)
	if err != nil {
		return f.lost(ctx, err)
	}
	fn(toRecords(initial))

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		var raw map[string]interface{}
		changed, newETag, err := ref.GetIfChanged(ctx, etag, &raw)
		if err != nil {
			return f.lost(ctx, err)
		}
		if !changed {
			continue
		}
		etag = newETag
		fn(toRecords(raw))
	}
}

func (f *RTDBNotificationFeed) lost(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return errors.Wrap(ErrFeedLost, err.Error())
}

// Put writes n at the given key, replacing whatever was there.
func (f *RTDBNotificationFeed) Put(ctx context.Context, userID, id string, n *models.Notification) error {
	if err := f.ref(userID).Child(id).Set(ctx, n.Fields()); err != nil {
		return errors.Wrapf(err, "put feed notification %s for %s", id, userID)
	}
	return nil
}

// Remove deletes a single notification. Removing a missing key is not an error.
func (f *RTDBNotificationFeed) Remove(ctx context.Context, userID, id string) error {
	if err := f.ref(userID).Child(id).Delete(ctx); err != nil {
		return errors.Wrapf(err, "remove feed notification %s for %s", id, userID)
	}
	return nil
}

// toRecords keeps one entry per child key. Children that are not objects
// become empty records so validation drops them instead of failing the read.
func toRecords(raw map[string]interface{}) map[string]RawRecord {
	records := make(map[string]RawRecord, len(raw))
	for id, v := range raw {
		if m, ok := v.(map[string]interface{}); ok {
			records[id] = RawRecord(m)
			continue
		}
		records[id] = RawRecord{}
	}
	return records
}
