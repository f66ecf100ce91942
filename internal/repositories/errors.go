package repositories

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when a referenced document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrFeedLost is returned by NotificationFeed.Watch when the upstream
	// feed stops answering.
	ErrFeedLost = errors.New("notification feed lost")
)

// RawRecord is an undecoded notification as handed out by either backend.
type RawRecord map[string]interface{}
