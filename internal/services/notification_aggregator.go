package services

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/recordwithme/backend/internal/models"
	"github.com/recordwithme/backend/internal/repositories"
	"github.com/recordwithme/backend/pkg/logger"
	"github.com/sirupsen/logrus"
)

// NotificationAggregator merges the push feed and the durable store into a
// single newest-first notification list.
type NotificationAggregator struct {
	feed     repositories.NotificationFeed
	store    repositories.NotificationRepository
	consumed repositories.ConsumedRepository
	log      *logrus.Entry
}

func NewNotificationAggregator(feed repositories.NotificationFeed, store repositories.NotificationRepository, consumed repositories.ConsumedRepository) *NotificationAggregator {
	return &NotificationAggregator{
		feed:     feed,
		store:    store,
		consumed: consumed,
		log:      logger.Component("aggregator"),
	}
}

// Snapshot performs a single merge. An unavailable feed or store counts as
// empty; the error return is kept for callers that treat a snapshot as fallible.
func (a *NotificationAggregator) Snapshot(ctx context.Context, userID string) ([]models.Notification, error) {
	records, err := a.feed.Fetch(ctx, userID)
	if err != nil {
		a.log.WithError(err).WithField("user", userID).Warn("notification feed unavailable, merging store only")
		records = nil
	}
	return a.merge(ctx, userID, records), nil
}

func (a *NotificationAggregator) merge(ctx context.Context, userID string, feedRecords map[string]repositories.RawRecord) []models.Notification {
	log := a.log.WithField("user", userID)

	storeRecords, err := a.store.ListNotifications(ctx, userID)
	if err != nil {
		log.WithError(err).Warn("durable store unavailable, merging feed only")
	}

	consumed, err := a.consumed.ConsumedIDs(ctx, userID)
	if err != nil {
		log.WithError(err).Warn("consumed set unavailable")
	}

	feed, droppedFeed := parseRecords(models.SourceFeed, feedRecords)
	store, droppedStore := parseRecords(models.SourceStore, storeRecords)
	if droppedFeed+droppedStore > 0 {
		log.WithFields(logrus.Fields{"feed": droppedFeed, "store": droppedStore}).Debug("dropped invalid notification records")
	}

	return MergeNotifications(feed, store, consumed)
}

// Subscribe starts watching userID's feed. Every feed emission triggers a
// store read and a merge; the merged list is published to the
// subscription's listeners. Merges for one subscription run one at a time in
// emission order.
func (a *NotificationAggregator) Subscribe(ctx context.Context, userID string) (*NotificationSubscription, error) {
	if userID == "" {
		return nil, errors.New("subscribe: empty user id")
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &NotificationSubscription{
		userID:    userID,
		cancel:    cancel,
		done:      make(chan struct{}),
		state:     StateSubscribed,
		listeners: make(map[chan []models.Notification]struct{}),
		log:       a.log.WithField("user", userID),
	}

	go func() {
		defer close(sub.done)
		err := a.feed.Watch(ctx, userID, func(records map[string]repositories.RawRecord) {
			if ctx.Err() != nil {
				return
			}
			sub.publish(a.merge(ctx, userID, records))
		})
		sub.finish(err)
	}()

	return sub, nil
}

// SubscriptionState tracks a subscription through
// Unsubscribed -> Subscribed -> Emitting -> Cancelled.
type SubscriptionState int

const (
	StateUnsubscribed SubscriptionState = iota
	StateSubscribed
	StateEmitting
	StateCancelled
)

func (s SubscriptionState) String() string {
	switch s {
	case StateSubscribed:
		return "subscribed"
	case StateEmitting:
		return "emitting"
	case StateCancelled:
		return "cancelled"
	default:
		return "unsubscribed"
	}
}

// NotificationSubscription is a live merged view of one user's notifications.
// Cancelled is terminal: a new view needs a new Subscribe.
type NotificationSubscription struct {
	userID string
	cancel context.CancelFunc
	done   chan struct{}
	log    *logrus.Entry

	mu        sync.Mutex
	state     SubscriptionState
	latest    []models.Notification
	err       error
	listeners map[chan []models.Notification]struct{}
}

// Listen registers a consumer. The channel holds at most one list, always the
// newest; it is closed when the subscription is cancelled or stop is called.
func (s *NotificationSubscription) Listen() (<-chan []models.Notification, func()) {
	ch := make(chan []models.Notification, 1)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.latest != nil {
		ch <- s.latest
	}
	if s.state == StateCancelled {
		close(ch)
		return ch, func() {}
	}
	s.listeners[ch] = struct{}{}

	stop := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.listeners[ch]; ok {
			delete(s.listeners, ch)
			close(ch)
		}
	}
	return ch, stop
}

// Latest returns the last published list. Callers must not modify it.
func (s *NotificationSubscription) Latest() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

func (s *NotificationSubscription) State() SubscriptionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err reports why the subscription stopped, or nil while it is live or after
// a plain Close.
func (s *NotificationSubscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed once the subscription has reached Cancelled.
func (s *NotificationSubscription) Done() <-chan struct{} {
	return s.done
}

// Close cancels the subscription and waits for the watcher to exit.
func (s *NotificationSubscription) Close() {
	s.cancel()
	<-s.done
}

func (s *NotificationSubscription) publish(list []models.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateCancelled {
		return
	}
	s.state = StateEmitting
	s.latest = list

	for ch := range s.listeners {
		select {
		case ch <- list:
		default:
			// Replace the unread list with the newer one.
			select {
			case <-ch:
			default:
			}
			ch <- list
		}
	}
}

func (s *NotificationSubscription) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateCancelled
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		s.err = err
		s.log.WithError(err).Warn("notification feed lost, keeping last list")
	}
	for ch := range s.listeners {
		close(ch)
	}
	s.listeners = nil
	s.cancel()
}
