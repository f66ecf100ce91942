package services

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/recordwithme/backend/internal/models"
	"github.com/recordwithme/backend/internal/repositories"
)

// fakeBackend is an in-memory stand-in for the Realtime Database feed and the
// Firestore collections, with transactions that apply all-or-nothing.
type fakeBackend struct {
	mu sync.Mutex

	feed           map[string]map[string]repositories.RawRecord
	notifications  map[string]map[string]repositories.RawRecord
	friends        map[string]map[string]models.Friend
	friendRequests map[string]map[string]models.FriendRequest
	groups         map[string]models.Group
	userGroups     map[string]map[string]models.Group
	groupInvites   map[string]map[string]models.GroupInvite

	storeErr     error
	fetchErr     error
	feedPutErr   error
	removeFails  int
	removeCalls  int
	commitErr    error
	changed      chan struct{}
	lost         chan error
	watchStarted chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		feed:           map[string]map[string]repositories.RawRecord{},
		notifications:  map[string]map[string]repositories.RawRecord{},
		friends:        map[string]map[string]models.Friend{},
		friendRequests: map[string]map[string]models.FriendRequest{},
		groups:         map[string]models.Group{},
		userGroups:     map[string]map[string]models.Group{},
		groupInvites:   map[string]map[string]models.GroupInvite{},
		changed:        make(chan struct{}, 1),
		lost:           make(chan error, 1),
		watchStarted:   make(chan struct{}, 1),
	}
}

func ensure[V any](m map[string]map[string]V, key string) map[string]V {
	if m[key] == nil {
		m[key] = map[string]V{}
	}
	return m[key]
}

func copyRecords(in map[string]repositories.RawRecord) map[string]repositories.RawRecord {
	out := make(map[string]repositories.RawRecord, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// seeding helpers

// seedFeed writes without waking watchers; call notify for a live change.
func (f *fakeBackend) seedFeed(userID, id string, raw repositories.RawRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ensure(f.feed, userID)[id] = raw
}

func (f *fakeBackend) seedStore(userID, id string, raw repositories.RawRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ensure(f.notifications, userID)[id] = raw
}

func (f *fakeBackend) notify() {
	select {
	case f.changed <- struct{}{}:
	default:
	}
}

// NotificationFeed

func (f *fakeBackend) Fetch(_ context.Context, userID string) (map[string]repositories.RawRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return copyRecords(f.feed[userID]), nil
}

func (f *fakeBackend) Watch(ctx context.Context, userID string, fn func(map[string]repositories.RawRecord)) error {
	snapshot, _ := f.Fetch(ctx, userID)
	fn(snapshot)
	select {
	case f.watchStarted <- struct{}{}:
	default:
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-f.lost:
			return errors.Wrap(repositories.ErrFeedLost, err.Error())
		case <-f.changed:
			snapshot, _ := f.Fetch(ctx, userID)
			fn(snapshot)
		}
	}
}

func (f *fakeBackend) Put(_ context.Context, userID, id string, n *models.Notification) error {
	f.mu.Lock()
	if f.feedPutErr != nil {
		f.mu.Unlock()
		return f.feedPutErr
	}
	ensure(f.feed, userID)[id] = repositories.RawRecord(n.Fields())
	f.mu.Unlock()
	f.notify()
	return nil
}

func (f *fakeBackend) Remove(_ context.Context, userID, id string) error {
	f.mu.Lock()
	f.removeCalls++
	if f.removeFails > 0 {
		f.removeFails--
		f.mu.Unlock()
		return errors.New("feed unavailable")
	}
	delete(f.feed[userID], id)
	f.mu.Unlock()
	f.notify()
	return nil
}

// NotificationRepository

func (f *fakeBackend) ListNotifications(_ context.Context, userID string) (map[string]repositories.RawRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.storeErr != nil {
		return map[string]repositories.RawRecord{}, f.storeErr
	}
	return copyRecords(f.notifications[userID]), nil
}

func (f *fakeBackend) DeleteNotification(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.notifications[userID], id)
	return nil
}

// Transactor

func (f *fakeBackend) RunInTx(_ context.Context, fn func(tx repositories.StoreTx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tx := &fakeTx{backend: f}
	if err := fn(tx); err != nil {
		return err
	}
	if f.commitErr != nil {
		return f.commitErr
	}
	for _, op := range tx.ops {
		op()
	}
	return nil
}

// fakeTx reads committed state and buffers writes until commit. It is only
// used while the backend lock is held.
type fakeTx struct {
	backend *fakeBackend
	ops     []func()
	wrote   bool
}

func (t *fakeTx) read() error {
	if t.wrote {
		return errors.New("read after write in transaction")
	}
	return nil
}

func (t *fakeTx) write(op func()) error {
	t.wrote = true
	t.ops = append(t.ops, op)
	return nil
}

func (t *fakeTx) GetGroup(groupID string) (*models.Group, error) {
	if err := t.read(); err != nil {
		return nil, err
	}
	g, ok := t.backend.groups[groupID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	g.Members = append([]string(nil), g.Members...)
	return &g, nil
}

func (t *fakeTx) IsFriend(userID, friendID string) (bool, error) {
	if err := t.read(); err != nil {
		return false, err
	}
	_, ok := t.backend.friends[userID][friendID]
	return ok, nil
}

func (t *fakeTx) SetFriend(userID string, fr *models.Friend) error {
	v := *fr
	return t.write(func() { ensure(t.backend.friends, userID)[v.UserID] = v })
}

func (t *fakeTx) SetFriendRequest(recipientID string, r *models.FriendRequest) error {
	v := *r
	return t.write(func() { ensure(t.backend.friendRequests, recipientID)[v.FromUserID] = v })
}

func (t *fakeTx) DeleteFriendRequest(recipientID, requesterID string) error {
	return t.write(func() { delete(t.backend.friendRequests[recipientID], requesterID) })
}

func (t *fakeTx) SetGroup(g *models.Group) error {
	v := *g
	v.Members = append([]string(nil), g.Members...)
	return t.write(func() { t.backend.groups[v.ID] = v })
}

func (t *fakeTx) SetUserGroup(userID string, g *models.Group) error {
	v := *g
	v.Members = append([]string(nil), g.Members...)
	return t.write(func() { ensure(t.backend.userGroups, userID)[v.ID] = v })
}

func (t *fakeTx) SetGroupInvite(inviteeID string, inv *models.GroupInvite) error {
	v := *inv
	return t.write(func() { ensure(t.backend.groupInvites, inviteeID)[v.GroupID] = v })
}

func (t *fakeTx) DeleteGroupInvite(inviteeID, groupID string) error {
	return t.write(func() { delete(t.backend.groupInvites[inviteeID], groupID) })
}

func (t *fakeTx) SetNotification(userID string, n *models.Notification) error {
	id, fields := n.ID, repositories.RawRecord(n.Fields())
	return t.write(func() { ensure(t.backend.notifications, userID)[id] = fields })
}

func (t *fakeTx) DeleteNotification(userID, id string) error {
	return t.write(func() { delete(t.backend.notifications[userID], id) })
}

// countType counts records of type t in one user's map.
func countType(records map[string]repositories.RawRecord, t models.NotificationType) int {
	n := 0
	for _, r := range records {
		if r["type"] == string(t) {
			n++
		}
	}
	return n
}
