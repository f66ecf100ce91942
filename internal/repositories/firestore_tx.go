package repositories

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"
	"github.com/recordwithme/backend/internal/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// StoreTx is the set of durable-store mutations a single user decision may
// need. Implementations may require every read to happen before the first
// write, as Firestore does.
type StoreTx interface {
	GetGroup(groupID string) (*models.Group, error)
	IsFriend(userID, friendID string) (bool, error)
	SetFriend(userID string, f *models.Friend) error
	SetFriendRequest(recipientID string, r *models.FriendRequest) error
	DeleteFriendRequest(recipientID, requesterID string) error
	SetGroup(g *models.Group) error
	SetUserGroup(userID string, g *models.Group) error
	SetGroupInvite(inviteeID string, inv *models.GroupInvite) error
	DeleteGroupInvite(inviteeID, groupID string) error
	SetNotification(userID string, n *models.Notification) error
	DeleteNotification(userID, id string) error
}

// Transactor runs fn atomically against the durable store.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(tx StoreTx) error) error
}

// FirestoreTransactor implements Transactor with Firestore transactions.
type FirestoreTransactor struct {
	client *firestore.Client
}

func NewFirestoreTransactor(client *firestore.Client) *FirestoreTransactor {
	return &FirestoreTransactor{client: client}
}

// RunInTx may call fn more than once when Firestore retries on contention,
// so fn must not have side effects outside tx.
func (t *FirestoreTransactor) RunInTx(ctx context.Context, fn func(tx StoreTx) error) error {
	return t.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(&firestoreTx{paths: paths{t.client}, tx: tx})
	})
}

type firestoreTx struct {
	paths
	tx *firestore.Transaction
}

func (t *firestoreTx) GetGroup(groupID string) (*models.Group, error) {
	snap, err := t.tx.Get(t.group(groupID))
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

func (t *firestoreTx) IsFriend(userID, friendID string) (bool, error) {
	_, err := t.tx.Get(t.friend(userID, friendID))
	if err == nil {
		return true, nil
	}
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	return false, errors.Wrapf(err, "get friend %s of %s", friendID, userID)
}

func (t *firestoreTx) SetFriend(userID string, f *models.Friend) error {
	return t.tx.Set(t.friend(userID, f.UserID), f)
}

func (t *firestoreTx) SetFriendRequest(recipientID string, r *models.FriendRequest) error {
	return t.tx.Set(t.friendRequest(recipientID, r.FromUserID), r)
}

func (t *firestoreTx) DeleteFriendRequest(recipientID, requesterID string) error {
	return t.tx.Delete(t.friendRequest(recipientID, requesterID))
}

func (t *firestoreTx) SetGroup(g *models.Group) error {
	return t.tx.Set(t.group(g.ID), g)
}

func (t *firestoreTx) SetUserGroup(userID string, g *models.Group) error {
	return t.tx.Set(t.user(userID).Collection("groups").Doc(g.ID), g)
}

func (t *firestoreTx) SetGroupInvite(inviteeID string, inv *models.GroupInvite) error {
	return t.tx.Set(t.groupInvite(inviteeID, inv.GroupID), inv)
}

func (t *firestoreTx) DeleteGroupInvite(inviteeID, groupID string) error {
	return t.tx.Delete(t.groupInvite(inviteeID, groupID))
}

func (t *firestoreTx) SetNotification(userID string, n *models.Notification) error {
	return t.tx.Set(t.notification(userID, n.ID), n.Fields())
}

func (t *firestoreTx) DeleteNotification(userID, id string) error {
	return t.tx.Delete(t.notification(userID, id))
}

// paths maps the document layout shared by the Firestore repositories.
type paths struct {
	client *firestore.Client
}

func (p paths) user(userID string) *firestore.DocumentRef {
	return p.client.Collection("users").Doc(userID)
}

func (p paths) friend(userID, friendID string) *firestore.DocumentRef {
	return p.user(userID).Collection("friends").Doc(friendID)
}

func (p paths) friendRequest(recipientID, requesterID string) *firestore.DocumentRef {
	return p.user(recipientID).Collection("friendRequests").Doc(requesterID)
}

func (p paths) group(groupID string) *firestore.DocumentRef {
	return p.client.Collection("groups").Doc(groupID)
}

func (p paths) groupInvite(inviteeID, groupID string) *firestore.DocumentRef {
	return p.user(inviteeID).Collection("groupInvites").Doc(groupID)
}

func (p paths) notification(userID, id string) *firestore.DocumentRef {
	return p.user(userID).Collection("notifications").Doc(id)
}
