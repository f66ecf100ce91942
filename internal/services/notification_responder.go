package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/recordwithme/backend/internal/models"
	"github.com/recordwithme/backend/internal/repositories"
	"github.com/recordwithme/backend/pkg/logger"
	"github.com/sirupsen/logrus"
)

// Decision is a user's answer to an actionable notification.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// Actor is the authenticated user performing an operation.
type Actor struct {
	ID   string
	Name string
}

const (
	feedCleanupAttempts = 3
	feedCleanupTimeout  = 10 * time.Second
)

// NotificationResponder applies accept/reject decisions. The durable-store
// part of each decision commits in one transaction; feed cleanup and the
// feed copy of the reply follow as best-effort steps.
type NotificationResponder struct {
	feed     repositories.NotificationFeed
	store    repositories.NotificationRepository
	tx       repositories.Transactor
	consumed repositories.ConsumedRepository
	now      func() time.Time
	log      *logrus.Entry
}

func NewNotificationResponder(feed repositories.NotificationFeed, store repositories.NotificationRepository, tx repositories.Transactor, consumed repositories.ConsumedRepository) *NotificationResponder {
	return &NotificationResponder{
		feed:     feed,
		store:    store,
		tx:       tx,
		consumed: consumed,
		now:      time.Now,
		log:      logger.Component("responder"),
	}
}

// replyID derives the reply's key from the consumed notification so that
// answering twice overwrites the reply instead of duplicating it.
func replyID(consumedID string, t models.NotificationType) string {
	return consumedID + "_" + string(t)
}

// Respond applies decision to n on behalf of actor, the notification's
// recipient. ErrGroupNotFound is returned as is; other failures are wrapped.
func (r *NotificationResponder) Respond(ctx context.Context, actor Actor, n models.Notification, decision Decision) error {
	if decision != DecisionAccept && decision != DecisionReject {
		return ErrInvalidDecision
	}
	if !n.Type.Actionable() {
		return ErrNotActionable
	}
	if actor.Name == "" {
		return ErrAnonymousActor
	}

	now := r.now()
	var reply *models.Notification
	err := r.tx.RunInTx(ctx, func(tx repositories.StoreTx) error {
		var err error
		switch n.Type {
		case models.NotificationFriendRequest:
			reply, err = r.applyFriendRequest(tx, actor, n, decision, now)
		case models.NotificationGroupInvite:
			reply, err = r.applyGroupInvite(tx, actor, n, decision, now)
		}
		if err != nil {
			return err
		}
		if err := tx.DeleteNotification(actor.ID, n.ID); err != nil {
			return err
		}
		return tx.SetNotification(n.FromUserID, reply)
	})
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			return ErrGroupNotFound
		}
		return errors.Wrapf(err, "%s %s %s", decision, n.Type, n.ID)
	}

	r.log.WithFields(logrus.Fields{
		"user":         actor.ID,
		"notification": n.ID,
		"type":         n.Type,
		"decision":     decision,
	}).Info("notification response committed")

	r.afterCommit(actor.ID, n.ID, n.FromUserID, reply)
	return nil
}

func (r *NotificationResponder) applyFriendRequest(tx repositories.StoreTx, actor Actor, n models.Notification, decision Decision, now time.Time) (*models.Notification, error) {
	replyType := models.NotificationFriendRejected
	if decision == DecisionAccept {
		replyType = models.NotificationFriendAccepted
		if err := tx.SetFriend(actor.ID, &models.Friend{UserID: n.FromUserID, Name: n.FromUserName, AddedAt: now}); err != nil {
			return nil, err
		}
		if err := tx.SetFriend(n.FromUserID, &models.Friend{UserID: actor.ID, Name: actor.Name, AddedAt: now}); err != nil {
			return nil, err
		}
	}
	if err := tx.DeleteFriendRequest(actor.ID, n.FromUserID); err != nil {
		return nil, err
	}
	return newReply(n.ID, replyType, actor, now, "", ""), nil
}

func (r *NotificationResponder) applyGroupInvite(tx repositories.StoreTx, actor Actor, n models.Notification, decision Decision, now time.Time) (*models.Notification, error) {
	if decision == DecisionReject {
		if err := tx.DeleteGroupInvite(actor.ID, n.GroupID); err != nil {
			return nil, err
		}
		return newReply(n.ID, models.NotificationGroupInviteRejected, actor, now, n.GroupID, n.GroupName), nil
	}

	group, err := tx.GetGroup(n.GroupID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	group.AddMember(actor.ID)
	if err := tx.SetGroup(group); err != nil {
		return nil, err
	}
	if err := tx.SetUserGroup(actor.ID, group); err != nil {
		return nil, err
	}
	if err := tx.DeleteGroupInvite(actor.ID, n.GroupID); err != nil {
		return nil, err
	}
	return newReply(n.ID, models.NotificationGroupInviteAccepted, actor, now, group.ID, group.Name), nil
}

func newReply(consumedID string, t models.NotificationType, actor Actor, now time.Time, groupID, groupName string) *models.Notification {
	return &models.Notification{
		ID:           replyID(consumedID, t),
		Type:         t,
		FromUserID:   actor.ID,
		FromUserName: actor.Name,
		Timestamp:    now.UnixMilli(),
		GroupID:      groupID,
		GroupName:    groupName,
	}
}

// afterCommit runs on a detached context: once the transaction committed the
// sequence runs to completion even if the caller went away.
func (r *NotificationResponder) afterCommit(userID, consumedID, recipientID string, reply *models.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), feedCleanupTimeout)
	defer cancel()

	r.markConsumed(ctx, userID, consumedID)
	r.bestEffort(ctx, "remove consumed notification from feed", func(ctx context.Context) error {
		return r.feed.Remove(ctx, userID, consumedID)
	})
	r.bestEffort(ctx, "push reply to feed", func(ctx context.Context) error {
		return r.feed.Put(ctx, recipientID, reply.ID, reply)
	})
}

// Dismiss removes an outcome notice from both sources. Pending requests and
// invites have to be answered instead.
func (r *NotificationResponder) Dismiss(ctx context.Context, userID string, n models.Notification) error {
	if n.Type.Actionable() {
		return ErrActionRequired
	}
	if err := r.store.DeleteNotification(ctx, userID, n.ID); err != nil {
		return err
	}
	r.markConsumed(ctx, userID, n.ID)
	r.bestEffort(ctx, "remove dismissed notification from feed", func(ctx context.Context) error {
		return r.feed.Remove(ctx, userID, n.ID)
	})
	return nil
}

func (r *NotificationResponder) markConsumed(ctx context.Context, userID, id string) {
	if err := r.consumed.MarkConsumed(ctx, userID, id); err != nil {
		r.log.WithError(err).WithField("notification", id).Warn("could not record consumed notification")
	}
}

func (r *NotificationResponder) bestEffort(ctx context.Context, step string, fn func(context.Context) error) {
	var err error
	for attempt := 1; attempt <= feedCleanupAttempts; attempt++ {
		if err = fn(ctx); err == nil {
			return
		}
		if ctx.Err() != nil {
			break
		}
	}
	r.log.WithError(err).WithField("step", step).Warn("best-effort feed step failed")
}
