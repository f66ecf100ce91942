package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/recordwithme/backend/internal/models"
	"github.com/recordwithme/backend/internal/repositories"
	"github.com/recordwithme/backend/pkg/logger"
	"github.com/sirupsen/logrus"
)

// SocialService creates the friend requests, groups and group invites that
// notifications are about.
type SocialService struct {
	feed  repositories.NotificationFeed
	tx    repositories.Transactor
	now   func() time.Time
	newID func() string
	log   *logrus.Entry
}

func NewSocialService(feed repositories.NotificationFeed, tx repositories.Transactor) *SocialService {
	return &SocialService{
		feed:  feed,
		tx:    tx,
		now:   time.Now,
		newID: uuid.NewString,
		log:   logger.Component("social"),
	}
}

// SendFriendRequest records a pending request under the recipient and pushes
// a friend_request notification to the recipient's feed.
func (s *SocialService) SendFriendRequest(ctx context.Context, actor Actor, toUserID string) (*models.Notification, error) {
	if toUserID == actor.ID {
		return nil, ErrSelfRequest
	}
	if actor.Name == "" {
		return nil, ErrAnonymousActor
	}

	now := s.now()
	err := s.tx.RunInTx(ctx, func(tx repositories.StoreTx) error {
		friends, err := tx.IsFriend(actor.ID, toUserID)
		if err != nil {
			return err
		}
		if friends {
			return ErrAlreadyFriends
		}
		return tx.SetFriendRequest(toUserID, &models.FriendRequest{
			FromUserID:   actor.ID,
			FromUserName: actor.Name,
			RequestedAt:  now,
		})
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyFriends) {
			return nil, ErrAlreadyFriends
		}
		return nil, errors.Wrap(err, "record friend request")
	}

	n := &models.Notification{
		ID:           s.newID(),
		Type:         models.NotificationFriendRequest,
		FromUserID:   actor.ID,
		FromUserName: actor.Name,
		Timestamp:    now.UnixMilli(),
	}
	if err := s.feed.Put(ctx, toUserID, n.ID, n); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"from": actor.ID, "to": toUserID}).Info("friend request sent")
	return n, nil
}

// CreateGroup creates a group whose only member is actor.
func (s *SocialService) CreateGroup(ctx context.Context, actor Actor, name string) (*models.Group, error) {
	g := &models.Group{
		ID:        s.newID(),
		Name:      name,
		Members:   []string{actor.ID},
		CreatedBy: actor.ID,
		CreatedAt: s.now(),
	}
	err := s.tx.RunInTx(ctx, func(tx repositories.StoreTx) error {
		if err := tx.SetGroup(g); err != nil {
			return err
		}
		return tx.SetUserGroup(actor.ID, g)
	})
	if err != nil {
		return nil, errors.Wrap(err, "create group")
	}
	return g, nil
}

// SendGroupInvite invites toUserID into groupID. actor must already be a
// member and the invitee must not be.
func (s *SocialService) SendGroupInvite(ctx context.Context, actor Actor, groupID, toUserID string) (*models.Notification, error) {
	if toUserID == actor.ID {
		return nil, ErrSelfRequest
	}
	if actor.Name == "" {
		return nil, ErrAnonymousActor
	}

	now := s.now()
	var group *models.Group
	err := s.tx.RunInTx(ctx, func(tx repositories.StoreTx) error {
		var err error
		group, err = tx.GetGroup(groupID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrGroupNotFound
			}
			return err
		}
		if !group.HasMember(actor.ID) {
			return ErrNotGroupMember
		}
		if group.HasMember(toUserID) {
			return ErrAlreadyMember
		}
		return tx.SetGroupInvite(toUserID, &models.GroupInvite{
			GroupID:      groupID,
			GroupName:    group.Name,
			FromUserID:   actor.ID,
			FromUserName: actor.Name,
			InvitedAt:    now,
		})
	})
	if err != nil {
		for _, known := range []error{ErrGroupNotFound, ErrNotGroupMember, ErrAlreadyMember} {
			if errors.Is(err, known) {
				return nil, known
			}
		}
		return nil, errors.Wrap(err, "record group invite")
	}

	n := &models.Notification{
		ID:           s.newID(),
		Type:         models.NotificationGroupInvite,
		FromUserID:   actor.ID,
		FromUserName: actor.Name,
		Timestamp:    now.UnixMilli(),
		GroupID:      group.ID,
		GroupName:    group.Name,
	}
	if err := s.feed.Put(ctx, toUserID, n.ID, n); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"from": actor.ID, "to": toUserID, "group": groupID}).Info("group invite sent")
	return n, nil
}
