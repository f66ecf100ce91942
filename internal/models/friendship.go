package models

import "time"

// Friend is one side of a friendship, stored under users/{id}/friends/{friendId}.
// Name is the display name of the other party.
type Friend struct {
	UserID  string    `json:"userId" firestore:"-"`
	Name    string    `json:"name" firestore:"name"`
	AddedAt time.Time `json:"addedAt" firestore:"addedAt"`
}

// FriendRequest is stored under users/{recipientId}/friendRequests/{requesterId}.
type FriendRequest struct {
	FromUserID   string    `json:"fromUserId" firestore:"-"`
	FromUserName string    `json:"fromUserName" firestore:"fromUserName"`
	RequestedAt  time.Time `json:"requestedAt" firestore:"requestedAt"`
}

// CreateFriendRequest defines the request body for sending a friend request
type CreateFriendRequest struct {
	UserID string `json:"userId" validate:"required"`
}
