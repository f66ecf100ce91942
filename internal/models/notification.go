package models

// NotificationType identifies what a notification asks of, or reports to,
// its recipient.
type NotificationType string

const (
	NotificationFriendRequest       NotificationType = "friend_request"
	NotificationFriendAccepted      NotificationType = "friend_accepted"
	NotificationFriendRejected      NotificationType = "friend_rejected"
	NotificationGroupInvite         NotificationType = "groupInvite"
	NotificationGroupInviteAccepted NotificationType = "groupInviteAccepted"
	NotificationGroupInviteRejected NotificationType = "groupInviteRejected"
)

// Actionable reports whether the recipient can accept or reject it.
func (t NotificationType) Actionable() bool {
	return t == NotificationFriendRequest || t == NotificationGroupInvite
}

// NotificationSource names the backend a notification was read from.
type NotificationSource string

const (
	SourceFeed  NotificationSource = "feed"
	SourceStore NotificationSource = "store"
)

// Notification is the canonical record shared by the Realtime Database feed
// and the Firestore notifications collection. ID and Source are assigned on
// read and never persisted as fields.
type Notification struct {
	ID           string             `json:"id" firestore:"-"`
	Source       NotificationSource `json:"source" firestore:"-"`
	Type         NotificationType   `json:"type" firestore:"type" validate:"required,oneof=friend_request friend_accepted friend_rejected groupInvite groupInviteAccepted groupInviteRejected"`
	FromUserID   string             `json:"fromUserId" firestore:"fromUserId" validate:"required"`
	FromUserName string             `json:"fromUserName" firestore:"fromUserName" validate:"required"`
	Timestamp    int64              `json:"timestamp" firestore:"timestamp" validate:"required,gt=0"`
	IsRead       bool               `json:"isRead" firestore:"isRead"`
	GroupID      string             `json:"groupId,omitempty" firestore:"groupId,omitempty" validate:"required_if=Type groupInvite"`
	GroupName    string             `json:"groupName,omitempty" firestore:"groupName,omitempty"`
}

// RespondRequest is the body of POST /notifications/:id/respond
type RespondRequest struct {
	Decision string `json:"decision" validate:"required,oneof=accept reject"`
}

// Fields returns the persisted fields of n, omitting ID and Source and the
// group fields when empty.
func (n *Notification) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		"type":         string(n.Type),
		"fromUserId":   n.FromUserID,
		"fromUserName": n.FromUserName,
		"timestamp":    n.Timestamp,
		"isRead":       n.IsRead,
	}
	if n.GroupID != "" {
		fields["groupId"] = n.GroupID
	}
	if n.GroupName != "" {
		fields["groupName"] = n.GroupName
	}
	return fields
}
