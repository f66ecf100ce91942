package models

import "time"

// Group is stored at groups/{groupId}; a denormalized copy lives under each
// member's users/{id}/groups/{groupId}.
type Group struct {
	ID        string    `json:"id" firestore:"-"`
	Name      string    `json:"name" firestore:"name"`
	Members   []string  `json:"members" firestore:"members"`
	CreatedBy string    `json:"createdBy" firestore:"createdBy"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
}

// HasMember reports whether userID is in the member set.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// AddMember appends userID unless it is already a member. It returns false
// when nothing changed.
func (g *Group) AddMember(userID string) bool {
	if g.HasMember(userID) {
		return false
	}
	g.Members = append(g.Members, userID)
	return true
}

// GroupInvite is stored under users/{inviteeId}/groupInvites/{groupId}.
type GroupInvite struct {
	GroupID      string    `json:"groupId" firestore:"-"`
	GroupName    string    `json:"groupName" firestore:"groupName"`
	FromUserID   string    `json:"fromUserId" firestore:"fromUserId"`
	FromUserName string    `json:"fromUserName" firestore:"fromUserName"`
	InvitedAt    time.Time `json:"invitedAt" firestore:"invitedAt"`
}

type CreateGroupRequest struct {
	Name string `json:"name" validate:"required,min=1,max=60"`
}

type CreateGroupInviteRequest struct {
	UserID string `json:"userId" validate:"required"`
}
