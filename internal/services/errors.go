package services

import "github.com/pkg/errors"

var (
	// ErrGroupNotFound is reported when an invite or response references a
	// group document that no longer exists.
	ErrGroupNotFound   = errors.New("group not found")
	ErrNotActionable   = errors.New("notification cannot be accepted or rejected")
	ErrActionRequired  = errors.New("notification must be accepted or rejected")
	ErrInvalidDecision = errors.New("decision must be accept or reject")
	ErrSelfRequest     = errors.New("cannot send a request to yourself")
	ErrAlreadyFriends  = errors.New("users are already friends")
	ErrNotGroupMember  = errors.New("only group members can invite")
	ErrAlreadyMember   = errors.New("user is already a group member")
	// ErrAnonymousActor is returned when the caller has no display name to
	// put in fromUserName.
	ErrAnonymousActor  = errors.New("a display name is required")
)
