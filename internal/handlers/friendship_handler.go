package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/recordwithme/backend/internal/models"
	"github.com/recordwithme/backend/internal/repositories"
	"github.com/recordwithme/backend/internal/services"
	"gorm.io/gorm"
)

// FriendRequester sends friend requests.
type FriendRequester interface {
	SendFriendRequest(ctx context.Context, actor services.Actor, toUserID string) (*models.Notification, error)
}

// FriendshipHandler handles friend-related HTTP requests
type FriendshipHandler struct {
	friendshipRepository repositories.FriendshipRepository
	userRepository       repositories.UserRepository
	social               FriendRequester
}

// NewFriendshipHandler creates a new FriendshipHandler
func NewFriendshipHandler(friendshipRepo repositories.FriendshipRepository, userRepo repositories.UserRepository, social FriendRequester) *FriendshipHandler {
	return &FriendshipHandler{
		friendshipRepository: friendshipRepo,
		userRepository:       userRepo,
		social:               social,
	}
}

// RegisterFriendshipRoutes registers friendship routes
func (h *FriendshipHandler) RegisterFriendshipRoutes(g *echo.Group) {
	g.GET("/friends", h.GetFriends)
	g.GET("/friends/requests", h.GetFriendRequests)
	g.POST("/friends/requests", h.SendFriendRequest)
}

// GetFriends lists the caller's friends, most recent first
func (h *FriendshipHandler) GetFriends(c echo.Context) error {
	actor, err := getActorFromContext(c)
	if err != nil {
		return err
	}

	friends, err := h.friendshipRepository.ListFriends(c.Request().Context(), actor.ID)
	if err != nil {
		return toHTTPError(c, err)
	}
	if friends == nil {
		friends = []models.Friend{}
	}
	return c.JSON(http.StatusOK, echo.Map{"friends": friends})
}

// GetFriendRequests lists pending requests addressed to the caller
func (h *FriendshipHandler) GetFriendRequests(c echo.Context) error {
	actor, err := getActorFromContext(c)
	if err != nil {
		return err
	}

	requests, err := h.friendshipRepository.ListFriendRequests(c.Request().Context(), actor.ID)
	if err != nil {
		return toHTTPError(c, err)
	}
	if requests == nil {
		requests = []models.FriendRequest{}
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": requests})
}

// SendFriendRequest sends a friend request to another registered user
func (h *FriendshipHandler) SendFriendRequest(c echo.Context) error {
	actor, err := getActorFromContext(c)
	if err != nil {
		return err
	}

	var req models.CreateFriendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := requireUser(h.userRepository, req.UserID); err != nil {
		return toHTTPError(c, err)
	}

	n, err := h.social.SendFriendRequest(c.Request().Context(), actor, req.UserID)
	if err != nil {
		return toHTTPError(c, err)
	}
	return c.JSON(http.StatusCreated, n)
}

// requireUser checks that firebaseUID belongs to a registered user.
func requireUser(users repositories.UserRepository, firebaseUID string) error {
	if _, err := users.GetUserByFirebaseUID(firebaseUID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return err
	}
	return nil
}
