package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/recordwithme/backend/internal/models"
	"github.com/recordwithme/backend/internal/repositories"
	"github.com/recordwithme/backend/internal/services"
)

// GroupManager creates groups and invites members.
type GroupManager interface {
	CreateGroup(ctx context.Context, actor services.Actor, name string) (*models.Group, error)
	SendGroupInvite(ctx context.Context, actor services.Actor, groupID, toUserID string) (*models.Notification, error)
}

// GroupHandler handles group-related HTTP requests
type GroupHandler struct {
	groupRepository repositories.GroupRepository
	userRepository  repositories.UserRepository
	social          GroupManager
}

// NewGroupHandler creates a new GroupHandler
func NewGroupHandler(groupRepo repositories.GroupRepository, userRepo repositories.UserRepository, social GroupManager) *GroupHandler {
	return &GroupHandler{
		groupRepository: groupRepo,
		userRepository:  userRepo,
		social:          social,
	}
}

// RegisterGroupRoutes registers group routes
func (h *GroupHandler) RegisterGroupRoutes(g *echo.Group) {
	g.GET("/groups", h.GetGroups)
	g.POST("/groups", h.CreateGroup)
	g.POST("/groups/:id/invites", h.InviteToGroup)
}

// GetGroups lists the groups the caller belongs to
func (h *GroupHandler) GetGroups(c echo.Context) error {
	actor, err := getActorFromContext(c)
	if err != nil {
		return err
	}

	groups, err := h.groupRepository.ListGroups(c.Request().Context(), actor.ID)
	if err != nil {
		return toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"groups": groups})
}

// CreateGroup creates a group with the caller as its only member
func (h *GroupHandler) CreateGroup(c echo.Context) error {
	actor, err := getActorFromContext(c)
	if err != nil {
		return err
	}

	var req models.CreateGroupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	group, err := h.social.CreateGroup(c.Request().Context(), actor, req.Name)
	if err != nil {
		return toHTTPError(c, err)
	}
	return c.JSON(http.StatusCreated, group)
}

// InviteToGroup sends a group invite to another registered user
func (h *GroupHandler) InviteToGroup(c echo.Context) error {
	actor, err := getActorFromContext(c)
	if err != nil {
		return err
	}

	var req models.CreateGroupInviteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := requireUser(h.userRepository, req.UserID); err != nil {
		return toHTTPError(c, err)
	}

	n, err := h.social.SendGroupInvite(c.Request().Context(), actor, c.Param("id"), req.UserID)
	if err != nil {
		return toHTTPError(c, err)
	}
	return c.JSON(http.StatusCreated, n)
}
