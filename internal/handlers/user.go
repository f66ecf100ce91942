package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/recordwithme/backend/internal/models"
	"github.com/recordwithme/backend/internal/repositories"
	"gorm.io/gorm"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 50
)

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	userRepository repositories.UserRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository) *UserHandler {
	return &UserHandler{userRepository: userRepo}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.GET("/users/search", h.SearchUsers)
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	actor, err := getActorFromContext(c)
	if err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByFirebaseUID(actor.ID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		}
		return toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// SearchUsers searches for users by name or email
func (h *UserHandler) SearchUsers(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Search query 'q' is required")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > maxSearchLimit {
		limit = defaultSearchLimit
	}

	users, err := h.userRepository.SearchUsers(query, limit)
	if err != nil {
		return toHTTPError(c, err)
	}

	results := make([]models.UserCompact, 0, len(users))
	for i := range users {
		results = append(results, users[i].ToCompact())
	}
	return c.JSON(http.StatusOK, echo.Map{"users": results})
}
