package handlers

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/recordwithme/backend/internal/models"
	"github.com/recordwithme/backend/internal/repositories"
)

const (
	maxPhotoBytes = 5 << 20
	dayLayout     = "2006-01-02"
)

// PhotoHandler handles group photo uploads and the month calendar
type PhotoHandler struct {
	photoRepository repositories.PhotoRepository
	groupRepository repositories.GroupRepository
	now             func() time.Time
}

// NewPhotoHandler creates a new PhotoHandler
func NewPhotoHandler(photoRepo repositories.PhotoRepository, groupRepo repositories.GroupRepository) *PhotoHandler {
	return &PhotoHandler{
		photoRepository: photoRepo,
		groupRepository: groupRepo,
		now:             time.Now,
	}
}

// RegisterPhotoRoutes registers photo routes
func (h *PhotoHandler) RegisterPhotoRoutes(g *echo.Group) {
	g.POST("/groups/:id/photos", h.UploadPhoto)
	g.GET("/groups/:id/calendar", h.GetCalendar)
}

// requireMember loads the group and checks the caller belongs to it.
func (h *PhotoHandler) requireMember(c echo.Context, groupID, userID string) error {
	group, err := h.groupRepository.GetGroup(c.Request().Context(), groupID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Group not found")
		}
		return toHTTPError(c, err)
	}
	if !group.HasMember(userID) {
		return echo.NewHTTPError(http.StatusForbidden, "You are not a member of this group")
	}
	return nil
}

// UploadPhoto stores a base64 encoded photo for the group
func (h *PhotoHandler) UploadPhoto(c echo.Context) error {
	actor, err := getActorFromContext(c)
	if err != nil {
		return err
	}

	var req models.CreatePhotoRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if base64.StdEncoding.DecodedLen(len(req.ImageData)) > maxPhotoBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Photo exceeds 5MB")
	}

	groupID := c.Param("id")
	if err := h.requireMember(c, groupID, actor.ID); err != nil {
		return err
	}

	photo := &models.Photo{
		GroupID:   groupID,
		UserID:    actor.ID,
		Caption:   req.Caption,
		ImageData: req.ImageData,
		MimeType:  req.MimeType,
		TakenAt:   req.TakenAt.UTC(),
		CreatedAt: h.now().UTC(),
	}
	if err := h.photoRepository.CreatePhoto(c.Request().Context(), photo); err != nil {
		return toHTTPError(c, err)
	}
	return c.JSON(http.StatusCreated, photo)
}

// GetCalendar returns one month of group photos keyed by day.
// year and month default to the current UTC month.
func (h *PhotoHandler) GetCalendar(c echo.Context) error {
	actor, err := getActorFromContext(c)
	if err != nil {
		return err
	}

	now := h.now().UTC()
	year, month := now.Year(), int(now.Month())
	if v := c.QueryParam("year"); v != "" {
		if year, err = strconv.Atoi(v); err != nil || year < 1970 || year > 9999 {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid year")
		}
	}
	if v := c.QueryParam("month"); v != "" {
		if month, err = strconv.Atoi(v); err != nil || month < 1 || month > 12 {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid month")
		}
	}

	groupID := c.Param("id")
	if err := h.requireMember(c, groupID, actor.ID); err != nil {
		return err
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	photos, err := h.photoRepository.GetPhotosByGroupBetween(c.Request().Context(), groupID, from, from.AddDate(0, 1, 0))
	if err != nil {
		return toHTTPError(c, err)
	}

	days := make(map[string][]models.Photo)
	for _, p := range photos {
		day := p.TakenAt.UTC().Format(dayLayout)
		days[day] = append(days[day], p)
	}
	return c.JSON(http.StatusOK, echo.Map{"year": year, "month": month, "days": days})
}
