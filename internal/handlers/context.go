package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/recordwithme/backend/internal/models"
	"github.com/recordwithme/backend/internal/services"
	"github.com/recordwithme/backend/pkg/logger"
)

var log = logger.Component("handlers")

// getActorFromContext resolves the caller from the claims set by the JWT middleware.
func getActorFromContext(c echo.Context) (services.Actor, error) {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok || claims.FirebaseUID == "" {
		return services.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	return services.Actor{ID: claims.FirebaseUID, Name: claims.Name}, nil
}

// toHTTPError maps service errors to responses. Anything unrecognised is
// logged and reported with a generic message.
func toHTTPError(c echo.Context, err error) error {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he
	case errors.Is(err, services.ErrGroupNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Group not found")
	case errors.Is(err, services.ErrNotActionable),
		errors.Is(err, services.ErrActionRequired),
		errors.Is(err, services.ErrInvalidDecision),
		errors.Is(err, services.ErrSelfRequest),
		errors.Is(err, services.ErrAnonymousActor):
		return echo.NewHTTPError(http.StatusBadRequest, errors.Cause(err).Error())
	case errors.Is(err, services.ErrNotGroupMember):
		return echo.NewHTTPError(http.StatusForbidden, errors.Cause(err).Error())
	case errors.Is(err, services.ErrAlreadyFriends),
		errors.Is(err, services.ErrAlreadyMember):
		return echo.NewHTTPError(http.StatusConflict, errors.Cause(err).Error())
	}

	log.WithError(err).WithField("path", c.Path()).Error("request failed")
	return echo.NewHTTPError(http.StatusInternalServerError, "Something went wrong, please try again")
}
