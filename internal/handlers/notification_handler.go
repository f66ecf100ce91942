package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/recordwithme/backend/internal/models"
	"github.com/recordwithme/backend/internal/services"
)

const wsWriteWait = 10 * time.Second

// NotificationLister produces the merged notification list.
type NotificationLister interface {
	Snapshot(ctx context.Context, userID string) ([]models.Notification, error)
	Subscribe(ctx context.Context, userID string) (*services.NotificationSubscription, error)
}

// NotificationResponder answers and dismisses notifications.
type NotificationResponder interface {
	Respond(ctx context.Context, actor services.Actor, n models.Notification, decision services.Decision) error
	Dismiss(ctx context.Context, userID string, n models.Notification) error
}

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	lister    NotificationLister
	responder NotificationResponder
	upgrader  websocket.Upgrader
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(lister NotificationLister, responder NotificationResponder) *NotificationHandler {
	return &NotificationHandler{
		lister:    lister,
		responder: responder,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Mobile clients send no Origin header.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/ws", h.StreamNotifications)
	g.POST("/notifications/:id/respond", h.Respond)
	g.DELETE("/notifications/:id", h.Dismiss)
}

func notificationsPayload(list []models.Notification) echo.Map {
	if list == nil {
		list = []models.Notification{}
	}
	return echo.Map{"notifications": list}
}

// GetNotifications returns the merged list, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	actor, err := getActorFromContext(c)
	if err != nil {
		return err
	}

	list, err := h.lister.Snapshot(c.Request().Context(), actor.ID)
	if err != nil {
		return toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, notificationsPayload(list))
}

// StreamNotifications pushes every merged list over a websocket until the
// client goes away or the feed is lost.
func (h *NotificationHandler) StreamNotifications(c echo.Context) error {
	actor, err := getActorFromContext(c)
	if err != nil {
		return err
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already replied to the client.
		log.WithError(err).Debug("websocket upgrade failed")
		return nil
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	sub, err := h.lister.Subscribe(ctx, actor.ID)
	if err != nil {
		log.WithError(err).WithField("user", actor.ID).Error("subscribe failed")
		closeWS(ws, websocket.CloseInternalServerErr, "subscription failed")
		return nil
	}
	defer sub.Close()

	updates, stop := sub.Listen()
	defer stop()

	// Incoming messages are ignored; the read loop only notices disconnects.
	go func() {
		defer cancel()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case list, ok := <-updates:
			if !ok {
				if sub.Err() != nil {
					closeWS(ws, websocket.CloseGoingAway, "notification feed lost")
				}
				return nil
			}
			_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := ws.WriteJSON(notificationsPayload(list)); err != nil {
				return nil
			}
		}
	}
}

func closeWS(ws *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteWait))
}

// find looks the notification up in the caller's current merged list.
func (h *NotificationHandler) find(ctx context.Context, userID, id string) (models.Notification, error) {
	list, err := h.lister.Snapshot(ctx, userID)
	if err != nil {
		return models.Notification{}, err
	}
	for _, n := range list {
		if n.ID == id {
			return n, nil
		}
	}
	return models.Notification{}, echo.NewHTTPError(http.StatusNotFound, "Notification not found")
}

// Respond accepts or rejects a friend request or group invite
func (h *NotificationHandler) Respond(c echo.Context) error {
	actor, err := getActorFromContext(c)
	if err != nil {
		return err
	}

	var req models.RespondRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	n, err := h.find(ctx, actor.ID, c.Param("id"))
	if err != nil {
		return toHTTPError(c, err)
	}

	decision := services.Decision(req.Decision)
	if err := h.responder.Respond(ctx, actor, n, decision); err != nil {
		return toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": n.ID, "decision": decision})
}

// Dismiss removes an outcome notice
func (h *NotificationHandler) Dismiss(c echo.Context) error {
	actor, err := getActorFromContext(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	n, err := h.find(ctx, actor.ID, c.Param("id"))
	if err != nil {
		return toHTTPError(c, err)
	}

	if err := h.responder.Dismiss(ctx, actor.ID, n); err != nil {
		return toHTTPError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
