package handlers

import (
	"github.com/anonto42/mintfeed/backend/internal/middleware"
	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// NotificationHandler handles notification procedures. Every procedure acts
// on the caller's own notifications.
type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	n := g.Group("", middleware.RequireAuth())
	n.GET("/notification.list", h.GetNotifications)
	n.GET("/notification.grouped", h.GetGroupedNotifications)
	n.GET("/notification.unreadCount", h.GetUnreadCount)
	n.POST("/notification.markRead", h.MarkAsRead)
	n.POST("/notification.markAllRead", h.MarkAllAsRead)
}

func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	var req models.PageRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	page, err := h.notifications.List(c.Request().Context(), middleware.ViewerID(c), req)
	if err != nil {
		return err
	}
	return ok(c, page)
}

// GetGroupedNotifications buckets notifications into today, yesterday, this week and older
func (h *NotificationHandler) GetGroupedNotifications(c echo.Context) error {
	grouped, err := h.notifications.Grouped(c.Request().Context(), middleware.ViewerID(c))
	if err != nil {
		return err
	}
	return ok(c, grouped)
}

func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	count, err := h.notifications.UnreadCount(c.Request().Context(), middleware.ViewerID(c))
	if err != nil {
		return err
	}
	return ok(c, echo.Map{"count": count})
}

func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	var req models.NotificationIDRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.notifications.MarkRead(c.Request().Context(), middleware.ViewerID(c), req.ID); err != nil {
		return err
	}
	return done(c)
}

func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	if err := h.notifications.MarkAllRead(c.Request().Context(), middleware.ViewerID(c)); err != nil {
		return err
	}
	return done(c)
}
