package handlers

import (
	"net/http"

	"github.com/anonto42/mintfeed/backend/internal/middleware"
	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// MessageHandler handles conversation procedures
type MessageHandler struct {
	messages *services.MessageService
}

func NewMessageHandler(messages *services.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

func (h *MessageHandler) RegisterMessageRoutes(g *echo.Group) {
	m := g.Group("", middleware.RequireAuth())
	m.POST("/message.startConversation", h.StartConversation)
	m.GET("/message.conversations", h.Conversations)
	m.POST("/message.send", h.Send)
	m.GET("/message.list", h.List)
	m.POST("/message.markRead", h.MarkRead)
	m.GET("/message.unreadCount", h.UnreadCount)
}

func (h *MessageHandler) StartConversation(c echo.Context) error {
	var req models.StartConversationRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	conv, err := h.messages.Start(c.Request().Context(), middleware.ViewerID(c), req)
	if err != nil {
		return err
	}
	return ok(c, conv)
}

func (h *MessageHandler) Conversations(c echo.Context) error {
	var req models.PageRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	page, err := h.messages.Conversations(c.Request().Context(), middleware.ViewerID(c), req)
	if err != nil {
		return err
	}
	return ok(c, page)
}

func (h *MessageHandler) Send(c echo.Context) error {
	var req models.SendMessageRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	msg, err := h.messages.Send(c.Request().Context(), middleware.ViewerID(c), req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, msg)
}

func (h *MessageHandler) List(c echo.Context) error {
	var req models.ListMessagesRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	page, err := h.messages.List(c.Request().Context(), middleware.ViewerID(c), req)
	if err != nil {
		return err
	}
	return ok(c, page)
}

func (h *MessageHandler) MarkRead(c echo.Context) error {
	var req models.ConversationIDRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	n, err := h.messages.MarkRead(c.Request().Context(), middleware.ViewerID(c), req.ConversationID)
	if err != nil {
		return err
	}
	return ok(c, echo.Map{"marked": n})
}

func (h *MessageHandler) UnreadCount(c echo.Context) error {
	count, err := h.messages.UnreadCount(c.Request().Context(), middleware.ViewerID(c))
	if err != nil {
		return err
	}
	return ok(c, echo.Map{"count": count})
}
