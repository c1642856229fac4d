package handlers

import (
	"github.com/anonto42/mintfeed/backend/internal/middleware"
	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FeedHandler serves the read-only post procedures
type FeedHandler struct {
	feeds *services.FeedService
}

func NewFeedHandler(feeds *services.FeedService) *FeedHandler {
	return &FeedHandler{feeds: feeds}
}

func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/post.feed", h.Feed)
	g.GET("/post.getById", h.GetByID)
	g.GET("/post.getReplies", h.GetReplies)
	g.GET("/post.bookmarks", h.Bookmarks, middleware.RequireAuth())
}

func (h *FeedHandler) Feed(c echo.Context) error {
	var req models.FeedRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	page, err := h.feeds.Feed(c.Request().Context(), middleware.ViewerID(c), req)
	if err != nil {
		return err
	}
	return ok(c, page)
}

func (h *FeedHandler) GetByID(c echo.Context) error {
	var req models.PostIDRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	post, err := h.feeds.GetByID(c.Request().Context(), middleware.ViewerID(c), req.PostID)
	if err != nil {
		return err
	}
	return ok(c, post)
}

func (h *FeedHandler) GetReplies(c echo.Context) error {
	var req models.RepliesRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	page, err := h.feeds.Replies(c.Request().Context(), middleware.ViewerID(c), req)
	if err != nil {
		return err
	}
	return ok(c, page)
}

func (h *FeedHandler) Bookmarks(c echo.Context) error {
	var req models.PageRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	page, err := h.feeds.Bookmarks(c.Request().Context(), middleware.ViewerID(c), req)
	if err != nil {
		return err
	}
	return ok(c, page)
}
