package handlers

import (
	"github.com/anonto42/mintfeed/backend/internal/middleware"
	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow procedures
type FollowHandler struct {
	users *services.UserService
}

func NewFollowHandler(users *services.UserService) *FollowHandler {
	return &FollowHandler{users: users}
}

func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/user.follow", h.FollowUser, middleware.RequireAuth())
	g.POST("/user.unfollow", h.UnfollowUser, middleware.RequireAuth())
	g.GET("/user.followers", h.GetFollowers)
	g.GET("/user.following", h.GetFollowing)
}

func (h *FollowHandler) FollowUser(c echo.Context) error {
	var req models.UserTargetRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.users.Follow(c.Request().Context(), middleware.ViewerID(c), req.UserID); err != nil {
		return err
	}
	return done(c)
}

func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	var req models.UserTargetRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.users.Unfollow(c.Request().Context(), middleware.ViewerID(c), req.UserID); err != nil {
		return err
	}
	return done(c)
}

func (h *FollowHandler) GetFollowers(c echo.Context) error {
	var req models.UserListRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	page, err := h.users.Followers(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return ok(c, page)
}

func (h *FollowHandler) GetFollowing(c echo.Context) error {
	var req models.UserListRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	page, err := h.users.Following(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return ok(c, page)
}
