package handlers

import (
	"github.com/anonto42/mintfeed/backend/internal/middleware"
	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// UserHandler handles profile procedures
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// RegisterProfileRoutes registers user profile procedures
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/user.me", h.GetProfile, middleware.RequireAuth())
	g.POST("/user.update", h.UpdateProfile, middleware.RequireAuth())
	g.GET("/user.get", h.GetUser)
	g.GET("/user.search", h.SearchUsers)
}

func (h *UserHandler) GetProfile(c echo.Context) error {
	profile, err := h.users.Me(c.Request().Context(), middleware.ViewerID(c))
	if err != nil {
		return err
	}
	return ok(c, profile)
}

// GetUser looks a profile up by userId or username
func (h *UserHandler) GetUser(c echo.Context) error {
	var req models.GetUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	profile, err := h.users.Get(c.Request().Context(), middleware.ViewerID(c), req)
	if err != nil {
		return err
	}
	return ok(c, profile)
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req models.UpdateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	profile, err := h.users.Update(c.Request().Context(), middleware.ViewerID(c), req)
	if err != nil {
		return err
	}
	return ok(c, profile)
}

func (h *UserHandler) SearchUsers(c echo.Context) error {
	var req models.SearchUsersRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	users, err := h.users.Search(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return ok(c, users)
}
