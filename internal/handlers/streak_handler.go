package handlers

import (
	"github.com/anonto42/mintfeed/backend/internal/middleware"
	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/services"
	"github.com/labstack/echo/v4"
)

type StreakHandler struct {
	streaks *services.StreakService
}

func NewStreakHandler(streaks *services.StreakService) *StreakHandler {
	return &StreakHandler{streaks: streaks}
}

func (h *StreakHandler) RegisterStreakRoutes(g *echo.Group) {
	g.POST("/streak.checkIn", h.CheckIn, middleware.RequireAuth())
	g.GET("/streak.get", h.Get, middleware.RequireAuth())
	g.GET("/streak.leaderboard", h.Leaderboard)
}

func (h *StreakHandler) CheckIn(c echo.Context) error {
	res, err := h.streaks.CheckIn(c.Request().Context(), middleware.ViewerID(c))
	if err != nil {
		return err
	}
	return ok(c, res)
}

func (h *StreakHandler) Get(c echo.Context) error {
	streak, err := h.streaks.Get(c.Request().Context(), middleware.ViewerID(c))
	if err != nil {
		return err
	}
	return ok(c, streak)
}

func (h *StreakHandler) Leaderboard(c echo.Context) error {
	var req models.LeaderboardRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	entries, err := h.streaks.Leaderboard(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return ok(c, entries)
}
