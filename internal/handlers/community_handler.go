package handlers

import (
	"net/http"

	"github.com/anonto42/mintfeed/backend/internal/middleware"
	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// CommunityHandler handles community and membership procedures
type CommunityHandler struct {
	communities *services.CommunityService
}

func NewCommunityHandler(communities *services.CommunityService) *CommunityHandler {
	return &CommunityHandler{communities: communities}
}

func (h *CommunityHandler) RegisterCommunityRoutes(g *echo.Group) {
	authed := middleware.RequireAuth()
	g.GET("/community.list", h.List)
	g.GET("/community.get", h.Get)
	g.GET("/community.members", h.Members)
	g.POST("/community.create", h.Create, authed)
	g.POST("/community.join", h.Join, authed)
	g.POST("/community.leave", h.Leave, authed)
	g.POST("/community.approve", h.Approve, authed)
	g.POST("/community.reject", h.Reject, authed)
	g.POST("/community.setRole", h.SetRole, authed)
}

func (h *CommunityHandler) Create(c echo.Context) error {
	var req models.CreateCommunityRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	community, err := h.communities.Create(c.Request().Context(), middleware.ViewerID(c), req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, community)
}

func (h *CommunityHandler) Get(c echo.Context) error {
	var req models.CommunityIDRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	community, err := h.communities.Get(c.Request().Context(), middleware.ViewerID(c), req.CommunityID)
	if err != nil {
		return err
	}
	return ok(c, community)
}

func (h *CommunityHandler) List(c echo.Context) error {
	var req models.PageRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	page, err := h.communities.List(c.Request().Context(), middleware.ViewerID(c), req)
	if err != nil {
		return err
	}
	return ok(c, page)
}

// Members lists approved members, or pending requests for admins
func (h *CommunityHandler) Members(c echo.Context) error {
	var req models.CommunityMembersRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	page, err := h.communities.Members(c.Request().Context(), middleware.ViewerID(c), req)
	if err != nil {
		return err
	}
	return ok(c, page)
}

func (h *CommunityHandler) Join(c echo.Context) error {
	var req models.CommunityIDRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	member, err := h.communities.Join(c.Request().Context(), middleware.ViewerID(c), req.CommunityID)
	if err != nil {
		return err
	}
	return ok(c, member)
}

func (h *CommunityHandler) Leave(c echo.Context) error {
	var req models.CommunityIDRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.communities.Leave(c.Request().Context(), middleware.ViewerID(c), req.CommunityID); err != nil {
		return err
	}
	return done(c)
}

func (h *CommunityHandler) Approve(c echo.Context) error {
	var req models.CommunityMemberRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	member, err := h.communities.Approve(c.Request().Context(), middleware.ViewerID(c), req)
	if err != nil {
		return err
	}
	return ok(c, member)
}

func (h *CommunityHandler) Reject(c echo.Context) error {
	var req models.CommunityMemberRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.communities.Reject(c.Request().Context(), middleware.ViewerID(c), req); err != nil {
		return err
	}
	return done(c)
}

func (h *CommunityHandler) SetRole(c echo.Context) error {
	var req models.SetRoleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	member, err := h.communities.SetRole(c.Request().Context(), middleware.ViewerID(c), req)
	if err != nil {
		return err
	}
	return ok(c, member)
}
