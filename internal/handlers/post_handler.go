package handlers

import (
	"net/http"

	"github.com/anonto42/mintfeed/backend/internal/middleware"
	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// PostHandler handles post mutations and reactions
type PostHandler struct {
	posts     *services.PostService
	reactions *services.ReactionService
}

func NewPostHandler(posts *services.PostService, reactions *services.ReactionService) *PostHandler {
	return &PostHandler{posts: posts, reactions: reactions}
}

func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	authed := middleware.RequireAuth()
	g.POST("/post.create", h.CreatePost, authed)
	g.POST("/post.delete", h.DeletePost, authed)

	g.POST("/post.like", h.react(models.ReactionLike, true), authed)
	g.POST("/post.unlike", h.react(models.ReactionLike, false), authed)
	g.POST("/post.save", h.react(models.ReactionSave, true), authed)
	g.POST("/post.unsave", h.react(models.ReactionSave, false), authed)
	g.POST("/post.repost", h.react(models.ReactionRepost, true), authed)
	g.POST("/post.unrepost", h.react(models.ReactionRepost, false), authed)
}

func (h *PostHandler) CreatePost(c echo.Context) error {
	var req models.CreatePostRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	post, err := h.posts.Create(c.Request().Context(), middleware.ViewerID(c), req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, post)
}

func (h *PostHandler) DeletePost(c echo.Context) error {
	var req models.PostIDRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.posts.Delete(c.Request().Context(), middleware.ViewerID(c), req.PostID); err != nil {
		return err
	}
	return done(c)
}

// react builds the handler of one reaction toggle procedure.
func (h *PostHandler) react(kind models.ReactionKind, add bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.PostIDRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		ctx, viewer := c.Request().Context(), middleware.ViewerID(c)

		var err error
		if add {
			err = h.reactions.Add(ctx, kind, viewer, req.PostID)
		} else {
			err = h.reactions.Remove(ctx, kind, viewer, req.PostID)
		}
		if err != nil {
			return err
		}
		return done(c)
	}
}
