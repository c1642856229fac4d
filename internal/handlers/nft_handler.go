package handlers

import (
	"net/http"

	"github.com/anonto42/mintfeed/backend/internal/middleware"
	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// NFTHandler handles minting and collection procedures
type NFTHandler struct {
	nfts *services.NFTService
}

func NewNFTHandler(nfts *services.NFTService) *NFTHandler {
	return &NFTHandler{nfts: nfts}
}

func (h *NFTHandler) RegisterNFTRoutes(g *echo.Group) {
	authed := middleware.RequireAuth()
	g.GET("/nft.getByPost", h.GetByPost)
	g.GET("/nft.listCollections", h.ListCollections, authed)
	g.POST("/nft.createCollection", h.CreateCollection, authed)
	g.POST("/nft.mintPostAsNFT", h.MintPost, authed)
}

// MintPost mints a post once. A second mint of the same post is a conflict.
func (h *NFTHandler) MintPost(c echo.Context) error {
	var req models.MintRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.nfts.Mint(c.Request().Context(), middleware.ViewerID(c), req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, res)
}

func (h *NFTHandler) GetByPost(c echo.Context) error {
	var req models.PostIDRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	mint, err := h.nfts.GetByPost(c.Request().Context(), req.PostID)
	if err != nil {
		return err
	}
	return ok(c, mint)
}

func (h *NFTHandler) CreateCollection(c echo.Context) error {
	var req models.CreateCollectionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	collection, err := h.nfts.CreateCollection(c.Request().Context(), middleware.ViewerID(c), req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, collection)
}

func (h *NFTHandler) ListCollections(c echo.Context) error {
	collections, err := h.nfts.ListCollections(c.Request().Context(), middleware.ViewerID(c))
	if err != nil {
		return err
	}
	return ok(c, collections)
}
