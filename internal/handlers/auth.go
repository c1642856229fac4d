package handlers

import (
	"net/http"

	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// AuthHandler handles authentication procedures
type AuthHandler struct {
	auth *services.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// RegisterAuthRoutes registers authentication procedures
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/auth.signup", h.Signup)
	g.POST("/auth.signin", h.SignIn)
	g.POST("/auth.firebaseLogin", h.FirebaseLogin)
}

// Signup handles local registration with username and password
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.auth.Signup(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, res)
}

// SignIn handles local authentication with username and password
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req models.SigninRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.auth.Signin(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return ok(c, res)
}

// FirebaseLogin verifies a Firebase ID token and issues a local JWT
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req models.FirebaseLoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.auth.FirebaseLogin(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return ok(c, res)
}
