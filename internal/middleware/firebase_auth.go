package middleware

import (
	"context"
	"errors"

	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// FirebaseResolver maps a Firebase ID token to a local user, creating the
// user on first sight.
type FirebaseResolver interface {
	ResolveFirebase(ctx context.Context, idToken string) (*models.User, error)
}

var errNoFirebase = errors.New("firebase is not configured")

// resolveFirebase accepts a Firebase ID token in place of a local session
// token, so clients can call procedures right after signing in with
// Firebase.
func resolveFirebase(c echo.Context, firebase FirebaseResolver, idToken string) (*Principal, error) {
	if firebase == nil {
		return nil, errNoFirebase
	}
	user, err := firebase.ResolveFirebase(c.Request().Context(), idToken)
	if err != nil {
		return nil, err
	}
	return &Principal{UserID: user.ID, Address: user.Address, Username: user.Username}, nil
}
