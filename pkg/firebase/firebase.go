package firebase

import (
	"context"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// App holds the Firebase auth client used for ID token login.
type App struct {
	auth         *auth.Client
	checkRevoked bool
}

// InitFirebase initializes the Firebase auth client. An empty credentials
// path disables Firebase login and returns a nil App.
func InitFirebase(ctx context.Context, credentialsPath string, checkRevoked bool) (*App, error) {
	if credentialsPath == "" {
		log.Println("FIREBASE_CREDENTIALS_PATH not set, Firebase login disabled.")
		return nil, nil
	}
	if _, err := os.Stat(credentialsPath); err != nil {
		return nil, fmt.Errorf("firebase credentials file: %w", err)
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	log.Println("Firebase auth client configured.")
	return &App{auth: client, checkRevoked: checkRevoked}, nil
}

// VerifyIDToken verifies a client ID token. With revocation checks on, a
// token whose session was revoked or whose user was disabled is rejected.
func (a *App) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if a.checkRevoked {
		return a.auth.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	}
	return a.auth.VerifyIDToken(ctx, idToken)
}
