package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/mintfeed/backend/internal/apperr"
	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/repositories"
	"github.com/anonto42/mintfeed/backend/internal/testutil"
)

type fakeVerifier map[string]*auth.Token

func (f fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if tok, ok := f[idToken]; ok {
		return tok, nil
	}
	return nil, errors.New("token rejected")
}

func TestSignupSigninAndTokens(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewAuthService(repositories.NewPostgresUserRepository(db), nil, "secret", time.Hour)

	res, err := svc.Signup(ctxb, models.SignupRequest{Username: "alice", Password: "correct horse"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Token == "" || res.User.ID == 0 || !strings.HasPrefix(res.User.Address, "local:") {
		t.Fatalf("signup = %+v", res)
	}

	_, err = svc.Signup(ctxb, models.SignupRequest{Username: "Alice", Password: "another one"})
	wantKind(t, err, apperr.KindConflict)

	in, err := svc.Signin(ctxb, models.SigninRequest{Username: "alice", Password: "correct horse"})
	if err != nil {
		t.Fatal(err)
	}
	claims, err := svc.ParseToken(in.Token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != res.User.ID || claims.Username != "alice" {
		t.Errorf("claims = %+v", claims)
	}

	_, err = svc.Signin(ctxb, models.SigninRequest{Username: "alice", Password: "wrong password"})
	wantKind(t, err, apperr.KindUnauthenticated)
	_, err = svc.Signin(ctxb, models.SigninRequest{Username: "nobody", Password: "whatever"})
	wantKind(t, err, apperr.KindUnauthenticated)
}

func TestParseTokenRejectsForeignAndExpired(t *testing.T) {
	db := testutil.NewDB(t)
	users := repositories.NewPostgresUserRepository(db)
	u := testutil.CreateUser(t, db, "alice")

	other := NewAuthService(users, nil, "other-secret", time.Hour)
	foreign, err := other.IssueToken(u)
	if err != nil {
		t.Fatal(err)
	}
	svc := NewAuthService(users, nil, "secret", time.Hour)
	_, err = svc.ParseToken(foreign)
	wantKind(t, err, apperr.KindUnauthenticated)

	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := svc.IssueToken(u)
	if err != nil {
		t.Fatal(err)
	}
	svc.now = time.Now
	_, err = svc.ParseToken(expired)
	wantKind(t, err, apperr.KindUnauthenticated)
}

func TestFirebaseLoginCreatesUserOnce(t *testing.T) {
	db := testutil.NewDB(t)
	verifier := fakeVerifier{
		"good": {UID: "fb-123", Claims: map[string]interface{}{"email": "Jane.Doe@example.com", "name": "Jane"}},
	}
	svc := NewAuthService(repositories.NewPostgresUserRepository(db), verifier, "secret", time.Hour)

	first, err := svc.FirebaseLogin(ctxb, models.FirebaseLoginRequest{IDToken: "good"})
	if err != nil {
		t.Fatal(err)
	}
	if first.User.Address != "fb-123" || first.User.DisplayName != "Jane" || !strings.HasPrefix(first.User.Username, "janedoe") {
		t.Errorf("user = %+v", first.User)
	}

	second, err := svc.FirebaseLogin(ctxb, models.FirebaseLoginRequest{IDToken: "good"})
	if err != nil {
		t.Fatal(err)
	}
	if second.User.ID != first.User.ID {
		t.Errorf("second login created user %d, want %d", second.User.ID, first.User.ID)
	}

	_, err = svc.FirebaseLogin(ctxb, models.FirebaseLoginRequest{IDToken: "bad"})
	wantKind(t, err, apperr.KindUnauthenticated)

	disabled := NewAuthService(repositories.NewPostgresUserRepository(db), nil, "secret", time.Hour)
	_, err = disabled.ResolveFirebase(ctxb, "good")
	wantKind(t, err, apperr.KindUnauthenticated)
}
