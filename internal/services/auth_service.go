package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/mintfeed/backend/internal/apperr"
	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/repositories"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// IDTokenVerifier verifies Firebase ID tokens. *auth.Client satisfies it.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthService issues and verifies session tokens and upserts users on
// first authentication.
type AuthService struct {
	users    repositories.UserRepository
	firebase IDTokenVerifier
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

func NewAuthService(users repositories.UserRepository, firebase IDTokenVerifier, secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		users:    users,
		firebase: firebase,
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	if _, err := s.users.GetUserByUsername(ctx, req.Username); err == nil {
		return nil, apperr.Conflict("username is taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, internal(err, "failed to check username")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal(err, "failed to hash password")
	}
	user := &models.User{
		Address:      "local:" + uuid.NewString(),
		Username:     req.Username,
		DisplayName:  req.Username,
		PasswordHash: string(hashed),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if apperr.IsDuplicate(err) {
			return nil, apperr.Conflict("username is taken")
		}
		return nil, internal(err, "failed to create user")
	}
	return s.respond(user)
}

func (s *AuthService) Signin(ctx context.Context, req models.SigninRequest) (*models.AuthResponse, error) {
	user, err := s.users.GetUserByUsername(ctx, req.Username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthenticated("invalid username or password")
	}
	if err != nil {
		return nil, internal(err, "failed to load user")
	}
	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, apperr.Unauthenticated("invalid username or password")
	}
	return s.respond(user)
}

// FirebaseLogin exchanges a Firebase ID token for a local session.
func (s *AuthService) FirebaseLogin(ctx context.Context, req models.FirebaseLoginRequest) (*models.AuthResponse, error) {
	user, err := s.ResolveFirebase(ctx, req.IDToken)
	if err != nil {
		return nil, err
	}
	return s.respond(user)
}

// ResolveFirebase verifies idToken and returns the user keyed by its UID,
// creating the user on first sight.
func (s *AuthService) ResolveFirebase(ctx context.Context, idToken string) (*models.User, error) {
	if s.firebase == nil {
		return nil, apperr.Unauthenticated("firebase login is not configured")
	}
	token, err := s.firebase.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, apperr.Unauthenticated("invalid firebase id token")
	}

	user, err := s.users.GetUserByAddress(ctx, token.UID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, internal(err, "failed to load user")
	}

	name, _ := token.Claims["name"].(string)
	email, _ := token.Claims["email"].(string)
	picture, _ := token.Claims["picture"].(string)
	user = &models.User{
		Address:     token.UID,
		Username:    usernameFor(email, token.UID),
		DisplayName: name,
		Image:       picture,
	}
	if err := s.users.UpsertByAddress(ctx, user); err != nil {
		return nil, internal(err, "failed to create user")
	}
	return user, nil
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// usernameFor derives a unique handle from the email local part.
func usernameFor(email, uid string) string {
	base := strings.ToLower(strings.SplitN(email, "@", 2)[0])
	base = nonAlnum.ReplaceAllString(base, "")
	if len(base) > 20 {
		base = base[:20]
	}
	if base == "" {
		base = "user"
	}
	suffix := strings.ReplaceAll(uuid.NewSHA1(uuid.NameSpaceURL, []byte(uid)).String(), "-", "")[:8]
	return base + suffix
}

func (s *AuthService) respond(user *models.User) (*models.AuthResponse, error) {
	token, err := s.IssueToken(user)
	if err != nil {
		return nil, apperr.Internal(err, "failed to generate token")
	}
	return &models.AuthResponse{Token: token, User: *user}, nil
}

// IssueToken signs a session token for user.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := s.now()
	claims := &models.JwtCustomClaims{
		UserID:   user.ID,
		Address:  user.Address,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseToken verifies a session token and returns its claims.
func (s *AuthService) ParseToken(tokenString string) (*models.JwtCustomClaims, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.Unauthenticated("invalid token")
	}
	return claims, nil
}
