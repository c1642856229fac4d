package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is upserted on first authentication and never hard-deleted.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Address      string    `json:"address" gorm:"size:128;uniqueIndex;not null"` // Firebase UID or local:<uuid>
	Username     string    `json:"username" gorm:"size:32;uniqueIndex;not null"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"displayName" gorm:"size:64"`
	Bio          string    `json:"bio" gorm:"size:280"`
	Image        string    `json:"image"`
	IsVerified   bool      `json:"isVerified" gorm:"default:false"`
	IsCryptoBot  bool      `json:"isCryptoBot" gorm:"default:false"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserCompact is the author shape embedded in posts and notifications.
type UserCompact struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	Image       string `json:"image"`
	IsVerified  bool   `json:"isVerified"`
	IsCryptoBot bool   `json:"isCryptoBot"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:          u.ID,
		Username:    u.Username,
		Image:       u.Image,
		IsVerified:  u.IsVerified,
		IsCryptoBot: u.IsCryptoBot,
	}
}

// UserProfile is a user with derived social counters.
type UserProfile struct {
	User
	FollowersCount int64 `json:"followersCount"`
	FollowingCount int64 `json:"followingCount"`
	PostsCount     int64 `json:"postsCount"`
	IsFollowing    bool  `json:"isFollowing"`
	IsSelf         bool  `json:"isSelf"`
}

type SignupRequest struct {
	Username string `json:"username" validate:"required,alphanum,min=3,max=32"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type SigninRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

type UpdateUserRequest struct {
	DisplayName *string `json:"displayName,omitempty" validate:"omitempty,max=64"`
	Bio         *string `json:"bio,omitempty" validate:"omitempty,max=280"`
	Image       *string `json:"image,omitempty" validate:"omitempty,url"`
}

type GetUserRequest struct {
	UserID   uint   `json:"userId" query:"userId"`
	Username string `json:"username" query:"username"`
}

type SearchUsersRequest struct {
	Q     string `json:"q" query:"q" validate:"required,min=1,max=64"`
	Limit int    `json:"limit" query:"limit" validate:"omitempty,min=1,max=100"`
}

type UserTargetRequest struct {
	UserID uint `json:"userId" query:"userId" validate:"required"`
}

type UserListRequest struct {
	UserID uint   `json:"userId" query:"userId" validate:"required"`
	Limit  int    `json:"limit" query:"limit" validate:"omitempty,min=1,max=100"`
	Cursor string `json:"cursor" query:"cursor"`
}

// AuthResponse is returned by every login procedure.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// JwtCustomClaims carry the resolved principal.
type JwtCustomClaims struct {
	UserID   uint   `json:"userId"`
	Address  string `json:"address"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
