package models

import "time"

// Like, Save and Repost are append/delete only rows, unique per
// (user, post).
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"userId" gorm:"uniqueIndex:idx_like_user_post;not null"`
	PostID    uint      `json:"postId" gorm:"uniqueIndex:idx_like_user_post;index;not null"`
	CreatedAt time.Time `json:"createdAt"`
	User      *User     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Post      *Post     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

type Save struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"userId" gorm:"uniqueIndex:idx_save_user_post;not null"`
	PostID    uint      `json:"postId" gorm:"uniqueIndex:idx_save_user_post;index;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	User      *User     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Post      *Post     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

type Repost struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"userId" gorm:"uniqueIndex:idx_repost_user_post;not null"`
	PostID    uint      `json:"postId" gorm:"uniqueIndex:idx_repost_user_post;index;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	User      *User     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Post      *Post     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

type ReactionKind string

const (
	ReactionLike   ReactionKind = "like"
	ReactionSave   ReactionKind = "save"
	ReactionRepost ReactionKind = "repost"
)

// Table returns the table backing the reaction kind.
func (k ReactionKind) Table() string {
	switch k {
	case ReactionLike:
		return "likes"
	case ReactionSave:
		return "saves"
	case ReactionRepost:
		return "reposts"
	}
	return ""
}
