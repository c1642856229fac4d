package models

import "time"

// Post is immutable after creation. Replies form a forest through
// ReplyToID; deleting a parent or the author cascades.
type Post struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Content     string     `json:"content" gorm:"type:text;not null"`
	Image       *string    `json:"image"`
	AuthorID    uint       `json:"authorId" gorm:"index;not null"`
	ReplyToID   *uint      `json:"replyToId" gorm:"index"`
	CommunityID *uint      `json:"communityId" gorm:"index"`
	CreatedAt   time.Time  `json:"createdAt" gorm:"index"`
	Author      *User      `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	ReplyTo     *Post      `json:"-" gorm:"foreignKey:ReplyToID;constraint:OnDelete:CASCADE"`
	Community   *Community `json:"-" gorm:"foreignKey:CommunityID;constraint:OnDelete:CASCADE"`
}

type CreatePostRequest struct {
	Content     string  `json:"content" validate:"required,min=1,max=500"`
	Image       *string `json:"image,omitempty" validate:"omitempty,url"`
	ReplyToID   *uint   `json:"replyToId,omitempty" validate:"omitempty,min=1"`
	CommunityID *uint   `json:"communityId,omitempty" validate:"omitempty,min=1"`
}

type PostIDRequest struct {
	PostID uint `json:"postId" query:"postId" validate:"required"`
}

type FeedRequest struct {
	Type        string `json:"type" query:"type" validate:"required,oneof=for-you following user replies community search"`
	Limit       int    `json:"limit" query:"limit" validate:"omitempty,min=1,max=100"`
	Cursor      string `json:"cursor" query:"cursor"`
	UserID      uint   `json:"userId" query:"userId"`
	CommunityID uint   `json:"communityId" query:"communityId"`
	SearchQuery string `json:"searchQuery" query:"searchQuery" validate:"omitempty,max=100"`
}

type RepliesRequest struct {
	PostID uint   `json:"postId" query:"postId" validate:"required"`
	Limit  int    `json:"limit" query:"limit" validate:"omitempty,min=1,max=100"`
	Cursor string `json:"cursor" query:"cursor"`
}

type PageRequest struct {
	Limit  int    `json:"limit" query:"limit" validate:"omitempty,min=1,max=100"`
	Cursor string `json:"cursor" query:"cursor"`
}
