package models

import (
	"time"

	"gorm.io/datatypes"
)

// Collection owns the token id sequence of its mints. TotalSupply is the
// authoritative last issued token id.
type Collection struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	CreatorID   uint      `json:"creatorId" gorm:"index;not null"`
	Name        string    `json:"name" gorm:"size:64;not null"`
	DefaultFor  *uint     `json:"-" gorm:"uniqueIndex"` // creator id on the creator's default collection
	TotalSupply uint      `json:"totalSupply" gorm:"default:0;not null"`
	CreatedAt   time.Time `json:"createdAt"`
	Creator     *User     `json:"-" gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE"`
}

// NFTMint records a post minted into a collection. At most one per post.
type NFTMint struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	PostID       uint           `json:"postId" gorm:"uniqueIndex;not null"`
	CollectionID uint           `json:"collectionId" gorm:"uniqueIndex:idx_collection_token;not null"`
	TokenID      uint           `json:"tokenId" gorm:"uniqueIndex:idx_collection_token;not null"`
	Owner        string         `json:"owner" gorm:"size:128;not null"`
	Metadata     datatypes.JSON `json:"metadata"`
	CreatedAt    time.Time      `json:"createdAt"`
	Post         *Post          `json:"-" gorm:"constraint:OnDelete:RESTRICT"`
	Collection   *Collection    `json:"-" gorm:"constraint:OnDelete:RESTRICT"`
}

// NFTMetadata is the JSON stored with each mint.
type NFTMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
	Author      string `json:"author"`
}

type MintRequest struct {
	PostID       uint  `json:"postId" validate:"required"`
	CollectionID *uint `json:"collectionId,omitempty" validate:"omitempty,min=1"`
}

type MintResult struct {
	TokenID      uint `json:"tokenId"`
	CollectionID uint `json:"collectionId"`
}

type CreateCollectionRequest struct {
	Name string `json:"name" validate:"required,min=1,max=64"`
}
