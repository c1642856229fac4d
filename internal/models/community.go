package models

import "time"

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// Community is a bounded audience gated by creator-approved membership.
type Community struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:64;uniqueIndex;not null"`
	Description string    `json:"description" gorm:"size:500"`
	CreatorID   uint      `json:"creatorId" gorm:"index;not null"`
	CreatedAt   time.Time `json:"createdAt"`
	Creator     *User     `json:"-" gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE"`
}

type CommunityMember struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	CommunityID uint       `json:"communityId" gorm:"uniqueIndex:idx_community_member;not null"`
	UserID      uint       `json:"userId" gorm:"uniqueIndex:idx_community_member;index;not null"`
	Role        string     `json:"role" gorm:"size:16;default:member;not null"`
	IsApproved  bool       `json:"isApproved" gorm:"default:false"`
	CreatedAt   time.Time  `json:"createdAt"`
	Community   *Community `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	User        *User      `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// CommunityView carries the viewer's relation to the community.
type CommunityView struct {
	Community
	MembersCount int64   `json:"membersCount"`
	ViewerRole   *string `json:"viewerRole"`
	IsApproved   bool    `json:"isApproved"`
}

type MemberView struct {
	CommunityMember
	User UserCompact `json:"user"`
}

type CreateCommunityRequest struct {
	Name        string `json:"name" validate:"required,min=3,max=64"`
	Description string `json:"description" validate:"max=500"`
}

type CommunityIDRequest struct {
	CommunityID uint `json:"communityId" query:"communityId" validate:"required"`
}

type CommunityMemberRequest struct {
	CommunityID uint `json:"communityId" validate:"required"`
	UserID      uint `json:"userId" validate:"required"`
}

type SetRoleRequest struct {
	CommunityID uint   `json:"communityId" validate:"required"`
	UserID      uint   `json:"userId" validate:"required"`
	Role        string `json:"role" validate:"required,oneof=member admin"`
}

type CommunityMembersRequest struct {
	CommunityID uint   `json:"communityId" query:"communityId" validate:"required"`
	Limit       int    `json:"limit" query:"limit" validate:"omitempty,min=1,max=100"`
	Cursor      string `json:"cursor" query:"cursor"`
	Pending     bool   `json:"pending" query:"pending"`
}
