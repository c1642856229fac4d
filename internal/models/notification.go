package models

import "time"

const (
	NotificationLike   = "like"
	NotificationRepost = "repost"
	NotificationSave   = "save"
	NotificationReply  = "reply"
	NotificationFollow = "follow"
)

// Notification is created as a side effect of an action and deleted when
// the action is undone.
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Type        string    `json:"type" gorm:"size:30;index"`
	ActorID     uint      `json:"actorId" gorm:"index"`
	RecipientID uint      `json:"recipientId" gorm:"index"`
	TargetID    *uint     `json:"targetId"`
	TargetType  string    `json:"targetType" gorm:"size:20"` // post, user
	IsRead      bool      `json:"isRead" gorm:"default:false;index"`
	CreatedAt   time.Time `json:"createdAt"`
	Recipient   *User     `json:"-" gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE"`
	Actor       *User     `json:"-" gorm:"foreignKey:ActorID;constraint:OnDelete:CASCADE"`
}

// NotificationView is a notification enriched with its actor.
type NotificationView struct {
	Notification
	Actor *UserCompact `json:"actor"`
}

type GroupedNotifications struct {
	Today     []NotificationView `json:"today"`
	Yesterday []NotificationView `json:"yesterday"`
	ThisWeek  []NotificationView `json:"thisWeek"`
	Older     []NotificationView `json:"older"`
}

type NotificationIDRequest struct {
	ID uint `json:"id" query:"id" validate:"required"`
}
