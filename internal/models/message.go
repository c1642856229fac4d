package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation is an N-ary member set stored in MongoDB.
type Conversation struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	MemberIDs     []uint             `json:"memberIds" bson:"member_ids"`
	MemberKey     string             `json:"-" bson:"member_key"` // sorted member ids, unique
	CreatedAt     time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updated_at"`
	LastMessageAt *time.Time         `json:"lastMessageAt,omitempty" bson:"last_message_at,omitempty"`
}

// Message is append-only; ReadBy grows as members read it.
type Message struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ConversationID primitive.ObjectID `json:"conversationId" bson:"conversation_id"`
	SenderID       uint               `json:"senderId" bson:"sender_id"`
	Content        string             `json:"content" bson:"content"`
	ReadBy         []uint             `json:"-" bson:"read_by"`
	CreatedAt      time.Time          `json:"createdAt" bson:"created_at"`
}

// MessageView is a message as seen by one member.
type MessageView struct {
	Message
	Read bool `json:"read"`
}

type ConversationView struct {
	Conversation
	Members     []UserCompact `json:"members"`
	UnreadCount int64         `json:"unreadCount"`
}

type StartConversationRequest struct {
	MemberIDs []uint `json:"memberIds" validate:"required,min=1,max=49,dive,min=1"`
}

type SendMessageRequest struct {
	ConversationID string `json:"conversationId" validate:"required,len=24,hexadecimal"`
	Content        string `json:"content" validate:"required,min=1,max=2000"`
}

type ConversationIDRequest struct {
	ConversationID string `json:"conversationId" query:"conversationId" validate:"required,len=24,hexadecimal"`
}

type ListMessagesRequest struct {
	ConversationID string `json:"conversationId" query:"conversationId" validate:"required,len=24,hexadecimal"`
	Limit          int    `json:"limit" query:"limit" validate:"omitempty,min=1,max=100"`
	Cursor         string `json:"cursor" query:"cursor"`
}
