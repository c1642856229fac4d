package services

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/anonto42/mintfeed/backend/internal/apperr"
	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/pagination"
	"github.com/anonto42/mintfeed/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxConversationMembers = 50

// MessageService implements N-ary conversations.
type MessageService struct {
	messages  repositories.MessageRepository
	directory *UserDirectory
}

func NewMessageService(messages repositories.MessageRepository, directory *UserDirectory) *MessageService {
	return &MessageService{messages: messages, directory: directory}
}

// memberKey is the canonical form of a member set.
func memberKey(ids []uint) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(parts, ",")
}

// Start returns the conversation between the caller and memberIDs,
// creating it when this exact member set has none.
func (s *MessageService) Start(ctx context.Context, userID uint, req models.StartConversationRequest) (*models.ConversationView, error) {
	if err := requireViewer(userID); err != nil {
		return nil, err
	}

	ids := append([]uint{userID}, req.MemberIDs...)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	if len(ids) < 2 {
		return nil, apperr.Validation("a conversation needs at least one other member")
	}
	if len(ids) > maxConversationMembers {
		return nil, apperr.Validation("a conversation has at most %d members", maxConversationMembers)
	}

	users, err := s.directory.Compacts(ctx, ids)
	if err != nil {
		return nil, internal(err, "failed to load members")
	}
	if len(users) != len(ids) {
		return nil, apperr.NotFound("one or more members do not exist")
	}

	key := memberKey(ids)
	conv, err := s.messages.FindConversationByMemberKey(ctx, key)
	if errors.Is(err, repositories.ErrConversationNotFound) {
		conv = &models.Conversation{MemberIDs: ids, MemberKey: key}
		err = s.messages.CreateConversation(ctx, conv)
		if err != nil && isMongoDuplicate(err) {
			conv, err = s.messages.FindConversationByMemberKey(ctx, key)
		}
	}
	if err != nil {
		return nil, internal(err, "failed to start conversation")
	}
	return s.view(ctx, userID, *conv, users)
}

func (s *MessageService) Conversations(ctx context.Context, userID uint, req models.PageRequest) (pagination.Page[models.ConversationView], error) {
	var empty pagination.Page[models.ConversationView]
	if err := requireViewer(userID); err != nil {
		return empty, err
	}
	before, err := parseObjectID(req.Cursor)
	if err != nil {
		return empty, err
	}
	limit := pagination.ClampLimit(req.Limit, listDefaultLimit, listMaxLimit)

	convs, err := s.messages.ListConversations(ctx, userID, before, limit)
	if err != nil {
		return empty, internal(err, "failed to load conversations")
	}
	page := pagination.Trim(convs, limit, func(c models.Conversation) string { return c.ID.Hex() })

	var ids []uint
	for _, c := range page.Items {
		ids = append(ids, c.MemberIDs...)
	}
	users, err := s.directory.Compacts(ctx, ids)
	if err != nil {
		return empty, internal(err, "failed to load members")
	}

	views := make([]models.ConversationView, 0, len(page.Items))
	for _, c := range page.Items {
		v, err := s.view(ctx, userID, c, users)
		if err != nil {
			return empty, err
		}
		views = append(views, *v)
	}
	return pagination.Page[models.ConversationView]{Items: views, NextCursor: page.NextCursor}, nil
}

func (s *MessageService) Send(ctx context.Context, userID uint, req models.SendMessageRequest) (*models.MessageView, error) {
	conv, err := s.memberConversation(ctx, userID, req.ConversationID)
	if err != nil {
		return nil, err
	}
	content := sanitize(req.Content)
	if content == "" {
		return nil, apperr.Validation("content is empty")
	}
	if utf8.RuneCountInString(content) > 2000 {
		return nil, apperr.Validation("content exceeds 2000 characters")
	}

	msg := &models.Message{ConversationID: conv.ID, SenderID: userID, Content: content}
	if err := s.messages.InsertMessage(ctx, msg); err != nil {
		return nil, internal(err, "failed to send message")
	}
	return &models.MessageView{Message: *msg, Read: true}, nil
}

// List returns messages newest first.
func (s *MessageService) List(ctx context.Context, userID uint, req models.ListMessagesRequest) (pagination.Page[models.MessageView], error) {
	var empty pagination.Page[models.MessageView]
	conv, err := s.memberConversation(ctx, userID, req.ConversationID)
	if err != nil {
		return empty, err
	}
	before, err := parseObjectID(req.Cursor)
	if err != nil {
		return empty, err
	}
	limit := pagination.ClampLimit(req.Limit, 30, listMaxLimit)

	msgs, err := s.messages.ListMessages(ctx, conv.ID, before, limit)
	if err != nil {
		return empty, internal(err, "failed to load messages")
	}
	page := pagination.Trim(msgs, limit, func(m models.Message) string { return m.ID.Hex() })
	return pagination.Map(page, func(m models.Message) models.MessageView {
		return models.MessageView{Message: m, Read: isRead(m, userID)}
	}), nil
}

// MarkRead marks every message of the conversation as read by the caller.
func (s *MessageService) MarkRead(ctx context.Context, userID uint, conversationID string) (int64, error) {
	conv, err := s.memberConversation(ctx, userID, conversationID)
	if err != nil {
		return 0, err
	}
	n, err := s.messages.MarkRead(ctx, conv.ID, userID)
	if err != nil {
		return 0, internal(err, "failed to mark messages read")
	}
	return n, nil
}

// UnreadCount counts unread messages across all of the caller's
// conversations.
func (s *MessageService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	if err := requireViewer(userID); err != nil {
		return 0, err
	}
	n, err := s.messages.CountUnreadForMember(ctx, userID)
	if err != nil {
		return 0, internal(err, "failed to count messages")
	}
	return n, nil
}

func (s *MessageService) memberConversation(ctx context.Context, userID uint, id string) (*models.Conversation, error) {
	if err := requireViewer(userID); err != nil {
		return nil, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.Validation("invalid conversation id")
	}
	conv, err := s.messages.GetConversation(ctx, oid)
	if errors.Is(err, repositories.ErrConversationNotFound) {
		return nil, apperr.NotFound("conversation not found")
	}
	if err != nil {
		return nil, internal(err, "failed to load conversation")
	}
	if !slices.Contains(conv.MemberIDs, userID) {
		return nil, apperr.Forbidden("not a member of this conversation")
	}
	return conv, nil
}

func (s *MessageService) view(ctx context.Context, userID uint, c models.Conversation, users map[uint]models.UserCompact) (*models.ConversationView, error) {
	v := &models.ConversationView{Conversation: c}
	for _, id := range c.MemberIDs {
		if u, ok := users[id]; ok {
			v.Members = append(v.Members, u)
		}
	}
	n, err := s.messages.CountUnread(ctx, []primitive.ObjectID{c.ID}, userID)
	if err != nil {
		return nil, internal(err, "failed to count messages")
	}
	v.UnreadCount = n
	return v, nil
}

func isRead(m models.Message, viewerID uint) bool {
	return m.SenderID == viewerID || slices.Contains(m.ReadBy, viewerID)
}

func parseObjectID(cursor string) (primitive.ObjectID, error) {
	if cursor == "" {
		return primitive.NilObjectID, nil
	}
	oid, err := primitive.ObjectIDFromHex(cursor)
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("invalid cursor")
	}
	return oid, nil
}
