package services

import (
	"context"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/mintfeed/backend/internal/apperr"
	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/repositories"
	"github.com/anonto42/mintfeed/backend/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memoryMessages is an in-process MessageRepository with the same ordering
// as the Mongo implementation: newest ObjectID first, limit+1 rows.
type memoryMessages struct {
	mu    sync.Mutex
	convs []models.Conversation
	msgs  []models.Message
}

var _ repositories.MessageRepository = (*memoryMessages)(nil)

func (m *memoryMessages) CreateConversation(_ context.Context, conv *models.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	conv.ID = primitive.NewObjectID()
	conv.CreatedAt = time.Now().UTC()
	conv.UpdatedAt = conv.CreatedAt
	m.convs = append(m.convs, *conv)
	return nil
}

func (m *memoryMessages) GetConversation(_ context.Context, id primitive.ObjectID) (*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.convs {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, repositories.ErrConversationNotFound
}

func (m *memoryMessages) FindConversationByMemberKey(_ context.Context, key string) (*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.convs {
		if c.MemberKey == key {
			return &c, nil
		}
	}
	return nil, repositories.ErrConversationNotFound
}

func (m *memoryMessages) ListConversations(_ context.Context, userID uint, before primitive.ObjectID, limit int) ([]models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Conversation
	for _, c := range m.convs {
		if slices.Contains(c.MemberIDs, userID) && (before.IsZero() || c.ID.Hex() < before.Hex()) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() > out[j].ID.Hex() })
	if len(out) > limit+1 {
		out = out[:limit+1]
	}
	return out, nil
}

func (m *memoryMessages) InsertMessage(_ context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = time.Now().UTC()
	m.msgs = append(m.msgs, *msg)
	return nil
}

func (m *memoryMessages) ListMessages(_ context.Context, conversationID, before primitive.ObjectID, limit int) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Message
	for _, msg := range m.msgs {
		if msg.ConversationID == conversationID && (before.IsZero() || msg.ID.Hex() < before.Hex()) {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() > out[j].ID.Hex() })
	if len(out) > limit+1 {
		out = out[:limit+1]
	}
	return out, nil
}

func (m *memoryMessages) MarkRead(_ context.Context, conversationID primitive.ObjectID, userID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i, msg := range m.msgs {
		if msg.ConversationID == conversationID && msg.SenderID != userID && !slices.Contains(msg.ReadBy, userID) {
			m.msgs[i].ReadBy = append(m.msgs[i].ReadBy, userID)
			n++
		}
	}
	return n, nil
}

func (m *memoryMessages) CountUnread(_ context.Context, conversationIDs []primitive.ObjectID, userID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, msg := range m.msgs {
		if slices.Contains(conversationIDs, msg.ConversationID) && msg.SenderID != userID && !slices.Contains(msg.ReadBy, userID) {
			n++
		}
	}
	return n, nil
}

func (m *memoryMessages) CountUnreadForMember(ctx context.Context, userID uint) (int64, error) {
	m.mu.Lock()
	var ids []primitive.ObjectID
	for _, c := range m.convs {
		if slices.Contains(c.MemberIDs, userID) {
			ids = append(ids, c.ID)
		}
	}
	m.mu.Unlock()
	return m.CountUnread(ctx, ids, userID)
}

func TestUnreadCountCoversEveryConversation(t *testing.T) {
	repo := &memoryMessages{}
	svc := NewMessageService(repo, nil)

	const conversations = 250
	for i := 0; i < conversations; i++ {
		peer := uint(100 + i)
		conv := &models.Conversation{MemberIDs: []uint{1, peer}, MemberKey: memberKey([]uint{1, peer})}
		if err := repo.CreateConversation(ctxb, conv); err != nil {
			t.Fatal(err)
		}
		if err := repo.InsertMessage(ctxb, &models.Message{ConversationID: conv.ID, SenderID: peer, Content: "hi"}); err != nil {
			t.Fatal(err)
		}
	}
	other := &models.Conversation{MemberIDs: []uint{2, 3}, MemberKey: "2,3"}
	if err := repo.CreateConversation(ctxb, other); err != nil {
		t.Fatal(err)
	}
	if err := repo.InsertMessage(ctxb, &models.Message{ConversationID: other.ID, SenderID: 3, Content: "not yours"}); err != nil {
		t.Fatal(err)
	}

	n, err := svc.UnreadCount(ctxb, 1)
	if err != nil {
		t.Fatal(err)
	}
	if n != conversations {
		t.Errorf("unread = %d, want %d", n, conversations)
	}
}

func TestConversationLifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.CreateUser(t, db, "alice")
	b := testutil.CreateUser(t, db, "bob")
	c := testutil.CreateUser(t, db, "carol")
	d := testutil.CreateUser(t, db, "dave")
	svc := NewMessageService(&memoryMessages{}, newDirectory(t, db))

	group, err := svc.Start(ctxb, a.ID, models.StartConversationRequest{MemberIDs: []uint{c.ID, b.ID, b.ID}})
	if err != nil {
		t.Fatal(err)
	}
	if len(group.Members) != 3 {
		t.Fatalf("members = %d, want 3", len(group.Members))
	}
	same, err := svc.Start(ctxb, c.ID, models.StartConversationRequest{MemberIDs: []uint{a.ID, b.ID}})
	if err != nil {
		t.Fatal(err)
	}
	if same.ID != group.ID {
		t.Error("the same member set should reuse its conversation")
	}

	cid := group.ID.Hex()
	for _, text := range []string{"one", "two", "three"} {
		if _, err := svc.Send(ctxb, a.ID, models.SendMessageRequest{ConversationID: cid, Content: text}); err != nil {
			t.Fatal(err)
		}
	}

	_, err = svc.Send(ctxb, d.ID, models.SendMessageRequest{ConversationID: cid, Content: "hi"})
	wantKind(t, err, apperr.KindForbidden)
	_, err = svc.List(ctxb, d.ID, models.ListMessagesRequest{ConversationID: cid})
	wantKind(t, err, apperr.KindForbidden)

	page, err := svc.List(ctxb, b.ID, models.ListMessagesRequest{ConversationID: cid, Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 2 || page.Items[0].Content != "three" || page.NextCursor == nil {
		t.Fatalf("first page = %+v", page.Items)
	}
	if page.Items[0].Read {
		t.Error("bob has not read the message yet")
	}
	rest, err := svc.List(ctxb, b.ID, models.ListMessagesRequest{ConversationID: cid, Limit: 2, Cursor: *page.NextCursor})
	if err != nil {
		t.Fatal(err)
	}
	if len(rest.Items) != 1 || rest.Items[0].Content != "one" {
		t.Fatalf("second page = %+v", rest.Items)
	}

	unread, err := svc.UnreadCount(ctxb, b.ID)
	if err != nil || unread != 3 {
		t.Fatalf("bob unread = %d (%v), want 3", unread, err)
	}
	if n, _ := svc.UnreadCount(ctxb, a.ID); n != 0 {
		t.Errorf("sender unread = %d, want 0", n)
	}

	marked, err := svc.MarkRead(ctxb, b.ID, cid)
	if err != nil || marked != 3 {
		t.Fatalf("marked = %d (%v), want 3", marked, err)
	}
	if n, _ := svc.UnreadCount(ctxb, b.ID); n != 0 {
		t.Errorf("bob unread after markRead = %d", n)
	}
	if n, _ := svc.UnreadCount(ctxb, c.ID); n != 3 {
		t.Errorf("carol unread = %d, want 3", n)
	}

	convs, err := svc.Conversations(ctxb, c.ID, models.PageRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(convs.Items) != 1 || convs.Items[0].UnreadCount != 3 {
		t.Errorf("carol conversations = %+v", convs.Items)
	}
}

func TestStartConversationValidation(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.CreateUser(t, db, "alice")
	svc := NewMessageService(&memoryMessages{}, newDirectory(t, db))

	_, err := svc.Start(ctxb, a.ID, models.StartConversationRequest{MemberIDs: []uint{a.ID}})
	wantKind(t, err, apperr.KindValidation)
	_, err = svc.Start(ctxb, a.ID, models.StartConversationRequest{MemberIDs: []uint{999}})
	wantKind(t, err, apperr.KindNotFound)
	_, err = svc.Start(ctxb, 0, models.StartConversationRequest{MemberIDs: []uint{a.ID}})
	wantKind(t, err, apperr.KindUnauthenticated)
	_, err = svc.List(ctxb, a.ID, models.ListMessagesRequest{ConversationID: primitive.NewObjectID().Hex()})
	wantKind(t, err, apperr.KindNotFound)
}
