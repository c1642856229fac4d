package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/mintfeed/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository defines the interface for conversations and messages.
type MessageRepository interface {
	CreateConversation(ctx context.Context, conv *models.Conversation) error
	GetConversation(ctx context.Context, id primitive.ObjectID) (*models.Conversation, error)
	FindConversationByMemberKey(ctx context.Context, key string) (*models.Conversation, error)
	ListConversations(ctx context.Context, userID uint, before primitive.ObjectID, limit int) ([]models.Conversation, error)
	InsertMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, conversationID, before primitive.ObjectID, limit int) ([]models.Message, error)
	MarkRead(ctx context.Context, conversationID primitive.ObjectID, userID uint) (int64, error)
	CountUnread(ctx context.Context, conversationIDs []primitive.ObjectID, userID uint) (int64, error)
	CountUnreadForMember(ctx context.Context, userID uint) (int64, error)
}

// ErrConversationNotFound is returned when no conversation matches.
var ErrConversationNotFound = errors.New("conversation not found")

type mongoMessageRepository struct {
	conversations *mongo.Collection
	messages      *mongo.Collection
}

func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &mongoMessageRepository{
		conversations: db.Collection("conversations"),
		messages:      db.Collection("messages"),
	}
}

// EnsureMessageIndexes creates the indexes the repository relies on.
func EnsureMessageIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("conversations").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "member_key", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "member_ids", Value: 1}, {Key: "_id", Value: -1}}},
	})
	if err != nil {
		return err
	}
	_, err = db.Collection("messages").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "_id", Value: -1}},
	})
	return err
}

func (r *mongoMessageRepository) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	now := time.Now().UTC()
	conv.ID = primitive.NewObjectID()
	conv.CreatedAt = now
	conv.UpdatedAt = now
	_, err := r.conversations.InsertOne(ctx, conv)
	return err
}

func (r *mongoMessageRepository) GetConversation(ctx context.Context, id primitive.ObjectID) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.conversations.FindOne(ctx, bson.M{"_id": id}).Decode(&conv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *mongoMessageRepository) FindConversationByMemberKey(ctx context.Context, key string) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.conversations.FindOne(ctx, bson.M{"member_key": key}).Decode(&conv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *mongoMessageRepository) ListConversations(ctx context.Context, userID uint, before primitive.ObjectID, limit int) ([]models.Conversation, error) {
	filter := bson.M{"member_ids": userID}
	if !before.IsZero() {
		filter["_id"] = bson.M{"$lt": before}
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}).SetLimit(int64(limit + 1))

	cursor, err := r.conversations.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var convs []models.Conversation
	if err := cursor.All(ctx, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// InsertMessage stores the message and bumps the conversation's
// last_message_at.
func (r *mongoMessageRepository) InsertMessage(ctx context.Context, msg *models.Message) error {
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = time.Now().UTC()
	if msg.ReadBy == nil {
		msg.ReadBy = []uint{}
	}
	if _, err := r.messages.InsertOne(ctx, msg); err != nil {
		return err
	}
	_, err := r.conversations.UpdateOne(ctx,
		bson.M{"_id": msg.ConversationID},
		bson.M{"$set": bson.M{"last_message_at": msg.CreatedAt, "updated_at": msg.CreatedAt}},
	)
	return err
}

func (r *mongoMessageRepository) ListMessages(ctx context.Context, conversationID, before primitive.ObjectID, limit int) ([]models.Message, error) {
	filter := bson.M{"conversation_id": conversationID}
	if !before.IsZero() {
		filter["_id"] = bson.M{"$lt": before}
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}).SetLimit(int64(limit + 1))

	cursor, err := r.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var msgs []models.Message
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkRead adds userID to read_by of every message in the conversation it
// did not send.
func (r *mongoMessageRepository) MarkRead(ctx context.Context, conversationID primitive.ObjectID, userID uint) (int64, error) {
	res, err := r.messages.UpdateMany(ctx,
		bson.M{"conversation_id": conversationID, "sender_id": bson.M{"$ne": userID}, "read_by": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"read_by": userID}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *mongoMessageRepository) CountUnread(ctx context.Context, conversationIDs []primitive.ObjectID, userID uint) (int64, error) {
	if len(conversationIDs) == 0 {
		return 0, nil
	}
	return r.messages.CountDocuments(ctx, bson.M{
		"conversation_id": bson.M{"$in": conversationIDs},
		"sender_id":       bson.M{"$ne": userID},
		"read_by":         bson.M{"$ne": userID},
	})
}

// CountUnreadForMember counts unread messages across every conversation
// userID belongs to.
func (r *mongoMessageRepository) CountUnreadForMember(ctx context.Context, userID uint) (int64, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.conversations.Find(ctx, bson.M{"member_ids": userID}, opts)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var ids []primitive.ObjectID
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return 0, err
		}
		ids = append(ids, doc.ID)
	}
	if err := cursor.Err(); err != nil {
		return 0, err
	}
	return r.CountUnread(ctx, ids, userID)
}
