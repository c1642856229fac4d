package services

import (
	"context"

	"github.com/anonto42/mintfeed/backend/internal/metrics"
	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/repositories"
	"gorm.io/gorm"
)

var reactionNotification = map[models.ReactionKind]string{
	models.ReactionLike:   models.NotificationLike,
	models.ReactionSave:   models.NotificationSave,
	models.ReactionRepost: models.NotificationRepost,
}

// ReactionService toggles likes, saves and reposts. Both directions are
// idempotent: repeating an add or a remove succeeds without effect.
type ReactionService struct {
	db     *gorm.DB
	posts  repositories.PostRepository
	access communityAccess
}

func NewReactionService(db *gorm.DB, posts repositories.PostRepository, communities repositories.CommunityRepository) *ReactionService {
	return &ReactionService{
		db:     db,
		posts:  posts,
		access: communityAccess{communities: communities},
	}
}

func (s *ReactionService) Add(ctx context.Context, kind models.ReactionKind, userID, postID uint) error {
	ctx, span := tracer.Start(ctx, "ReactionService.Add")
	defer span.End()

	if err := requireViewer(userID); err != nil {
		return err
	}
	post, err := loadVisiblePost(ctx, s.posts, s.access, userID, postID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := repositories.NewPostgresReactionRepository(tx).AddReaction(ctx, kind, userID, postID)
		if err != nil || !created {
			return err
		}
		return notify(ctx, tx, s.notification(kind, userID, post))
	})
	if err != nil {
		return internal(err, "failed to add "+string(kind))
	}
	metrics.Reactions.WithLabelValues(string(kind), "add").Inc()
	return nil
}

func (s *ReactionService) Remove(ctx context.Context, kind models.ReactionKind, userID, postID uint) error {
	ctx, span := tracer.Start(ctx, "ReactionService.Remove")
	defer span.End()

	if err := requireViewer(userID); err != nil {
		return err
	}
	// Only the caller's own row is touched, so a user who lost access to
	// the post's community can still undo a reaction.
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return lookup(err, "post")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		removed, err := repositories.NewPostgresReactionRepository(tx).RemoveReaction(ctx, kind, userID, postID)
		if err != nil || !removed {
			return err
		}
		return unnotify(ctx, tx, s.notification(kind, userID, post))
	})
	if err != nil {
		return internal(err, "failed to remove "+string(kind))
	}
	metrics.Reactions.WithLabelValues(string(kind), "remove").Inc()
	return nil
}

func (s *ReactionService) notification(kind models.ReactionKind, userID uint, post *models.Post) models.Notification {
	id := post.ID
	return models.Notification{
		Type:        reactionNotification[kind],
		ActorID:     userID,
		RecipientID: post.AuthorID,
		TargetID:    &id,
		TargetType:  "post",
	}
}
