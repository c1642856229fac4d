package services

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"github.com/anonto42/mintfeed/backend/internal/apperr"
	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/readmodel"
	"github.com/anonto42/mintfeed/backend/internal/repositories"
	"gorm.io/gorm"
)

const maxPostLength = 500

// PostService creates and deletes posts.
type PostService struct {
	db     *gorm.DB
	posts  repositories.PostRepository
	views  *readmodel.Builder
	access communityAccess
}

func NewPostService(db *gorm.DB, posts repositories.PostRepository, communities repositories.CommunityRepository, views *readmodel.Builder) *PostService {
	return &PostService{
		db:     db,
		posts:  posts,
		views:  views,
		access: communityAccess{communities: communities},
	}
}

// Create stores a post or reply and returns its view. A reply lives in its
// parent's community; a reply's parent author is notified.
func (s *PostService) Create(ctx context.Context, authorID uint, req models.CreatePostRequest) (*readmodel.PostView, error) {
	ctx, span := tracer.Start(ctx, "PostService.Create")
	defer span.End()

	if err := requireViewer(authorID); err != nil {
		return nil, err
	}
	content := sanitize(req.Content)
	if content == "" {
		return nil, apperr.Validation("content is empty")
	}
	if utf8.RuneCountInString(content) > maxPostLength {
		return nil, apperr.Validation("content exceeds %d characters", maxPostLength)
	}

	post := &models.Post{Content: content, Image: req.Image, AuthorID: authorID}

	var parent *models.Post
	if req.ReplyToID != nil {
		p, err := loadVisiblePost(ctx, s.posts, s.access, authorID, *req.ReplyToID)
		if err != nil {
			return nil, err
		}
		parent = p
		post.ReplyToID = &p.ID
		post.CommunityID = p.CommunityID
		if req.CommunityID != nil && (p.CommunityID == nil || *p.CommunityID != *req.CommunityID) {
			return nil, apperr.Validation("a reply must stay in its parent's community")
		}
	} else if req.CommunityID != nil {
		if _, err := s.access.requireMember(ctx, *req.CommunityID, authorID); err != nil {
			return nil, err
		}
		post.CommunityID = req.CommunityID
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repositories.NewPostgresPostRepository(tx).CreatePost(ctx, post); err != nil {
			return err
		}
		if parent != nil && parent.AuthorID != authorID {
			return notify(ctx, tx, models.Notification{
				Type:        models.NotificationReply,
				ActorID:     authorID,
				RecipientID: parent.AuthorID,
				TargetID:    &post.ID,
				TargetType:  "post",
			})
		}
		return nil
	})
	if err != nil {
		return nil, internal(err, "failed to create post")
	}

	v, err := s.views.Get(ctx, authorID, post.ID)
	if err != nil || v == nil {
		return nil, internal(err, "failed to load created post")
	}
	return v, nil
}

// Delete removes the author's post together with its reply subtree. Posts
// with a minted post in their subtree stay, keeping collection supply equal
// to the mint records.
func (s *PostService) Delete(ctx context.Context, userID, postID uint) error {
	ctx, span := tracer.Start(ctx, "PostService.Delete")
	defer span.End()

	if err := requireViewer(userID); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		posts := repositories.NewPostgresPostRepository(tx)
		post, err := posts.GetPostByID(ctx, postID)
		if err != nil {
			return lookup(err, "post")
		}
		if post.AuthorID != userID {
			return apperr.Forbidden("you can only delete your own posts")
		}

		ids, err := posts.SubtreeIDs(ctx, postID)
		if err != nil {
			return internal(err, "failed to load replies")
		}
		minted, err := repositories.NewPostgresNFTRepository(tx).CountMintsForPosts(ctx, ids)
		if err != nil {
			return internal(err, "failed to check mints")
		}
		if minted > 0 {
			return apperr.Conflict("minted posts cannot be deleted")
		}

		if err := repositories.NewPostgresNotificationRepository(tx).DeleteForTargets(ctx, "post", ids); err != nil {
			return internal(err, "failed to delete notifications")
		}
		if err := posts.DeletePost(ctx, postID); err != nil {
			return internal(err, "failed to delete post")
		}
		slog.Debug("deleted post", "post", postID, "subtree", len(ids))
		return nil
	})
}
