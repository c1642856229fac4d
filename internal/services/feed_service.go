package services

import (
	"context"
	"errors"
	"strings"

	"github.com/anonto42/mintfeed/backend/internal/apperr"
	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/pagination"
	"github.com/anonto42/mintfeed/backend/internal/readmodel"
	"github.com/anonto42/mintfeed/backend/internal/repositories"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// FeedService assembles feeds from the read model.
type FeedService struct {
	views  *readmodel.Builder
	users  repositories.UserRepository
	posts  repositories.PostRepository
	access communityAccess
}

func NewFeedService(views *readmodel.Builder, users repositories.UserRepository, posts repositories.PostRepository, communities repositories.CommunityRepository) *FeedService {
	return &FeedService{
		views:  views,
		users:  users,
		posts:  posts,
		access: communityAccess{communities: communities},
	}
}

type PostPage = pagination.Page[readmodel.PostView]

// Feed dispatches on the feed type and returns one page.
func (s *FeedService) Feed(ctx context.Context, viewerID uint, req models.FeedRequest) (PostPage, error) {
	ctx, span := tracer.Start(ctx, "FeedService.Feed")
	defer span.End()
	span.SetAttributes(attribute.String("type", req.Type))

	cursor, err := pagination.ParseFeed(req.Cursor)
	if err != nil {
		return PostPage{}, err
	}
	limit := pagination.ClampLimit(req.Limit, feedDefaultLimit, feedMaxLimit)

	f, err := s.filterFor(ctx, viewerID, req)
	if err != nil {
		return PostPage{}, err
	}

	page, err := s.views.Page(ctx, viewerID, f, cursor, limit)
	if err != nil {
		return PostPage{}, internal(err, "failed to load feed")
	}
	return page, nil
}

func (s *FeedService) filterFor(ctx context.Context, viewerID uint, req models.FeedRequest) (readmodel.Filter, error) {
	switch req.Type {
	case "for-you":
		return readmodel.Filter{IncludeReposts: true}, nil

	case "following":
		if err := requireViewer(viewerID); err != nil {
			return readmodel.Filter{}, err
		}
		return readmodel.Filter{FollowedBy: viewerID, IncludeReposts: true}, nil

	case "user", "replies":
		if req.UserID == 0 {
			return readmodel.Filter{}, apperr.Validation("userId is required for %s feeds", req.Type)
		}
		if _, err := s.users.GetUserByID(ctx, req.UserID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return readmodel.Filter{}, apperr.NotFound("user not found")
			}
			return readmodel.Filter{}, internal(err, "failed to load user")
		}
		if req.Type == "replies" {
			return readmodel.Filter{AuthorID: req.UserID, OnlyReplies: true}, nil
		}
		return readmodel.Filter{AuthorID: req.UserID, OnlyTopLevel: true, IncludeReposts: true}, nil

	case "community":
		if req.CommunityID == 0 {
			return readmodel.Filter{}, apperr.Validation("communityId is required for community feeds")
		}
		if _, err := s.access.requireMember(ctx, req.CommunityID, viewerID); err != nil {
			return readmodel.Filter{}, err
		}
		return readmodel.Filter{CommunityID: req.CommunityID}, nil

	case "search":
		q := strings.TrimSpace(req.SearchQuery)
		if q == "" {
			return readmodel.Filter{}, apperr.Validation("searchQuery is required for search feeds")
		}
		return readmodel.Filter{Search: q}, nil
	}
	return readmodel.Filter{}, apperr.Validation("unknown feed type %q", req.Type)
}

// GetByID returns one post as the viewer sees it.
func (s *FeedService) GetByID(ctx context.Context, viewerID, postID uint) (*readmodel.PostView, error) {
	if err := s.checkVisible(ctx, viewerID, postID); err != nil {
		return nil, err
	}
	v, err := s.views.Get(ctx, viewerID, postID)
	if err != nil {
		return nil, internal(err, "failed to load post")
	}
	if v == nil {
		return nil, apperr.NotFound("post not found")
	}
	return v, nil
}

// Replies lists the direct replies of a post, newest first.
func (s *FeedService) Replies(ctx context.Context, viewerID uint, req models.RepliesRequest) (PostPage, error) {
	if err := s.checkVisible(ctx, viewerID, req.PostID); err != nil {
		return PostPage{}, err
	}
	cursor, err := pagination.ParseFeed(req.Cursor)
	if err != nil {
		return PostPage{}, err
	}
	limit := pagination.ClampLimit(req.Limit, feedDefaultLimit, feedMaxLimit)

	page, err := s.views.Page(ctx, viewerID, readmodel.Filter{ReplyToID: req.PostID}, cursor, limit)
	if err != nil {
		return PostPage{}, internal(err, "failed to load replies")
	}
	return page, nil
}

// Bookmarks lists the viewer's saved posts, most recently saved first.
func (s *FeedService) Bookmarks(ctx context.Context, viewerID uint, req models.PageRequest) (PostPage, error) {
	if err := requireViewer(viewerID); err != nil {
		return PostPage{}, err
	}
	cursor, err := pagination.ParseFeed(req.Cursor)
	if err != nil {
		return PostPage{}, err
	}
	limit := pagination.ClampLimit(req.Limit, feedDefaultLimit, feedMaxLimit)

	page, err := s.views.Page(ctx, viewerID, readmodel.Filter{SavedBy: viewerID}, cursor, limit)
	if err != nil {
		return PostPage{}, internal(err, "failed to load bookmarks")
	}
	return page, nil
}

// checkVisible returns NotFound for missing posts and Forbidden for posts
// in a community the viewer does not belong to.
func (s *FeedService) checkVisible(ctx context.Context, viewerID, postID uint) error {
	_, err := loadVisiblePost(ctx, s.posts, s.access, viewerID, postID)
	return err
}

func loadVisiblePost(ctx context.Context, posts repositories.PostRepository, access communityAccess, viewerID, postID uint) (*models.Post, error) {
	post, err := posts.GetPostByID(ctx, postID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("post not found")
	}
	if err != nil {
		return nil, internal(err, "failed to load post")
	}
	if post.CommunityID != nil {
		if _, err := access.requireMember(ctx, *post.CommunityID, viewerID); err != nil {
			return nil, err
		}
	}
	return post, nil
}
