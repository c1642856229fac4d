package services

import (
	"context"
	"errors"
	"strings"

	"github.com/anonto42/mintfeed/backend/internal/apperr"
	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/pagination"
	"github.com/anonto42/mintfeed/backend/internal/repositories"
	"gorm.io/gorm"
)

// UserService serves profiles and the follow graph.
type UserService struct {
	db        *gorm.DB
	users     repositories.UserRepository
	follows   repositories.FollowRepository
	directory *UserDirectory
}

func NewUserService(db *gorm.DB, directory *UserDirectory) *UserService {
	return &UserService{
		db:        db,
		users:     repositories.NewPostgresUserRepository(db),
		follows:   repositories.NewPostgresFollowRepository(db),
		directory: directory,
	}
}

func (s *UserService) Me(ctx context.Context, viewerID uint) (*models.UserProfile, error) {
	if err := requireViewer(viewerID); err != nil {
		return nil, err
	}
	return s.Get(ctx, viewerID, models.GetUserRequest{UserID: viewerID})
}

// Get loads a profile by id or username with derived counters.
func (s *UserService) Get(ctx context.Context, viewerID uint, req models.GetUserRequest) (*models.UserProfile, error) {
	var (
		u   *models.User
		err error
	)
	switch {
	case req.UserID != 0:
		u, err = s.users.GetUserByID(ctx, req.UserID)
	case strings.TrimSpace(req.Username) != "":
		u, err = s.users.GetUserByUsername(ctx, strings.TrimSpace(req.Username))
	default:
		return nil, apperr.Validation("userId or username is required")
	}
	if err != nil {
		return nil, lookup(err, "user")
	}

	p := &models.UserProfile{User: *u, IsSelf: viewerID == u.ID}
	p.FollowersCount, p.FollowingCount, p.PostsCount, err = s.users.GetCounts(ctx, u.ID)
	if err != nil {
		return nil, internal(err, "failed to count")
	}
	if viewerID != 0 && viewerID != u.ID {
		if p.IsFollowing, err = s.follows.IsFollowing(ctx, viewerID, u.ID); err != nil {
			return nil, internal(err, "failed to load follow state")
		}
	}
	return p, nil
}

func (s *UserService) Update(ctx context.Context, viewerID uint, req models.UpdateUserRequest) (*models.UserProfile, error) {
	if err := requireViewer(viewerID); err != nil {
		return nil, err
	}
	u, err := s.users.GetUserByID(ctx, viewerID)
	if err != nil {
		return nil, lookup(err, "user")
	}
	if req.DisplayName != nil {
		u.DisplayName = sanitize(*req.DisplayName)
	}
	if req.Bio != nil {
		u.Bio = sanitize(*req.Bio)
	}
	if req.Image != nil {
		u.Image = *req.Image
	}
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return nil, internal(err, "failed to update user")
	}
	s.directory.Invalidate(u.ID)
	return s.Get(ctx, viewerID, models.GetUserRequest{UserID: u.ID})
}

func (s *UserService) Search(ctx context.Context, req models.SearchUsersRequest) ([]models.UserCompact, error) {
	limit := pagination.ClampLimit(req.Limit, listDefaultLimit, listMaxLimit)
	users, err := s.users.SearchUsers(ctx, strings.TrimSpace(req.Q), limit)
	if err != nil {
		return nil, internal(err, "failed to search users")
	}
	out := make([]models.UserCompact, len(users))
	for i := range users {
		out[i] = users[i].ToCompact()
	}
	return out, nil
}

func (s *UserService) Follow(ctx context.Context, viewerID, targetID uint) error {
	if err := requireViewer(viewerID); err != nil {
		return err
	}
	if viewerID == targetID {
		return apperr.Validation("you cannot follow yourself")
	}
	if _, err := s.users.GetUserByID(ctx, targetID); err != nil {
		return lookup(err, "user")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := repositories.NewPostgresFollowRepository(tx).CreateFollow(ctx, viewerID, targetID)
		if err != nil || !created {
			return err
		}
		return notify(ctx, tx, followNotification(viewerID, targetID))
	})
	if err != nil {
		return internal(err, "failed to follow")
	}
	return nil
}

func (s *UserService) Unfollow(ctx context.Context, viewerID, targetID uint) error {
	if err := requireViewer(viewerID); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		removed, err := repositories.NewPostgresFollowRepository(tx).DeleteFollow(ctx, viewerID, targetID)
		if err != nil || !removed {
			return err
		}
		return unnotify(ctx, tx, followNotification(viewerID, targetID))
	})
	if err != nil {
		return internal(err, "failed to unfollow")
	}
	return nil
}

func followNotification(followerID, followingID uint) models.Notification {
	id := followerID
	return models.Notification{
		Type:        models.NotificationFollow,
		ActorID:     followerID,
		RecipientID: followingID,
		TargetID:    &id,
		TargetType:  "user",
	}
}

func (s *UserService) Followers(ctx context.Context, req models.UserListRequest) (pagination.Page[models.UserCompact], error) {
	return s.edges(ctx, req, s.follows.GetFollowers)
}

func (s *UserService) Following(ctx context.Context, req models.UserListRequest) (pagination.Page[models.UserCompact], error) {
	return s.edges(ctx, req, s.follows.GetFollowing)
}

type edgeLister func(ctx context.Context, userID, cursor uint, limit int) ([]repositories.FollowEdge, error)

func (s *UserService) edges(ctx context.Context, req models.UserListRequest, list edgeLister) (pagination.Page[models.UserCompact], error) {
	var empty pagination.Page[models.UserCompact]
	if _, err := s.users.GetUserByID(ctx, req.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return empty, apperr.NotFound("user not found")
		}
		return empty, internal(err, "failed to load user")
	}
	cursor, err := pagination.ParseID(req.Cursor)
	if err != nil {
		return empty, err
	}
	limit := pagination.ClampLimit(req.Limit, listDefaultLimit, listMaxLimit)

	rows, err := list(ctx, req.UserID, cursor, limit)
	if err != nil {
		return empty, internal(err, "failed to load follows")
	}
	page := pagination.Trim(rows, limit, func(e repositories.FollowEdge) string { return pagination.FormatID(e.FollowID) })
	return pagination.Map(page, func(e repositories.FollowEdge) models.UserCompact { return e.User.ToCompact() }), nil
}
