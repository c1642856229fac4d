package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anonto42/mintfeed/backend/internal/apperr"
	"github.com/anonto42/mintfeed/backend/internal/metrics"
	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/repositories"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NFTService mints posts into collections.
type NFTService struct {
	db  *gorm.DB
	nft repositories.NFTRepository
}

func NewNFTService(db *gorm.DB, nft repositories.NFTRepository) *NFTService {
	return &NFTService{db: db, nft: nft}
}

// Mint records postID as the next token of a collection. The existence
// check, the supply increment and the insert share one transaction; a lost
// race on the unique post_id rolls the increment back and reports Conflict.
func (s *NFTService) Mint(ctx context.Context, userID uint, req models.MintRequest) (*models.MintResult, error) {
	ctx, span := tracer.Start(ctx, "NFTService.Mint")
	defer span.End()
	span.SetAttributes(attribute.Int64("post", int64(req.PostID)))

	if err := requireViewer(userID); err != nil {
		return nil, err
	}

	var result models.MintResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		nft := repositories.NewPostgresNFTRepository(tx)

		post, err := repositories.NewPostgresPostRepository(tx).GetPostByID(ctx, req.PostID)
		if err != nil {
			return lookup(err, "post")
		}
		if post.AuthorID != userID {
			return apperr.Forbidden("only the author can mint a post")
		}
		owner, err := repositories.NewPostgresUserRepository(tx).GetUserByID(ctx, userID)
		if err != nil {
			return lookup(err, "user")
		}

		collection, err := s.resolveCollection(ctx, nft, owner, req.CollectionID)
		if err != nil {
			return err
		}

		existing, err := nft.GetMintByPostID(ctx, post.ID)
		if err != nil {
			return internal(err, "failed to check mint")
		}
		if existing != nil {
			return apperr.Conflict("post is already minted")
		}

		tokenID, err := nft.IncrementSupply(ctx, collection.ID)
		if err != nil {
			return internal(err, "failed to allocate token id")
		}

		meta, err := json.Marshal(models.NFTMetadata{
			Name:        fmt.Sprintf("%s #%d", collection.Name, tokenID),
			Description: post.Content,
			Image:       deref(post.Image),
			Author:      owner.Username,
		})
		if err != nil {
			return apperr.Internal(err, "failed to encode metadata")
		}

		err = nft.CreateMint(ctx, &models.NFTMint{
			PostID:       post.ID,
			CollectionID: collection.ID,
			TokenID:      tokenID,
			Owner:        owner.Address,
			Metadata:     datatypes.JSON(meta),
		})
		if apperr.IsDuplicate(err) {
			return apperr.Conflict("post is already minted")
		}
		if err != nil {
			return internal(err, "failed to record mint")
		}

		result = models.MintResult{TokenID: tokenID, CollectionID: collection.ID}
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindConflict {
			metrics.Mints.WithLabelValues("conflict").Inc()
		} else {
			metrics.Mints.WithLabelValues("error").Inc()
		}
		return nil, err
	}
	metrics.Mints.WithLabelValues("ok").Inc()
	return &result, nil
}

func (s *NFTService) resolveCollection(ctx context.Context, nft repositories.NFTRepository, owner *models.User, id *uint) (*models.Collection, error) {
	if id == nil {
		c, err := nft.EnsureDefaultCollection(ctx, owner.ID, owner.Username+" collection")
		if err != nil {
			return nil, internal(err, "failed to prepare collection")
		}
		return c, nil
	}
	c, err := nft.GetCollectionByID(ctx, *id)
	if err != nil {
		return nil, lookup(err, "collection")
	}
	if c.CreatorID != owner.ID {
		return nil, apperr.Forbidden("you can only mint into your own collections")
	}
	return c, nil
}

// GetByPost returns the mint record of a post.
func (s *NFTService) GetByPost(ctx context.Context, postID uint) (*models.NFTMint, error) {
	m, err := s.nft.GetMintByPostID(ctx, postID)
	if err != nil {
		return nil, internal(err, "failed to load mint")
	}
	if m == nil {
		return nil, apperr.NotFound("post is not minted")
	}
	return m, nil
}

func (s *NFTService) CreateCollection(ctx context.Context, userID uint, req models.CreateCollectionRequest) (*models.Collection, error) {
	if err := requireViewer(userID); err != nil {
		return nil, err
	}
	name := sanitize(req.Name)
	if name == "" {
		return nil, apperr.Validation("name is empty")
	}
	c := &models.Collection{CreatorID: userID, Name: name}
	if err := s.nft.CreateCollection(ctx, c); err != nil {
		return nil, internal(err, "failed to create collection")
	}
	return c, nil
}

func (s *NFTService) ListCollections(ctx context.Context, userID uint) ([]models.Collection, error) {
	if err := requireViewer(userID); err != nil {
		return nil, err
	}
	cs, err := s.nft.ListCollections(ctx, userID)
	if err != nil {
		return nil, internal(err, "failed to load collections")
	}
	if cs == nil {
		cs = []models.Collection{}
	}
	return cs, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
