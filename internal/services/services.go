// Package services implements the procedures behind the HTTP shim. Every
// procedure takes the viewer explicitly and returns apperr errors.
package services

import (
	"context"
	"errors"
	"html"
	"strings"

	"github.com/anonto42/mintfeed/backend/internal/apperr"
	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/repositories"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("services")

const (
	feedDefaultLimit = 20
	feedMaxLimit     = 50
	listDefaultLimit = 20
	listMaxLimit     = 100
)

var strict = bluemonday.StrictPolicy()

// sanitize strips markup from user text. Entities escaped by the policy are
// decoded again since clients render plain text.
func sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// internal wraps a datastore failure unless it already carries a kind.
func internal(err error, msg string) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return apperr.NotFound("%s", "not found")
	case apperr.KindConflict:
		return apperr.Conflict("%s", "conflict")
	}
	return apperr.Internal(err, msg)
}

func requireViewer(viewerID uint) error {
	if viewerID == 0 {
		return apperr.Unauthenticated("authentication required")
	}
	return nil
}

// UserDirectory resolves user ids to their compact form through an LRU.
type UserDirectory struct {
	users repositories.UserRepository
	cache *lru.TwoQueueCache[uint, models.UserCompact]
}

func NewUserDirectory(users repositories.UserRepository, size int) (*UserDirectory, error) {
	cache, err := lru.New2Q[uint, models.UserCompact](size)
	if err != nil {
		return nil, err
	}
	return &UserDirectory{users: users, cache: cache}, nil
}

// Compacts returns the users that exist among ids.
func (d *UserDirectory) Compacts(ctx context.Context, ids []uint) (map[uint]models.UserCompact, error) {
	out := make(map[uint]models.UserCompact, len(ids))
	var missing []uint
	for _, id := range ids {
		if _, done := out[id]; done {
			continue
		}
		if u, ok := d.cache.Get(id); ok {
			out[id] = u
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}

	users, err := d.users.GetUsersByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for i := range users {
		c := users[i].ToCompact()
		d.cache.Add(c.ID, c)
		out[c.ID] = c
	}
	return out, nil
}

func (d *UserDirectory) Invalidate(id uint) {
	d.cache.Remove(id)
}

// communityAccess answers membership questions shared by the feed, post
// and community procedures. The creator counts as an approved admin even
// without a roster row.
type communityAccess struct {
	communities repositories.CommunityRepository
}

type membership struct {
	community *models.Community
	member    *models.CommunityMember
}

func (m membership) approved(userID uint) bool {
	if userID == 0 {
		return false
	}
	if m.community.CreatorID == userID {
		return true
	}
	return m.member != nil && m.member.IsApproved
}

func (m membership) admin(userID uint) bool {
	if userID == 0 {
		return false
	}
	if m.community.CreatorID == userID {
		return true
	}
	return m.member != nil && m.member.IsApproved && m.member.Role == models.RoleAdmin
}

func (a communityAccess) load(ctx context.Context, communityID, userID uint) (membership, error) {
	c, err := a.communities.GetCommunityByID(ctx, communityID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return membership{}, apperr.NotFound("community not found")
	}
	if err != nil {
		return membership{}, internal(err, "failed to load community")
	}
	m := membership{community: c}
	if userID != 0 {
		m.member, err = a.communities.GetMembership(ctx, communityID, userID)
		if err != nil {
			return membership{}, internal(err, "failed to load membership")
		}
	}
	return m, nil
}

// requireMember denies rather than filters: a non member never gets to run
// a community scoped query.
func (a communityAccess) requireMember(ctx context.Context, communityID, userID uint) (membership, error) {
	m, err := a.load(ctx, communityID, userID)
	if err != nil {
		return m, err
	}
	if !m.approved(userID) {
		return m, apperr.Forbidden("not a member of this community")
	}
	return m, nil
}

// lookup maps a failed single-row load to NotFound naming what was missing.
func lookup(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("%s not found", what)
	}
	return internal(err, "failed to load "+what)
}

func isMongoDuplicate(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
