package services

import (
	"context"

	"github.com/anonto42/mintfeed/backend/internal/apperr"
	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/pagination"
	"github.com/anonto42/mintfeed/backend/internal/repositories"
)

// CommunityService manages communities and their join-request roster.
type CommunityService struct {
	communities repositories.CommunityRepository
	access      communityAccess
	directory   *UserDirectory
}

func NewCommunityService(communities repositories.CommunityRepository, directory *UserDirectory) *CommunityService {
	return &CommunityService{
		communities: communities,
		access:      communityAccess{communities: communities},
		directory:   directory,
	}
}

func (s *CommunityService) Create(ctx context.Context, userID uint, req models.CreateCommunityRequest) (*models.CommunityView, error) {
	if err := requireViewer(userID); err != nil {
		return nil, err
	}
	name := sanitize(req.Name)
	if len(name) < 3 {
		return nil, apperr.Validation("name must be at least 3 characters")
	}
	c := &models.Community{Name: name, Description: sanitize(req.Description), CreatorID: userID}
	if err := s.communities.CreateCommunity(ctx, c); err != nil {
		if apperr.IsDuplicate(err) {
			return nil, apperr.Conflict("community name is taken")
		}
		return nil, internal(err, "failed to create community")
	}
	return s.Get(ctx, userID, c.ID)
}

func (s *CommunityService) Get(ctx context.Context, viewerID, communityID uint) (*models.CommunityView, error) {
	m, err := s.access.load(ctx, communityID, viewerID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, m, viewerID)
}

func (s *CommunityService) view(ctx context.Context, m membership, viewerID uint) (*models.CommunityView, error) {
	count, err := s.communities.CountMembers(ctx, m.community.ID)
	if err != nil {
		return nil, internal(err, "failed to count members")
	}
	v := &models.CommunityView{Community: *m.community, MembersCount: count}
	switch {
	case m.admin(viewerID):
		role := models.RoleAdmin
		v.ViewerRole, v.IsApproved = &role, true
	case m.member != nil:
		role := m.member.Role
		v.ViewerRole, v.IsApproved = &role, m.member.IsApproved
	}
	return v, nil
}

func (s *CommunityService) List(ctx context.Context, viewerID uint, req models.PageRequest) (pagination.Page[models.CommunityView], error) {
	cursor, err := pagination.ParseID(req.Cursor)
	if err != nil {
		return pagination.Page[models.CommunityView]{}, err
	}
	limit := pagination.ClampLimit(req.Limit, listDefaultLimit, listMaxLimit)

	rows, err := s.communities.ListCommunities(ctx, cursor, limit)
	if err != nil {
		return pagination.Page[models.CommunityView]{}, internal(err, "failed to load communities")
	}
	page := pagination.Trim(rows, limit, func(c models.Community) string { return pagination.FormatID(c.ID) })

	views := make([]models.CommunityView, 0, len(page.Items))
	for i := range page.Items {
		m := membership{community: &page.Items[i]}
		if viewerID != 0 {
			if m.member, err = s.communities.GetMembership(ctx, m.community.ID, viewerID); err != nil {
				return pagination.Page[models.CommunityView]{}, internal(err, "failed to load membership")
			}
		}
		v, err := s.view(ctx, m, viewerID)
		if err != nil {
			return pagination.Page[models.CommunityView]{}, err
		}
		views = append(views, *v)
	}
	return pagination.Page[models.CommunityView]{Items: views, NextCursor: page.NextCursor}, nil
}

// Join files a pending membership request.
func (s *CommunityService) Join(ctx context.Context, userID, communityID uint) (*models.CommunityMember, error) {
	if err := requireViewer(userID); err != nil {
		return nil, err
	}
	m, err := s.access.load(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}
	if m.community.CreatorID == userID || m.member != nil {
		return nil, apperr.Conflict("already a member or a join request is pending")
	}

	member := &models.CommunityMember{CommunityID: communityID, UserID: userID, Role: models.RoleMember}
	if err := s.communities.CreateMembership(ctx, member); err != nil {
		if apperr.IsDuplicate(err) {
			return nil, apperr.Conflict("already a member or a join request is pending")
		}
		return nil, internal(err, "failed to join community")
	}
	return member, nil
}

func (s *CommunityService) Approve(ctx context.Context, adminID uint, req models.CommunityMemberRequest) (*models.CommunityMember, error) {
	target, err := s.moderate(ctx, adminID, req.CommunityID, req.UserID)
	if err != nil {
		return nil, err
	}
	if target.IsApproved {
		return target, nil
	}
	target.IsApproved = true
	if err := s.communities.UpdateMembership(ctx, target); err != nil {
		return nil, internal(err, "failed to approve member")
	}
	return target, nil
}

// Reject removes a pending request or an existing member.
func (s *CommunityService) Reject(ctx context.Context, adminID uint, req models.CommunityMemberRequest) error {
	if _, err := s.moderate(ctx, adminID, req.CommunityID, req.UserID); err != nil {
		return err
	}
	if _, err := s.communities.DeleteMembership(ctx, req.CommunityID, req.UserID); err != nil {
		return internal(err, "failed to remove member")
	}
	return nil
}

func (s *CommunityService) SetRole(ctx context.Context, adminID uint, req models.SetRoleRequest) (*models.CommunityMember, error) {
	target, err := s.moderate(ctx, adminID, req.CommunityID, req.UserID)
	if err != nil {
		return nil, err
	}
	if !target.IsApproved {
		return nil, apperr.Conflict("membership is not approved")
	}
	target.Role = req.Role
	if err := s.communities.UpdateMembership(ctx, target); err != nil {
		return nil, internal(err, "failed to update role")
	}
	return target, nil
}

// moderate checks that adminID administers the community and returns the
// target's membership. The creator cannot be moderated.
func (s *CommunityService) moderate(ctx context.Context, adminID, communityID, targetID uint) (*models.CommunityMember, error) {
	if err := requireViewer(adminID); err != nil {
		return nil, err
	}
	m, err := s.access.load(ctx, communityID, adminID)
	if err != nil {
		return nil, err
	}
	if !m.admin(adminID) {
		return nil, apperr.Forbidden("admin role required")
	}
	if targetID == m.community.CreatorID {
		return nil, apperr.Forbidden("the creator cannot be moderated")
	}
	target, err := s.communities.GetMembership(ctx, communityID, targetID)
	if err != nil {
		return nil, internal(err, "failed to load membership")
	}
	if target == nil {
		return nil, apperr.NotFound("membership not found")
	}
	return target, nil
}

func (s *CommunityService) Leave(ctx context.Context, userID, communityID uint) error {
	if err := requireViewer(userID); err != nil {
		return err
	}
	m, err := s.access.load(ctx, communityID, userID)
	if err != nil {
		return err
	}
	if m.community.CreatorID == userID {
		return apperr.Conflict("the creator cannot leave the community")
	}
	removed, err := s.communities.DeleteMembership(ctx, communityID, userID)
	if err != nil {
		return internal(err, "failed to leave community")
	}
	if !removed {
		return apperr.NotFound("membership not found")
	}
	return nil
}

// Members lists approved members to members, or pending requests to admins.
func (s *CommunityService) Members(ctx context.Context, viewerID uint, req models.CommunityMembersRequest) (pagination.Page[models.MemberView], error) {
	var empty pagination.Page[models.MemberView]
	if err := requireViewer(viewerID); err != nil {
		return empty, err
	}
	m, err := s.access.requireMember(ctx, req.CommunityID, viewerID)
	if err != nil {
		return empty, err
	}
	if req.Pending && !m.admin(viewerID) {
		return empty, apperr.Forbidden("admin role required")
	}
	cursor, err := pagination.ParseID(req.Cursor)
	if err != nil {
		return empty, err
	}
	limit := pagination.ClampLimit(req.Limit, listDefaultLimit, listMaxLimit)

	rows, err := s.communities.ListMembers(ctx, req.CommunityID, !req.Pending, cursor, limit)
	if err != nil {
		return empty, internal(err, "failed to load members")
	}
	page := pagination.Trim(rows, limit, func(cm models.CommunityMember) string { return pagination.FormatID(cm.ID) })

	ids := make([]uint, len(page.Items))
	for i, cm := range page.Items {
		ids[i] = cm.UserID
	}
	users, err := s.directory.Compacts(ctx, ids)
	if err != nil {
		return empty, internal(err, "failed to load users")
	}
	return pagination.Map(page, func(cm models.CommunityMember) models.MemberView {
		return models.MemberView{CommunityMember: cm, User: users[cm.UserID]}
	}), nil
}
