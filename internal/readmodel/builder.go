// Package readmodel builds the denormalized post view shared by every
// feed, detail, bookmark and search procedure.
package readmodel

import (
	"context"
	"fmt"
	"strings"

	"github.com/anonto42/mintfeed/backend/internal/pagination"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("readmodel")

// Filter restricts the items of a scan. The zero value scans every visible
// post without repost events.
type Filter struct {
	// PostIDs limits originals to the given posts.
	PostIDs []uint
	// AuthorID limits originals to one author, and repost events to those
	// made by that user.
	AuthorID uint
	// FollowedBy limits originals to authors the user follows, and repost
	// events to those made by followed users.
	FollowedBy   uint
	ReplyToID    uint
	OnlyReplies  bool
	OnlyTopLevel bool
	CommunityID  uint
	Search       string
	// IncludeReposts adds one item per repost event.
	IncludeReposts bool
	// SavedBy switches the source to the user's saves, ordered by save time.
	SavedBy uint
}

// Builder runs the post view query. The viewer is always an explicit
// argument; zero means anonymous.
type Builder struct {
	db *gorm.DB
}

func NewBuilder(db *gorm.DB) *Builder {
	return &Builder{db: db}
}

// Page runs a paginated scan. limit must already be clamped.
func (b *Builder) Page(ctx context.Context, viewerID uint, f Filter, cursor *pagination.FeedCursor, limit int) (pagination.Page[PostView], error) {
	ctx, span := tracer.Start(ctx, "readmodel.Page")
	defer span.End()
	span.SetAttributes(attribute.Int("limit", limit), attribute.Bool("reposts", f.IncludeReposts))

	views, err := b.query(ctx, viewerID, f, cursor, limit+1, true)
	if err != nil {
		span.RecordError(err)
		return pagination.Page[PostView]{}, err
	}
	return pagination.Trim(views, limit, func(v PostView) string { return v.key.Encode() }), nil
}

// Get returns the view of one post, or nil when it does not exist or is
// not visible to the viewer.
func (b *Builder) Get(ctx context.Context, viewerID, postID uint) (*PostView, error) {
	ctx, span := tracer.Start(ctx, "readmodel.Get")
	defer span.End()

	views, err := b.query(ctx, viewerID, Filter{PostIDs: []uint{postID}}, nil, 1, true)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if len(views) == 0 {
		return nil, nil
	}
	return &views[0], nil
}

func (b *Builder) query(ctx context.Context, viewerID uint, f Filter, cursor *pagination.FeedCursor, limit int, inline bool) ([]PostView, error) {
	sql, args := buildSQL(viewerID, f, cursor, limit)

	var rows []row
	if err := b.db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("post view query: %w", err)
	}

	views := make([]PostView, len(rows))
	for i, r := range rows {
		views[i] = r.view()
	}
	if inline {
		if err := b.inlineParents(ctx, viewerID, views); err != nil {
			return nil, err
		}
	}
	return views, nil
}

// inlineParents attaches a one level snapshot of each reply's parent. The
// parents are built by the same query and never carry their own parent.
func (b *Builder) inlineParents(ctx context.Context, viewerID uint, views []PostView) error {
	seen := make(map[uint]bool)
	var ids []uint
	for _, v := range views {
		if v.ReplyToID != nil && !seen[*v.ReplyToID] {
			seen[*v.ReplyToID] = true
			ids = append(ids, *v.ReplyToID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	parents, err := b.query(ctx, viewerID, Filter{PostIDs: ids}, nil, len(ids), false)
	if err != nil {
		return err
	}
	byID := make(map[uint]*PostView, len(parents))
	for i := range parents {
		byID[parents[i].ID] = &parents[i]
	}
	for i := range views {
		if views[i].ReplyToID == nil {
			continue
		}
		if p, ok := byID[*views[i].ReplyToID]; ok {
			parent := *p
			views[i].ReplyTo = &parent
		}
	}
	return nil
}

const selectColumns = `
	i.post_id AS post_id,
	i.repost_id AS repost_id,
	i.activity_at AS activity_at,
	p.content AS content,
	p.image AS image,
	p.created_at AS created_at,
	p.reply_to_id AS reply_to_id,
	p.community_id AS community_id,
	p.author_id AS author_id,
	u.username AS author_username,
	u.image AS author_image,
	u.is_verified AS author_is_verified,
	u.is_crypto_bot AS author_is_crypto_bot,
	ru.id AS reposted_by_id,
	ru.username AS reposted_by_name,
	COALESCE((SELECT COUNT(DISTINCT l.id) FROM likes l WHERE l.post_id = p.id), 0) AS likes_count,
	COALESCE((SELECT COUNT(DISTINCT s.id) FROM saves s WHERE s.post_id = p.id), 0) AS saves_count,
	COALESCE((SELECT COUNT(DISTINCT r.id) FROM reposts r WHERE r.post_id = p.id), 0) AS reposts_count,
	COALESCE((SELECT COUNT(DISTINCT c.id) FROM posts c WHERE c.reply_to_id = p.id), 0) AS replies_count,
	EXISTS (SELECT 1 FROM likes l WHERE l.post_id = p.id AND l.user_id = ?) AS is_liked,
	EXISTS (SELECT 1 FROM saves s WHERE s.post_id = p.id AND s.user_id = ?) AS is_saved,
	EXISTS (SELECT 1 FROM reposts r WHERE r.post_id = p.id AND r.user_id = ?) AS is_reposted,
	(p.author_id = ?) AS is_owner,
	n.token_id AS nft_token_id,
	n.collection_id AS nft_collection_id,
	n.owner AS nft_owner`

// visibleSQL hides community posts from everyone but the community creator
// and its approved members. It is applied to every item source.
const visibleSQL = `(p.community_id IS NULL
	OR EXISTS (SELECT 1 FROM community_members cm WHERE cm.community_id = p.community_id AND cm.user_id = ? AND cm.is_approved = ?)
	OR EXISTS (SELECT 1 FROM communities co WHERE co.id = p.community_id AND co.creator_id = ?))`

func buildSQL(viewerID uint, f Filter, cursor *pagination.FeedCursor, limit int) (string, []any) {
	var (
		sb   strings.Builder
		args []any
	)

	sb.WriteString("WITH items AS (\n")
	if f.SavedBy != 0 {
		sb.WriteString(`SELECT s.post_id AS post_id, CAST(0 AS BIGINT) AS repost_id, s.created_at AS activity_at, CAST(NULL AS BIGINT) AS reposted_by_id
	FROM saves s JOIN posts p ON p.id = s.post_id
	WHERE s.user_id = ? AND `)
		args = append(args, f.SavedBy)
		sb.WriteString(visibleSQL)
		args = append(args, viewerID, true, viewerID)
	} else {
		sb.WriteString(`SELECT p.id AS post_id, CAST(0 AS BIGINT) AS repost_id, p.created_at AS activity_at, CAST(NULL AS BIGINT) AS reposted_by_id
	FROM posts p
	WHERE `)
		sb.WriteString(visibleSQL)
		args = append(args, viewerID, true, viewerID)
		for _, c := range originalConds(f) {
			sb.WriteString(" AND ")
			sb.WriteString(c.sql)
			args = append(args, c.args...)
		}

		if f.IncludeReposts {
			sb.WriteString(`
	UNION ALL
	SELECT r.post_id AS post_id, r.id AS repost_id, r.created_at AS activity_at, r.user_id AS reposted_by_id
	FROM reposts r JOIN posts p ON p.id = r.post_id
	WHERE `)
			sb.WriteString(visibleSQL)
			args = append(args, viewerID, true, viewerID)
			for _, c := range repostConds(f) {
				sb.WriteString(" AND ")
				sb.WriteString(c.sql)
				args = append(args, c.args...)
			}
		}
	}
	sb.WriteString("\n)\nSELECT")
	sb.WriteString(selectColumns)
	args = append(args, viewerID, viewerID, viewerID, viewerID)
	sb.WriteString(`
FROM items i
JOIN posts p ON p.id = i.post_id
JOIN users u ON u.id = p.author_id
LEFT JOIN users ru ON ru.id = i.reposted_by_id
LEFT JOIN nft_mints n ON n.post_id = p.id`)

	if cursor != nil {
		sb.WriteString(`
WHERE (i.activity_at < ? OR (i.activity_at = ? AND (i.post_id < ? OR (i.post_id = ? AND i.repost_id < ?))))`)
		args = append(args, cursor.At, cursor.At, cursor.PostID, cursor.PostID, cursor.RepostID)
	}
	sb.WriteString(`
ORDER BY i.activity_at DESC, i.post_id DESC, i.repost_id DESC
LIMIT ?`)
	args = append(args, limit)

	return sb.String(), args
}

type cond struct {
	sql  string
	args []any
}

func originalConds(f Filter) []cond {
	var cs []cond
	if len(f.PostIDs) > 0 {
		cs = append(cs, cond{"p.id IN ?", []any{f.PostIDs}})
	}
	if f.AuthorID != 0 {
		cs = append(cs, cond{"p.author_id = ?", []any{f.AuthorID}})
	}
	if f.FollowedBy != 0 {
		cs = append(cs, cond{"p.author_id IN (SELECT fo.following_id FROM follows fo WHERE fo.follower_id = ?)", []any{f.FollowedBy}})
	}
	if f.ReplyToID != 0 {
		cs = append(cs, cond{"p.reply_to_id = ?", []any{f.ReplyToID}})
	}
	if f.OnlyReplies {
		cs = append(cs, cond{"p.reply_to_id IS NOT NULL", nil})
	}
	if f.OnlyTopLevel {
		cs = append(cs, cond{"p.reply_to_id IS NULL", nil})
	}
	if f.CommunityID != 0 {
		cs = append(cs, cond{"p.community_id = ?", []any{f.CommunityID}})
	}
	if f.Search != "" {
		cs = append(cs, cond{`LOWER(p.content) LIKE ? ESCAPE '\'`, []any{likePattern(f.Search)}})
	}
	return cs
}

// repostConds selects repost events. Author and follow filters apply to the
// reposting user, not the post author.
func repostConds(f Filter) []cond {
	var cs []cond
	if f.AuthorID != 0 {
		cs = append(cs, cond{"r.user_id = ?", []any{f.AuthorID}})
	}
	if f.FollowedBy != 0 {
		cs = append(cs, cond{"r.user_id IN (SELECT fo.following_id FROM follows fo WHERE fo.follower_id = ?)", []any{f.FollowedBy}})
	}
	if f.CommunityID != 0 {
		cs = append(cs, cond{"p.community_id = ?", []any{f.CommunityID}})
	}
	return cs
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(q string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
}
