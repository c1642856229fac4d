package readmodel

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/pagination"
)

type Stats struct {
	RepliesCount int64 `json:"repliesCount"`
	RepostsCount int64 `json:"repostsCount"`
	LikesCount   int64 `json:"likesCount"`
	SavesCount   int64 `json:"savesCount"`
}

// Viewer flags are scoped to the viewer the query was built for and are
// all false for anonymous reads.
type Viewer struct {
	IsLiked    bool `json:"isLiked"`
	IsSaved    bool `json:"isSaved"`
	IsReposted bool `json:"isReposted"`
	IsOwner    bool `json:"isOwner"`
}

type NFT struct {
	TokenID      uint   `json:"tokenId"`
	CollectionID uint   `json:"collectionId"`
	Owner        string `json:"owner"`
}

type RepostedBy struct {
	ID         uint      `json:"id"`
	Username   string    `json:"username"`
	RepostedAt time.Time `json:"repostedAt"`
}

// PostView is the single shape every post-returning procedure emits. A
// post appears once as itself and once per repost event.
type PostView struct {
	ID          uint               `json:"id"`
	Content     string             `json:"content"`
	Image       *string            `json:"image"`
	CreatedAt   time.Time          `json:"createdAt"`
	ReplyToID   *uint              `json:"replyToId"`
	CommunityID *uint              `json:"communityId"`
	Author      models.UserCompact `json:"author"`
	Stats       Stats              `json:"stats"`
	Viewer      Viewer             `json:"viewer"`
	ReplyTo     *PostView          `json:"replyTo"`
	NFT         *NFT               `json:"nft"`
	RepostedBy  *RepostedBy        `json:"repostedBy,omitempty"`

	key pagination.FeedCursor
}

// Cursor returns the position of this item in its scan.
func (v PostView) Cursor() pagination.FeedCursor { return v.key }

// row is the flat result of the post view query.
type row struct {
	PostID            uint
	RepostID          uint
	ActivityAt        dbTime
	Content           string
	Image             *string
	CreatedAt         dbTime
	ReplyToID         *uint
	CommunityID       *uint
	AuthorID          uint
	AuthorUsername    string
	AuthorImage       string
	AuthorIsVerified  bool
	AuthorIsCryptoBot bool
	RepostedByID      *uint
	RepostedByName    *string
	LikesCount        int64
	SavesCount        int64
	RepostsCount      int64
	RepliesCount      int64
	IsLiked           bool
	IsSaved           bool
	IsReposted        bool
	IsOwner           bool
	NftTokenID        *uint
	NftCollectionID   *uint
	NftOwner          *string
}

func (r row) view() PostView {
	v := PostView{
		ID:          r.PostID,
		Content:     r.Content,
		Image:       r.Image,
		CreatedAt:   r.CreatedAt.Time,
		ReplyToID:   r.ReplyToID,
		CommunityID: r.CommunityID,
		Author: models.UserCompact{
			ID:          r.AuthorID,
			Username:    r.AuthorUsername,
			Image:       r.AuthorImage,
			IsVerified:  r.AuthorIsVerified,
			IsCryptoBot: r.AuthorIsCryptoBot,
		},
		Stats: Stats{
			RepliesCount: r.RepliesCount,
			RepostsCount: r.RepostsCount,
			LikesCount:   r.LikesCount,
			SavesCount:   r.SavesCount,
		},
		Viewer: Viewer{
			IsLiked:    r.IsLiked,
			IsSaved:    r.IsSaved,
			IsReposted: r.IsReposted,
			IsOwner:    r.IsOwner,
		},
		key: pagination.FeedCursor{At: r.ActivityAt.Time, PostID: r.PostID, RepostID: r.RepostID},
	}
	if r.NftTokenID != nil && r.NftCollectionID != nil {
		v.NFT = &NFT{TokenID: *r.NftTokenID, CollectionID: *r.NftCollectionID}
		if r.NftOwner != nil {
			v.NFT.Owner = *r.NftOwner
		}
	}
	if r.RepostID != 0 && r.RepostedByID != nil {
		v.RepostedBy = &RepostedBy{ID: *r.RepostedByID, RepostedAt: r.ActivityAt.Time}
		if r.RepostedByName != nil {
			v.RepostedBy.Username = *r.RepostedByName
		}
	}
	return v
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// dbTime scans timestamps that lost their column type on the way through
// a UNION, which some drivers hand back as text.
type dbTime struct {
	time.Time
}

func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	}
	return fmt.Errorf("readmodel: cannot scan %T into timestamp", src)
}

func (t *dbTime) parse(s string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("readmodel: unrecognized timestamp %q", s)
}

func (t dbTime) Value() (driver.Value, error) { return t.Time, nil }
