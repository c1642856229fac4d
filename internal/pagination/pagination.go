// Package pagination implements the limit+1 cursor convention shared by
// every list procedure.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/anonto42/mintfeed/backend/internal/apperr"
	"gorm.io/gorm"
)

// Page is the wire shape of every paginated result.
type Page[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"nextCursor,omitempty"`
}

// ClampLimit bounds a client supplied page size. Zero or negative values
// fall back to def.
func ClampLimit(requested, def, max int) int {
	if requested <= 0 {
		return def
	}
	if requested > max {
		return max
	}
	return requested
}

// Trim takes rows fetched with limit+1 and returns the page. When the extra
// row is present it is dropped and the key of the last kept row becomes the
// next cursor.
func Trim[T any](rows []T, limit int, key func(T) string) Page[T] {
	if rows == nil {
		rows = []T{}
	}
	if len(rows) <= limit {
		return Page[T]{Items: rows}
	}
	rows = rows[:limit]
	next := key(rows[len(rows)-1])
	return Page[T]{Items: rows, NextCursor: &next}
}

// Map converts the items of a page, keeping the cursor.
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, len(p.Items))
	for i, it := range p.Items {
		out[i] = fn(it)
	}
	return Page[U]{Items: out, NextCursor: p.NextCursor}
}

// ParseID decodes a numeric id cursor. Empty means first page.
func ParseID(cursor string) (uint, error) {
	if cursor == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(cursor, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid cursor")
	}
	return uint(id), nil
}

func FormatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// FeedCursor positions a read-model scan. Items are ordered by
// (At, PostID, RepostID) descending, which is unique per item even when
// several items share a timestamp.
type FeedCursor struct {
	At       time.Time
	PostID   uint
	RepostID uint
}

func (c FeedCursor) Encode() string {
	raw := fmt.Sprintf("%d:%d:%d", c.At.UnixNano(), c.PostID, c.RepostID)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// ParseFeed decodes an opaque feed cursor. Empty means first page.
func ParseFeed(cursor string) (*FeedCursor, error) {
	if cursor == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, apperr.Validation("invalid cursor")
	}
	parts := strings.Split(string(raw), ":")
	if len(parts) != 3 {
		return nil, apperr.Validation("invalid cursor")
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, apperr.Validation("invalid cursor")
	}
	postID, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return nil, apperr.Validation("invalid cursor")
	}
	repostID, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return nil, apperr.Validation("invalid cursor")
	}
	return &FeedCursor{
		At:       time.Unix(0, nanos).UTC(),
		PostID:   uint(postID),
		RepostID: uint(repostID),
	}, nil
}

// IDScope applies the descending id window: column < cursor when a cursor
// is present, newest first, limit+1 rows.
func IDScope(column string, cursor uint, limit int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if cursor != 0 {
			db = db.Where(column+" < ?", cursor)
		}
		return db.Order(column + " DESC").Limit(limit + 1)
	}
}
