package db

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tutur3u/discordbot/internal/app/domain"
)

const createShortLink = `-- name: CreateShortLink :exec
INSERT INTO shortened_links (id, link, slug, creator_id, ws_id, created_at)
VALUES (?, ?, ?, ?, ?, ?)`

// CreateShortLink inserts a link. A taken slug returns domain.ErrDuplicate.
func (c *Database) CreateShortLink(ctx context.Context, link domain.ShortLink) (domain.ShortLink, error) {
	link.Link = strings.TrimSpace(link.Link)
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	_, err := c.q.ExecContext(ctx, createShortLink,
		link.ID, link.Link, link.Slug, nullString(link.CreatorID), nullString(link.WorkspaceID), formatTime(time.Now()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ShortLink{}, domain.ErrDuplicate
		}
		return domain.ShortLink{}, dataErr("create short link", err)
	}
	return link, nil
}
