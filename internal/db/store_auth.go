package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tutur3u/discordbot/internal/app/domain"
)

const getIntegrationByGuild = `-- name: GetIntegrationByGuild :one
SELECT id, ws_id, discord_guild_id
FROM discord_integrations
WHERE discord_guild_id = ?
LIMIT 1`

// GetIntegrationByGuild returns the active integration for a guild.
func (c *Database) GetIntegrationByGuild(ctx context.Context, guildID string) (domain.Integration, error) {
	var out domain.Integration
	err := c.q.QueryRowContext(ctx, getIntegrationByGuild, guildID).Scan(&out.ID, &out.WorkspaceID, &out.GuildID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Integration{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Integration{}, dataErr("get integration", err)
	}
	return out, nil
}

const getLinkage = `-- name: GetLinkage :one
SELECT discord_guild_id, discord_user_id, platform_user_id, ws_id
FROM discord_guild_members
WHERE discord_guild_id = ? AND discord_user_id = ?
LIMIT 1`

// GetLinkage returns the caller's linkage row inside one guild.
func (c *Database) GetLinkage(ctx context.Context, guildID, discordUserID string) (domain.Linkage, error) {
	var out domain.Linkage
	err := c.q.QueryRowContext(ctx, getLinkage, guildID, discordUserID).Scan(&out.GuildID, &out.DiscordUserID, &out.PlatformUserID, &out.WorkspaceID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Linkage{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Linkage{}, dataErr("get linkage", err)
	}
	return out, nil
}

const listLinkagesByDiscordUser = `-- name: ListLinkagesByDiscordUser :many
SELECT discord_guild_id, discord_user_id, platform_user_id, ws_id
FROM discord_guild_members
WHERE discord_user_id = ?
ORDER BY created_at ASC, discord_guild_id ASC`

// ListLinkagesByDiscordUser returns every linkage row of a Discord account, oldest first.
func (c *Database) ListLinkagesByDiscordUser(ctx context.Context, discordUserID string) ([]domain.Linkage, error) {
	rows, err := c.q.QueryContext(ctx, listLinkagesByDiscordUser, discordUserID)
	if err != nil {
		return nil, dataErr("list linkages", err)
	}
	defer rows.Close()

	out := make([]domain.Linkage, 0)
	for rows.Next() {
		var item domain.Linkage
		if err := rows.Scan(&item.GuildID, &item.DiscordUserID, &item.PlatformUserID, &item.WorkspaceID); err != nil {
			return nil, dataErr("scan linkage", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, dataErr("list linkages", err)
	}
	return out, nil
}

const isWorkspaceMember = `-- name: IsWorkspaceMember :one
SELECT COUNT(*)
FROM workspace_members
WHERE ws_id = ? AND user_id = ?`

func (c *Database) IsWorkspaceMember(ctx context.Context, workspaceID, userID string) (bool, error) {
	var count int
	if err := c.q.QueryRowContext(ctx, isWorkspaceMember, workspaceID, userID).Scan(&count); err != nil {
		return false, dataErr("check membership", err)
	}
	return count > 0, nil
}

const getUserDisplayName = `-- name: GetUserDisplayName :one
SELECT COALESCE(display_name, ''), COALESCE(handle, '')
FROM users
WHERE id = ?`

// GetUserDisplayName returns the display name, falling back to the handle.
func (c *Database) GetUserDisplayName(ctx context.Context, userID string) (string, error) {
	var displayName, handle string
	err := c.q.QueryRowContext(ctx, getUserDisplayName, userID).Scan(&displayName, &handle)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", dataErr("get user", err)
	}
	return domain.Member{DisplayName: displayName, Handle: handle}.Name(), nil
}
