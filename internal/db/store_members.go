package db

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/tutur3u/discordbot/internal/app/domain"
)

const resolveDiscordUsers = `-- name: ResolveDiscordUsers :many
SELECT discord_user_id, platform_user_id
FROM discord_guild_members
WHERE discord_user_id IN (%s)`

// ResolveDiscordUsers maps Discord ids to platform ids. When guildID is empty any guild's linkage counts.
func (c *Database) ResolveDiscordUsers(ctx context.Context, guildID string, discordUserIDs []string) (map[string]string, error) {
	ids := lo.Uniq(lo.Compact(discordUserIDs))
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := fmt.Sprintf(resolveDiscordUsers, placeholders(len(ids)))
	args := lo.Map(ids, func(id string, _ int) any { return id })
	if guildID != "" {
		query += " AND discord_guild_id = ?"
		args = append(args, guildID)
	}
	query += " ORDER BY created_at ASC"

	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dataErr("resolve discord users", err)
	}
	defer rows.Close()

	for rows.Next() {
		var discordID, platformID string
		if err := rows.Scan(&discordID, &platformID); err != nil {
			return nil, dataErr("scan discord user", err)
		}
		if _, seen := out[discordID]; !seen {
			out[discordID] = platformID
		}
	}
	if err := rows.Err(); err != nil {
		return nil, dataErr("resolve discord users", err)
	}
	return out, nil
}

const listWorkspaceMemberIDs = `-- name: ListWorkspaceMemberIDs :many
SELECT user_id
FROM workspace_members
WHERE ws_id = ?`

func (c *Database) ListWorkspaceMemberIDs(ctx context.Context, workspaceID string) ([]string, error) {
	rows, err := c.q.QueryContext(ctx, listWorkspaceMemberIDs, workspaceID)
	if err != nil {
		return nil, dataErr("list member ids", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, dataErr("scan member id", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, dataErr("list member ids", err)
	}
	return out, nil
}

const listWorkspaceMembers = `-- name: ListWorkspaceMembers :many
SELECT u.id, COALESCE(u.display_name, ''), COALESCE(u.handle, ''),
	COALESCE((
		SELECT MIN(g.discord_user_id)
		FROM discord_guild_members g
		WHERE g.platform_user_id = u.id AND g.ws_id = wm.ws_id
	), '')
FROM workspace_members wm
JOIN users u ON u.id = wm.user_id
WHERE wm.ws_id = ?
ORDER BY COALESCE(u.display_name, u.handle, '') ASC`

// ListWorkspaceMembers returns members with the Discord id used for mentions, if linked.
func (c *Database) ListWorkspaceMembers(ctx context.Context, workspaceID string) ([]domain.Member, error) {
	rows, err := c.q.QueryContext(ctx, listWorkspaceMembers, workspaceID)
	if err != nil {
		return nil, dataErr("list members", err)
	}
	defer rows.Close()

	out := make([]domain.Member, 0)
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.UserID, &m.DisplayName, &m.Handle, &m.DiscordUserID); err != nil {
			return nil, dataErr("scan member", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, dataErr("list members", err)
	}
	return out, nil
}
