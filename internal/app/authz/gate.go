// Package authz decides whether a Discord caller may use the bot and in which workspace.
package authz

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/tutur3u/discordbot/internal/app/domain"
	"github.com/tutur3u/discordbot/internal/app/ports"
)

// Gate runs linkage and integration checks against the store. Every data access failure
// denies access and is logged; nothing is cached between calls.
type Gate struct {
	store ports.AuthorizationStore
	log   *slog.Logger
}

func NewGate(store ports.AuthorizationStore, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.Default()
	}
	return &Gate{store: store, log: log}
}

// Authorize applies the origin check when guildID is set and the direct message check otherwise.
func (g *Gate) Authorize(ctx context.Context, guildID, discordUserID string) bool {
	if strings.TrimSpace(guildID) != "" {
		return g.IsAuthorizedInOriginContext(ctx, guildID, discordUserID)
	}
	return g.IsAuthorizedForDirectMessage(ctx, discordUserID)
}

// IsAuthorizedInOriginContext is true when the guild has an integration and the caller's
// linkage in that guild targets the integration's workspace.
func (g *Gate) IsAuthorizedInOriginContext(ctx context.Context, guildID, discordUserID string) bool {
	_, _, ok := g.originLinkage(ctx, guildID, discordUserID)
	return ok
}

// IsAuthorizedForDirectMessage is true when any of the caller's linkages sits in an integrated guild.
func (g *Gate) IsAuthorizedForDirectMessage(ctx context.Context, discordUserID string) bool {
	if strings.TrimSpace(discordUserID) == "" {
		return false
	}
	linkages, err := g.store.ListLinkagesByDiscordUser(ctx, discordUserID)
	if err != nil {
		g.denied(ctx, "list linkages", err, "", discordUserID)
		return false
	}
	for _, linkage := range linkages {
		if _, err := g.store.GetIntegrationByGuild(ctx, linkage.GuildID); err == nil {
			return true
		} else if !errors.Is(err, domain.ErrNotFound) {
			g.denied(ctx, "get integration", err, linkage.GuildID, discordUserID)
			return false
		}
	}
	return false
}

// Resolve returns the caller's AuthorizationContext or nil when no workspace qualifies.
// The caller must be linked and a member of the workspace. In a guild it is the integration's
// workspace. In a direct message it is the first linked workspace that lists the caller as a member.
func (g *Gate) Resolve(ctx context.Context, guildID, discordUserID string) *domain.AuthorizationContext {
	if strings.TrimSpace(guildID) != "" {
		integration, linkage, ok := g.originLinkage(ctx, guildID, discordUserID)
		if !ok {
			return nil
		}
		member, err := g.store.IsWorkspaceMember(ctx, integration.WorkspaceID, linkage.PlatformUserID)
		if err != nil {
			g.denied(ctx, "check membership", err, guildID, discordUserID)
			return nil
		}
		if !member {
			g.log.InfoContext(ctx, "linked user is not a workspace member", "guild_id", guildID, "discord_user_id", discordUserID)
			return nil
		}
		return g.contextFor(ctx, integration.WorkspaceID, linkage, guildID)
	}

	if strings.TrimSpace(discordUserID) == "" {
		return nil
	}
	linkages, err := g.store.ListLinkagesByDiscordUser(ctx, discordUserID)
	if err != nil {
		g.denied(ctx, "list linkages", err, "", discordUserID)
		return nil
	}
	for _, linkage := range linkages {
		integration, err := g.store.GetIntegrationByGuild(ctx, linkage.GuildID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			g.denied(ctx, "get integration", err, linkage.GuildID, discordUserID)
			return nil
		}
		member, err := g.store.IsWorkspaceMember(ctx, integration.WorkspaceID, linkage.PlatformUserID)
		if err != nil {
			g.denied(ctx, "check membership", err, linkage.GuildID, discordUserID)
			return nil
		}
		if member {
			return g.contextFor(ctx, integration.WorkspaceID, linkage, "")
		}
	}
	return nil
}

func (g *Gate) originLinkage(ctx context.Context, guildID, discordUserID string) (domain.Integration, domain.Linkage, bool) {
	if strings.TrimSpace(guildID) == "" || strings.TrimSpace(discordUserID) == "" {
		return domain.Integration{}, domain.Linkage{}, false
	}
	integration, err := g.store.GetIntegrationByGuild(ctx, guildID)
	if err != nil {
		g.denied(ctx, "get integration", err, guildID, discordUserID)
		return domain.Integration{}, domain.Linkage{}, false
	}
	linkage, err := g.store.GetLinkage(ctx, guildID, discordUserID)
	if err != nil {
		g.denied(ctx, "get linkage", err, guildID, discordUserID)
		return domain.Integration{}, domain.Linkage{}, false
	}
	if linkage.WorkspaceID != integration.WorkspaceID {
		g.log.InfoContext(ctx, "linkage targets another workspace", "guild_id", guildID, "discord_user_id", discordUserID)
		return domain.Integration{}, domain.Linkage{}, false
	}
	return integration, linkage, true
}

func (g *Gate) contextFor(ctx context.Context, workspaceID string, linkage domain.Linkage, guildID string) *domain.AuthorizationContext {
	name, err := g.store.GetUserDisplayName(ctx, linkage.PlatformUserID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		g.log.WarnContext(ctx, "display name lookup failed", "user_id", linkage.PlatformUserID, "error", err)
	}
	return &domain.AuthorizationContext{
		WorkspaceID:    workspaceID,
		PlatformUserID: linkage.PlatformUserID,
		DisplayName:    name,
		GuildID:        guildID,
		DiscordUserID:  linkage.DiscordUserID,
	}
}

// denied logs a failed lookup. Missing rows are routine and logged at debug.
func (g *Gate) denied(ctx context.Context, op string, err error, guildID, discordUserID string) {
	if errors.Is(err, domain.ErrNotFound) {
		g.log.DebugContext(ctx, "authorization lookup found nothing", "op", op, "guild_id", guildID, "discord_user_id", discordUserID)
		return
	}
	g.log.ErrorContext(ctx, "authorization lookup failed", "op", op, "guild_id", guildID, "discord_user_id", discordUserID, "error", err)
}
