package ports

import (
	"context"
	"time"

	"github.com/tutur3u/discordbot/internal/app/domain"
)

// AuthorizationStore answers the linkage and integration lookups behind the authorization gate.
// Lookups of a single row return domain.ErrNotFound when nothing matches.
type AuthorizationStore interface {
	GetIntegrationByGuild(ctx context.Context, guildID string) (domain.Integration, error)
	GetLinkage(ctx context.Context, guildID, discordUserID string) (domain.Linkage, error)
	ListLinkagesByDiscordUser(ctx context.Context, discordUserID string) ([]domain.Linkage, error)
	IsWorkspaceMember(ctx context.Context, workspaceID, userID string) (bool, error)
	GetUserDisplayName(ctx context.Context, userID string) (string, error)
}

// MemberStore resolves Discord identities to workspace members.
type MemberStore interface {
	// ResolveDiscordUsers maps Discord user ids to platform user ids. An empty guildID searches every guild.
	ResolveDiscordUsers(ctx context.Context, guildID string, discordUserIDs []string) (map[string]string, error)
	ListWorkspaceMemberIDs(ctx context.Context, workspaceID string) ([]string, error)
	ListWorkspaceMembers(ctx context.Context, workspaceID string) ([]domain.Member, error)
}

// BoardStore manages boards and their task lists.
type BoardStore interface {
	ListBoards(ctx context.Context, workspaceID string) ([]domain.Board, error)
	GetBoard(ctx context.Context, boardID string) (domain.Board, error)
	CreateBoard(ctx context.Context, board domain.Board) (domain.Board, error)
	ListTaskLists(ctx context.Context, boardID string) ([]domain.TaskList, error)
	GetTaskList(ctx context.Context, listID string) (domain.TaskList, error)
	CreateTaskList(ctx context.Context, list domain.TaskList) (domain.TaskList, error)
}

// TaskStore manages tasks and assignees.
type TaskStore interface {
	CreateTask(ctx context.Context, task domain.Task) (domain.Task, error)
	GetTaskWorkspace(ctx context.Context, taskID string) (string, error)
	// AddTaskAssignee returns domain.ErrDuplicate when the user is already assigned.
	AddTaskAssignee(ctx context.Context, taskID, userID string) error
	RemoveTaskAssignee(ctx context.Context, taskID, userID string) (bool, error)
}

// LinkStore persists shortened links. CreateShortLink returns domain.ErrDuplicate on slug collision.
type LinkStore interface {
	CreateShortLink(ctx context.Context, link domain.ShortLink) (domain.ShortLink, error)
}

// SessionStore reads tracked time sessions.
type SessionStore interface {
	ListSessions(ctx context.Context, workspaceID string, since, until time.Time) ([]domain.Session, error)
}

// Store is everything the bot needs from the relational store.
type Store interface {
	AuthorizationStore
	MemberStore
	BoardStore
	TaskStore
	LinkStore
	SessionStore
}
