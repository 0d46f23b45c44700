package domain

import "time"

// AuthorizationContext identifies who is acting and in which workspace.
// It is computed per interaction and never cached.
type AuthorizationContext struct {
	WorkspaceID    string
	PlatformUserID string
	DisplayName    string
	GuildID        string
	DiscordUserID  string
}

// Integration is an active guild to workspace binding.
type Integration struct {
	ID          string
	WorkspaceID string
	GuildID     string
}

// Linkage associates a Discord account in a guild with a platform account.
type Linkage struct {
	GuildID        string
	DiscordUserID  string
	PlatformUserID string
	WorkspaceID    string
}

// Member is a workspace member with an optional Discord identity for mentions.
type Member struct {
	UserID        string
	DisplayName   string
	Handle        string
	DiscordUserID string
}

// Name returns the best human label for the member.
func (m Member) Name() string {
	switch {
	case m.DisplayName != "":
		return m.DisplayName
	case m.Handle != "":
		return m.Handle
	default:
		return "User"
	}
}

type Board struct {
	ID          string
	WorkspaceID string
	Name        string
	CreatorID   string
	ListCount   int
}

type TaskList struct {
	ID        string
	BoardID   string
	Name      string
	CreatorID string
}

type Task struct {
	ID          string
	ListID      string
	Name        string
	Description string
	Priority    Priority
	EndDate     *time.Time
	CreatorID   string
}

type ShortLink struct {
	ID          string
	Link        string
	Slug        string
	CreatorID   string
	WorkspaceID string
}

// Session is one tracked time entry.
type Session struct {
	UserID          string
	StartTime       time.Time
	EndTime         *time.Time
	DurationSeconds *int64
	Running         bool
}
