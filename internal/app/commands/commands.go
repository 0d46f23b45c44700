// Package commands implements the slash commands and the interactive create flows.
package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/tutur3u/discordbot/internal/app/domain"
	"github.com/tutur3u/discordbot/internal/app/ports"
	"github.com/tutur3u/discordbot/internal/discord"
	"github.com/tutur3u/discordbot/internal/report"
)

// Request is one command invocation with the caller's resolved context.
// Auth is nil only for commands that set Public.
type Request struct {
	Interaction discord.Interaction
	Auth        *domain.AuthorizationContext
}

// Handler runs a command and returns the reply that replaces the deferred message.
type Handler func(ctx context.Context, req Request) (discord.Message, error)

type Command struct {
	Definition discord.ApplicationCommand
	Run        Handler
	// Public commands run without an AuthorizationContext once the gate has passed.
	Public bool
}

// Reports is the report service surface used by commands.
type Reports interface {
	Build(ctx context.Context, cfg report.Config, at time.Time) (report.Report, error)
	UserDayStats(ctx context.Context, workspaceID, userID string, at time.Time, loc *time.Location) (report.UserStats, error)
}

type Deps struct {
	Store   ports.Store
	Reports Reports
	// Stats is preferred over store aggregation for /stats when enabled.
	Stats            report.StatsFetcher
	ReportFormat     report.Format
	Location         *time.Location
	ShortenerBaseURL string
	ShortenTimeout   time.Duration
	Log              *slog.Logger
	Now              func() time.Time
	NewSlug          func() string
}

// Set is the registry of commands in registration order.
type Set struct {
	deps   Deps
	order  []Command
	byName map[string]Command
}

func New(deps Deps) *Set {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewSlug == nil {
		deps.NewSlug = randomSlug
	}
	if deps.ShortenTimeout <= 0 {
		deps.ShortenTimeout = 10 * time.Second
	}
	if deps.Location == nil {
		deps.Location = report.LoadLocation("")
	}

	s := &Set{deps: deps}
	s.order = []Command{
		{Definition: pingDefinition, Run: s.ping, Public: true},
		{Definition: helpDefinition, Run: s.help, Public: true},
		{Definition: shortenDefinition, Run: s.shorten},
		{Definition: assignDefinition, Run: s.assign},
		{Definition: unassignDefinition, Run: s.unassign},
		{Definition: createBoardDefinition, Run: s.createBoard},
		{Definition: boardsDefinition, Run: s.boards},
		{Definition: createListDefinition, Run: s.createList},
		{Definition: createTaskDefinition, Run: s.createTask},
		{Definition: statsDefinition, Run: s.stats},
		{Definition: dailyReportDefinition, Run: s.dailyReport},
	}
	s.byName = lo.KeyBy(s.order, func(c Command) string { return c.Definition.Name })
	return s
}

// Lookup finds a command by name.
func (s *Set) Lookup(name string) (Command, bool) {
	c, ok := s.byName[name]
	return c, ok
}

// Definitions returns the command definitions for registration.
func (s *Set) Definitions() []discord.ApplicationCommand {
	return lo.Map(s.order, func(c Command, _ int) discord.ApplicationCommand { return c.Definition })
}

var (
	pingDefinition = discord.ApplicationCommand{Name: "ping", Description: "Check that the bot is alive"}
	helpDefinition = discord.ApplicationCommand{Name: "help", Description: "List available commands"}

	shortenDefinition = discord.ApplicationCommand{
		Name:        "shorten",
		Description: "Create a short link",
		Options: []discord.ApplicationCommandOption{
			{Type: discord.OptionString, Name: "url", Description: "Link to shorten (http or https)", Required: true},
			{Type: discord.OptionString, Name: "slug", Description: "Custom slug, 3-32 letters, digits, _ or -"},
		},
	}
	assignDefinition = discord.ApplicationCommand{
		Name:        "assign",
		Description: "Assign workspace members to a task",
		Options: []discord.ApplicationCommandOption{
			{Type: discord.OptionString, Name: "task_id", Description: "Task UUID", Required: true},
			{Type: discord.OptionString, Name: "users", Description: "Mention one or more users", Required: true},
		},
	}
	unassignDefinition = discord.ApplicationCommand{
		Name:        "unassign",
		Description: "Remove workspace members from a task",
		Options: []discord.ApplicationCommandOption{
			{Type: discord.OptionString, Name: "task_id", Description: "Task UUID", Required: true},
			{Type: discord.OptionString, Name: "users", Description: "Mention one or more users", Required: true},
		},
	}
	createBoardDefinition = discord.ApplicationCommand{
		Name:        "create-board",
		Description: "Create a task board in your workspace",
		Options: []discord.ApplicationCommandOption{
			{Type: discord.OptionString, Name: "name", Description: "Board name", Required: true},
		},
	}
	boardsDefinition      = discord.ApplicationCommand{Name: "boards", Description: "List the boards of your workspace"}
	createListDefinition  = discord.ApplicationCommand{Name: "create-list", Description: "Add a list to one of your boards"}
	createTaskDefinition  = discord.ApplicationCommand{Name: "create-task", Description: "Create a task in one of your lists"}
	dailyReportDefinition = discord.ApplicationCommand{Name: "daily-report", Description: "Show today's time tracking report"}
	statsDefinition       = discord.ApplicationCommand{
		Name:        "stats",
		Description: "Show tracked time for you or another member",
		Options: []discord.ApplicationCommandOption{
			{Type: discord.OptionUser, Name: "user", Description: "Member to look up"},
		},
	}
)
