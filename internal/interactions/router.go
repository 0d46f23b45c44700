// Package interactions classifies inbound interactions and routes them to
// command handlers and flow steps.
package interactions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tutur3u/discordbot/internal/app/commands"
	"github.com/tutur3u/discordbot/internal/app/dispatch"
	"github.com/tutur3u/discordbot/internal/app/domain"
	"github.com/tutur3u/discordbot/internal/customid"
	"github.com/tutur3u/discordbot/internal/discord"
	"github.com/tutur3u/discordbot/internal/observability"
)

// Authorizer is the authorization gate.
type Authorizer interface {
	Authorize(ctx context.Context, guildID, discordUserID string) bool
	Resolve(ctx context.Context, guildID, discordUserID string) *domain.AuthorizationContext
}

// Scheduler runs work after the synchronous acknowledgement.
type Scheduler interface {
	Schedule(ctx context.Context, in discord.Interaction, task dispatch.Task)
	Reject(ctx context.Context, in discord.Interaction)
}

// Commands is the command registry plus the interactive flow steps.
type Commands interface {
	Lookup(name string) (commands.Command, bool)
	TaskBoardSelected(ctx context.Context, req commands.Request, boardID string) (discord.Message, error)
	SubmitTask(ctx context.Context, req commands.Request, boardID, listID string) (discord.Message, error)
	SubmitList(ctx context.Context, req commands.Request, boardID string) (discord.Message, error)
}

type Router struct {
	auth      Authorizer
	scheduler Scheduler
	commands  Commands
	log       *slog.Logger
}

func NewRouter(auth Authorizer, scheduler Scheduler, cmds Commands, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{auth: auth, scheduler: scheduler, commands: cmds, log: log}
}

// Handle returns the synchronous response for in. Errors wrap domain.ErrBadRequest.
func (r *Router) Handle(ctx context.Context, in discord.Interaction) (discord.InteractionResponse, error) {
	if in.Type == discord.InteractionPing {
		return discord.Pong(), nil
	}
	ctx = observability.WithInteraction(ctx, in.ID, describe(in))

	switch in.Type {
	case discord.InteractionApplicationCommand:
		return r.handleCommand(ctx, in), nil
	case discord.InteractionMessageComponent:
		return r.handleComponent(ctx, in)
	case discord.InteractionModalSubmit:
		return r.handleModalSubmit(ctx, in)
	default:
		return discord.InteractionResponse{}, fmt.Errorf("%w: unsupported interaction type %d", domain.ErrBadRequest, in.Type)
	}
}

func (r *Router) handleCommand(ctx context.Context, in discord.Interaction) discord.InteractionResponse {
	if !r.auth.Authorize(ctx, in.GuildID, in.CallerID()) {
		r.log.InfoContext(ctx, "rejected unauthorized command", "command", in.Data.Name, "guild_id", in.GuildID, "discord_user_id", in.CallerID())
		r.scheduler.Reject(ctx, in)
		return discord.DeferredMessage()
	}

	cmd, ok := r.commands.Lookup(in.Data.Name)
	if !ok {
		r.scheduler.Schedule(ctx, in, func(context.Context) (discord.Message, error) {
			return discord.Text(fmt.Sprintf("❓ Unknown command `/%s`. Try `/help`.", in.Data.Name)), nil
		})
		return discord.DeferredMessage()
	}

	if cmd.Public {
		r.scheduler.Schedule(ctx, in, func(ctx context.Context) (discord.Message, error) {
			return cmd.Run(ctx, commands.Request{Interaction: in})
		})
		return discord.DeferredMessage()
	}
	r.scheduler.Schedule(ctx, in, r.withAuthorization(in, cmd.Run))
	return discord.DeferredMessage()
}

func (r *Router) handleComponent(ctx context.Context, in discord.Interaction) (discord.InteractionResponse, error) {
	id, err := customid.Parse(in.Data.CustomID)
	if err != nil {
		return discord.InteractionResponse{}, fmt.Errorf("%w: %v", domain.ErrBadRequest, err)
	}
	selected := in.Data.SelectedValue()
	if selected == "" {
		return discord.InteractionResponse{}, fmt.Errorf("%w: no value selected for %s", domain.ErrBadRequest, id.Kind)
	}

	if !r.auth.Authorize(ctx, in.GuildID, in.CallerID()) {
		return discord.EphemeralMessage(dispatch.AccessDenied), nil
	}

	var resp discord.InteractionResponse
	switch id.Kind {
	case customid.TaskBoard:
		r.scheduler.Schedule(ctx, in, r.withAuthorization(in, func(ctx context.Context, req commands.Request) (discord.Message, error) {
			return r.commands.TaskBoardSelected(ctx, req, selected)
		}))
		return discord.DeferredUpdate(), nil
	case customid.TaskList:
		resp, err = commands.TaskModal(id.Arg(0), selected)
	case customid.ListBoard:
		resp, err = commands.ListModal(selected)
	default:
		return discord.InteractionResponse{}, fmt.Errorf("%w: %s is not a component step", domain.ErrBadRequest, id.Kind)
	}
	if err != nil {
		return discord.InteractionResponse{}, fmt.Errorf("%w: %v", domain.ErrBadRequest, err)
	}
	return resp, nil
}

func (r *Router) handleModalSubmit(ctx context.Context, in discord.Interaction) (discord.InteractionResponse, error) {
	id, err := customid.Parse(in.Data.CustomID)
	if err != nil {
		return discord.InteractionResponse{}, fmt.Errorf("%w: %v", domain.ErrBadRequest, err)
	}

	var run commands.Handler
	switch id.Kind {
	case customid.TaskForm:
		boardID, listID := id.Arg(0), id.Arg(1)
		run = func(ctx context.Context, req commands.Request) (discord.Message, error) {
			return r.commands.SubmitTask(ctx, req, boardID, listID)
		}
	case customid.ListForm:
		boardID := id.Arg(0)
		run = func(ctx context.Context, req commands.Request) (discord.Message, error) {
			return r.commands.SubmitList(ctx, req, boardID)
		}
	default:
		return discord.InteractionResponse{}, fmt.Errorf("%w: %s is not a form", domain.ErrBadRequest, id.Kind)
	}

	r.scheduler.Schedule(ctx, in, func(ctx context.Context) (discord.Message, error) {
		if !r.auth.Authorize(ctx, in.GuildID, in.CallerID()) {
			return discord.Message{}, domain.ErrUnauthorized
		}
		return r.withAuthorization(in, run)(ctx)
	})
	return discord.DeferredMessage(), nil
}

// withAuthorization resolves the caller's context inside the scheduled task and runs handler with it.
func (r *Router) withAuthorization(in discord.Interaction, handler commands.Handler) dispatch.Task {
	return func(ctx context.Context) (discord.Message, error) {
		authCtx := r.auth.Resolve(ctx, in.GuildID, in.CallerID())
		if authCtx == nil {
			return discord.Message{}, domain.ErrUnauthorized
		}
		if authCtx.DisplayName == "" {
			authCtx.DisplayName = in.CallerName()
		}
		ctx = observability.WithIdentity(ctx, authCtx.PlatformUserID, authCtx.WorkspaceID)
		msg, err := handler(ctx, commands.Request{Interaction: in, Auth: authCtx})
		if err != nil {
			return discord.Message{}, fmt.Errorf("%s: %w", describe(in), err)
		}
		return msg, nil
	}
}

func describe(in discord.Interaction) string {
	if in.Data.Name != "" {
		return "/" + in.Data.Name
	}
	if id, err := customid.Parse(in.Data.CustomID); err == nil {
		return string(id.Kind)
	}
	return "interaction"
}
