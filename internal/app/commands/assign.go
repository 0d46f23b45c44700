package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/tutur3u/discordbot/internal/app/domain"
	"github.com/tutur3u/discordbot/internal/discord"
)

// assignTargets is the outcome of resolving mentions against the task's workspace.
type assignTargets struct {
	taskID  string
	userIDs []string
	unknown int
}

func (s *Set) resolveAssignTargets(ctx context.Context, req Request) (assignTargets, error) {
	data := req.Interaction.Data
	rawTaskID, _ := data.Option("task_id")
	taskID, err := uuid.Parse(strings.TrimSpace(rawTaskID))
	if err != nil {
		return assignTargets{}, domain.Invalid("task_id", "must be a task UUID")
	}
	rawUsers, _ := data.Option("users")
	mentioned := mentionedUserIDs(rawUsers)
	if len(mentioned) == 0 {
		return assignTargets{}, domain.Invalid("users", "mention at least one user, for example @someone")
	}

	workspaceID, err := s.deps.Store.GetTaskWorkspace(ctx, taskID.String())
	if errors.Is(err, domain.ErrNotFound) || (err == nil && workspaceID != req.Auth.WorkspaceID) {
		return assignTargets{}, domain.Invalid("task_id", "task not found in your workspace")
	}
	if err != nil {
		return assignTargets{}, fmt.Errorf("get task workspace: %w", err)
	}

	resolved, err := s.deps.Store.ResolveDiscordUsers(ctx, req.Auth.GuildID, mentioned)
	if err != nil {
		return assignTargets{}, fmt.Errorf("resolve mentions: %w", err)
	}
	memberIDs, err := s.deps.Store.ListWorkspaceMemberIDs(ctx, workspaceID)
	if err != nil {
		return assignTargets{}, fmt.Errorf("list members: %w", err)
	}
	members := lo.SliceToMap(memberIDs, func(id string) (string, struct{}) { return id, struct{}{} })

	platformIDs := lo.Uniq(lo.FilterMap(mentioned, func(discordID string, _ int) (string, bool) {
		id, ok := resolved[discordID]
		return id, ok
	}))
	eligible := lo.Filter(platformIDs, func(id string, _ int) bool {
		_, ok := members[id]
		return ok
	})

	unknown := lo.CountBy(mentioned, func(discordID string) bool {
		id, ok := resolved[discordID]
		if !ok {
			return true
		}
		_, member := members[id]
		return !member
	})

	return assignTargets{taskID: taskID.String(), userIDs: eligible, unknown: unknown}, nil
}

func (s *Set) assign(ctx context.Context, req Request) (discord.Message, error) {
	targets, err := s.resolveAssignTargets(ctx, req)
	if err != nil {
		return discord.Message{}, err
	}
	if len(targets.userIDs) == 0 {
		return discord.Message{}, domain.Invalid("users", "none of the mentioned users are linked members of this workspace")
	}

	var added, skipped int
	for _, userID := range targets.userIDs {
		err := s.deps.Store.AddTaskAssignee(ctx, targets.taskID, userID)
		switch {
		case err == nil:
			added++
		case errors.Is(err, domain.ErrDuplicate):
			skipped++
		default:
			return discord.Message{}, fmt.Errorf("add assignee: %w", err)
		}
	}

	lines := []string{fmt.Sprintf("✅ Assigned %d user(s) to task `%s`.", added, targets.taskID)}
	if skipped > 0 {
		lines = append(lines, fmt.Sprintf("⏭️ Skipped %d already assigned.", skipped))
	}
	if targets.unknown > 0 {
		lines = append(lines, fmt.Sprintf("❓ %d mention(s) are not linked workspace members.", targets.unknown))
	}
	return discord.Text(strings.Join(lines, "\n")), nil
}

func (s *Set) unassign(ctx context.Context, req Request) (discord.Message, error) {
	targets, err := s.resolveAssignTargets(ctx, req)
	if err != nil {
		return discord.Message{}, err
	}
	if len(targets.userIDs) == 0 {
		return discord.Message{}, domain.Invalid("users", "none of the mentioned users are linked members of this workspace")
	}

	var removed, skipped int
	for _, userID := range targets.userIDs {
		ok, err := s.deps.Store.RemoveTaskAssignee(ctx, targets.taskID, userID)
		if err != nil {
			return discord.Message{}, fmt.Errorf("remove assignee: %w", err)
		}
		if ok {
			removed++
		} else {
			skipped++
		}
	}

	lines := []string{fmt.Sprintf("✅ Unassigned %d user(s) from task `%s`.", removed, targets.taskID)}
	if skipped > 0 {
		lines = append(lines, fmt.Sprintf("⏭️ Skipped %d not assigned.", skipped))
	}
	if targets.unknown > 0 {
		lines = append(lines, fmt.Sprintf("❓ %d mention(s) are not linked workspace members.", targets.unknown))
	}
	return discord.Text(strings.Join(lines, "\n")), nil
}
