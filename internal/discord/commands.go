package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/samber/lo"
)

// OptionType is the value type of a command option.
type OptionType int

const (
	OptionString  OptionType = 3
	OptionInteger OptionType = 4
	OptionBoolean OptionType = 5
	OptionUser    OptionType = 6
)

// ApplicationCommand is a slash command definition, local or remote.
type ApplicationCommand struct {
	ID          string                     `json:"id,omitempty"`
	Type        int                        `json:"type,omitempty"`
	Name        string                     `json:"name"`
	Description string                     `json:"description"`
	Options     []ApplicationCommandOption `json:"options,omitempty"`
}

type ApplicationCommandOption struct {
	Type        OptionType     `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Required    bool           `json:"required,omitempty"`
	Choices     []OptionChoice `json:"choices,omitempty"`
}

type OptionChoice struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// CommandAPI is the subset of Client used for registration.
type CommandAPI interface {
	ListCommands(ctx context.Context) ([]ApplicationCommand, error)
	CreateCommand(ctx context.Context, cmd ApplicationCommand) (ApplicationCommand, error)
	UpdateCommand(ctx context.Context, id string, cmd ApplicationCommand) error
	DeleteCommand(ctx context.Context, id string) error
}

// ReconcileSummary lists command names by what happened to them.
type ReconcileSummary struct {
	Created   []string
	Updated   []string
	Deleted   []string
	Unchanged []string
}

// Reconcile makes the remote command set match local. Missing commands are always created;
// changed and stale ones are only patched or deleted when force is set.
// A rejected bot token is returned as an error wrapping ErrInvalidToken.
func Reconcile(ctx context.Context, api CommandAPI, log *slog.Logger, local []ApplicationCommand, force bool) (ReconcileSummary, error) {
	remote, err := api.ListCommands(ctx)
	if err != nil {
		return ReconcileSummary{}, fmt.Errorf("list remote commands: %w", err)
	}
	remoteByName := lo.KeyBy(remote, func(cmd ApplicationCommand) string { return cmd.Name })
	localNames := lo.SliceToMap(local, func(cmd ApplicationCommand) (string, struct{}) { return cmd.Name, struct{}{} })

	var summary ReconcileSummary
	for _, cmd := range local {
		existing, ok := remoteByName[cmd.Name]
		switch {
		case !ok:
			if _, err := api.CreateCommand(ctx, cmd); err != nil {
				return summary, fmt.Errorf("create command %s: %w", cmd.Name, err)
			}
			log.Info("registered command", "name", cmd.Name)
			summary.Created = append(summary.Created, cmd.Name)
		case sameDefinition(existing, cmd):
			summary.Unchanged = append(summary.Unchanged, cmd.Name)
		case force:
			if err := api.UpdateCommand(ctx, existing.ID, cmd); err != nil {
				return summary, fmt.Errorf("update command %s: %w", cmd.Name, err)
			}
			log.Info("updated command", "name", cmd.Name)
			summary.Updated = append(summary.Updated, cmd.Name)
		default:
			log.Warn("command differs from remote definition, rerun with --force to update", "name", cmd.Name)
			summary.Unchanged = append(summary.Unchanged, cmd.Name)
		}
	}

	if force {
		stale := lo.Filter(remote, func(cmd ApplicationCommand, _ int) bool {
			_, ok := localNames[cmd.Name]
			return !ok
		})
		for _, cmd := range stale {
			if err := api.DeleteCommand(ctx, cmd.ID); err != nil {
				return summary, fmt.Errorf("delete command %s: %w", cmd.Name, err)
			}
			log.Info("deleted command", "name", cmd.Name)
			summary.Deleted = append(summary.Deleted, cmd.Name)
		}
	}

	sort.Strings(summary.Created)
	sort.Strings(summary.Updated)
	sort.Strings(summary.Deleted)
	sort.Strings(summary.Unchanged)
	return summary, nil
}

func sameDefinition(remote, local ApplicationCommand) bool {
	if remote.Description != local.Description {
		return false
	}
	return optionsFingerprint(remote.Options) == optionsFingerprint(local.Options)
}

func optionsFingerprint(options []ApplicationCommandOption) string {
	if len(options) == 0 {
		return "[]"
	}
	payload, err := json.Marshal(options)
	if err != nil {
		return ""
	}
	return string(payload)
}
