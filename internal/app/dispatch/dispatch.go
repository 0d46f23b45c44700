// Package dispatch runs interaction work after the synchronous acknowledgement
// and delivers exactly one edit of the deferred reply per scheduled task.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/tutur3u/discordbot/internal/app/domain"
	"github.com/tutur3u/discordbot/internal/discord"
	"github.com/tutur3u/discordbot/internal/observability"
)

const (
	// AccessDenied is the fixed reply for callers without a qualifying workspace.
	AccessDenied = "🔒 Access denied. Link your Discord account to a workspace with the Discord integration enabled."
	// GenericFailure replaces internal errors so raw error text never reaches users.
	GenericFailure = "⚠️ Something went wrong while handling this request. Please try again later."
)

// Editor replaces the content of a deferred reply.
type Editor interface {
	EditOriginal(ctx context.Context, applicationID, token string, msg discord.Message) error
}

// Outcomes recorded per scheduled task.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeDenied  = "denied"
	OutcomeFailed  = "failed"
	OutcomePanic   = "panic"
)

// Task produces the final reply for one interaction.
type Task func(ctx context.Context) (discord.Message, error)

type Dispatcher struct {
	editor  Editor
	log     *slog.Logger
	metrics *observability.InteractionMetrics
	wg      conc.WaitGroup
}

func New(editor Editor, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{editor: editor, log: log, metrics: observability.NewInteractionMetrics(nil)}
}

// WithMetrics replaces the recorder built on the global meter provider.
func (d *Dispatcher) WithMetrics(metrics *observability.InteractionMetrics) *Dispatcher {
	d.metrics = metrics
	return d
}

// Schedule runs task in the background, detached from ctx cancellation but keeping its values.
// Whatever the task returns, including a panic, ends in exactly one EditOriginal call.
func (d *Dispatcher) Schedule(ctx context.Context, in discord.Interaction, task Task) {
	ctx = context.WithoutCancel(ctx)
	d.wg.Go(func() {
		started := time.Now()
		msg, outcome := d.run(ctx, in, task)
		_, kind := observability.InteractionFromContext(ctx)
		d.metrics.Record(ctx, kind, outcome, time.Since(started))
		if err := d.editor.EditOriginal(ctx, in.ApplicationID, in.Token, msg); err != nil {
			d.log.ErrorContext(ctx, "failed to edit deferred reply",
				"interaction_id", in.ID,
				"kind", discord.KindOf(err),
				"error", err,
			)
		}
	})
}

// Reject schedules the access denied edit without running any handler.
func (d *Dispatcher) Reject(ctx context.Context, in discord.Interaction) {
	d.Schedule(ctx, in, func(context.Context) (discord.Message, error) {
		return discord.Message{}, domain.ErrUnauthorized
	})
}

// Wait blocks until every scheduled task has delivered its edit.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context, in discord.Interaction, task Task) (msg discord.Message, outcome string) {
	defer func() {
		if r := recover(); r != nil {
			d.log.ErrorContext(ctx, "interaction task panicked",
				"interaction_id", in.ID,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			msg, outcome = discord.Text(GenericFailure), OutcomePanic
		}
	}()

	msg, err := task(ctx)
	if err == nil {
		return msg, OutcomeOK
	}
	return d.failureReply(ctx, in, err)
}

func (d *Dispatcher) failureReply(ctx context.Context, in discord.Interaction, err error) (discord.Message, string) {
	if verr, ok := domain.AsValidation(err); ok {
		return discord.Text("❌ " + verr.Error()), OutcomeInvalid
	}
	if errors.Is(err, domain.ErrUnauthorized) {
		return discord.Text(AccessDenied), OutcomeDenied
	}
	d.log.ErrorContext(ctx, "interaction task failed",
		"interaction_id", in.ID,
		"command", in.Data.Name,
		"custom_id", in.Data.CustomID,
		"error", err,
	)
	return discord.Text(GenericFailure), OutcomeFailed
}
