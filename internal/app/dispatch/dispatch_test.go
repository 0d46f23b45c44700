package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/tutur3u/discordbot/internal/app/domain"
	"github.com/tutur3u/discordbot/internal/discord"
	"github.com/tutur3u/discordbot/internal/observability"
)

type recordingEditor struct {
	mu    sync.Mutex
	edits []discord.Message
	ctxs  []context.Context
	err   error
}

func (r *recordingEditor) EditOriginal(ctx context.Context, _, _ string, msg discord.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edits = append(r.edits, msg)
	r.ctxs = append(r.ctxs, ctx)
	return r.err
}

func newDispatcher(editor Editor) *Dispatcher {
	return New(editor, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var testInteraction = discord.Interaction{ID: "i-1", ApplicationID: "app", Token: "tok"}

func TestScheduleEditsExactlyOncePerOutcome(t *testing.T) {
	cases := []struct {
		name string
		task Task
		want string
	}{
		{"success", func(context.Context) (discord.Message, error) { return discord.Text("done"), nil }, "done"},
		{"validation", func(context.Context) (discord.Message, error) {
			return discord.Message{}, domain.Invalid("slug", "is taken")
		}, "❌ slug: is taken"},
		{"unauthorized", func(context.Context) (discord.Message, error) {
			return discord.Message{}, domain.ErrUnauthorized
		}, AccessDenied},
		{"internal", func(context.Context) (discord.Message, error) {
			return discord.Message{}, errors.New("pq: connection refused")
		}, GenericFailure},
		{"panic", func(context.Context) (discord.Message, error) { panic("boom") }, GenericFailure},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			editor := &recordingEditor{}
			d := newDispatcher(editor)
			d.Schedule(context.Background(), testInteraction, tc.task)
			d.Wait()

			if len(editor.edits) != 1 {
				t.Fatalf("expected exactly one edit, got %d", len(editor.edits))
			}
			if editor.edits[0].Content != tc.want {
				t.Fatalf("unexpected reply %q, want %q", editor.edits[0].Content, tc.want)
			}
		})
	}
}

func TestScheduleOutlivesRequestContext(t *testing.T) {
	editor := &recordingEditor{}
	d := newDispatcher(editor)

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	release := make(chan struct{})
	d.Schedule(ctx, testInteraction, func(taskCtx context.Context) (discord.Message, error) {
		close(started)
		<-release
		if err := taskCtx.Err(); err != nil {
			return discord.Message{}, err
		}
		return discord.Text("still running"), nil
	})

	<-started
	cancel()
	close(release)
	d.Wait()

	if len(editor.edits) != 1 || editor.edits[0].Content != "still running" {
		t.Fatalf("task should survive request cancellation, got %+v", editor.edits)
	}
	if editor.ctxs[0].Err() != nil {
		t.Fatalf("edit context must not be cancelled")
	}
}

func TestWaitDrainsConcurrentTasks(t *testing.T) {
	editor := &recordingEditor{}
	d := newDispatcher(editor)

	for i := 0; i < 20; i++ {
		d.Schedule(context.Background(), testInteraction, func(context.Context) (discord.Message, error) {
			time.Sleep(time.Millisecond)
			return discord.Text("ok"), nil
		})
	}
	d.Wait()

	if len(editor.edits) != 20 {
		t.Fatalf("expected 20 edits after Wait, got %d", len(editor.edits))
	}
}

func TestRejectSendsAccessDenied(t *testing.T) {
	editor := &recordingEditor{err: errors.New("unknown webhook")}
	d := newDispatcher(editor)
	d.Reject(context.Background(), testInteraction)
	d.Wait()

	if len(editor.edits) != 1 || editor.edits[0].Content != AccessDenied {
		t.Fatalf("unexpected edits %+v", editor.edits)
	}
}

func TestScheduleRecordsOutcomeByKind(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	d := newDispatcher(&recordingEditor{}).WithMetrics(observability.NewInteractionMetrics(provider.Meter("test")))

	ctx := observability.WithInteraction(context.Background(), "i-1", "/shorten")
	d.Schedule(ctx, testInteraction, func(context.Context) (discord.Message, error) { return discord.Text("ok"), nil })
	d.Schedule(ctx, testInteraction, func(context.Context) (discord.Message, error) {
		return discord.Message{}, domain.Invalid("url", "must be absolute")
	})
	d.Schedule(ctx, testInteraction, func(context.Context) (discord.Message, error) { panic("boom") })
	d.Wait()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	outcomes := map[string]int64{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if m.Name != "discordbot.interactions" || !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				kind, _ := dp.Attributes.Value(attribute.Key("discord.interaction.kind"))
				if kind.AsString() != "/shorten" {
					t.Fatalf("unexpected kind %q", kind.AsString())
				}
				outcome, _ := dp.Attributes.Value(attribute.Key("outcome"))
				outcomes[outcome.AsString()] = dp.Value
			}
		}
	}
	if outcomes[OutcomeOK] != 1 || outcomes[OutcomeInvalid] != 1 || outcomes[OutcomePanic] != 1 {
		t.Fatalf("unexpected outcomes %v", outcomes)
	}
}
