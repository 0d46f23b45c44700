package observability

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestTraceAwareHandlerAddsRequestAndInteractionFields(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(WrapSlogHandler(slog.NewTextHandler(&buf, nil)))

	ctx := WithRequestMetadata(context.Background(), "req-1", "/api")
	ctx = WithIdentity(ctx, "user-1", "ws-1")
	ctx = WithInteraction(ctx, "i-1", "/boards")
	log.InfoContext(ctx, "handled interaction")

	out := buf.String()
	for _, want := range []string{"request_id=req-1", "route=/api", "workspace_id=ws-1", "platform_user_id=user-1", "interaction_id=i-1", "interaction=/boards"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in log line %q", want, out)
		}
	}
}

func TestWrapSlogHandlerToleratesNil(t *testing.T) {
	log := slog.New(WrapSlogHandler(nil))
	log.Info("dropped")
}
