package observability

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const dbTracerName = "discordbot/db"

type contextKey string

const (
	userIDContextKey      contextKey = "observability.user_id"
	workspaceIDContextKey contextKey = "observability.workspace_id"
	requestIDKey          contextKey = "observability.request_id"
	routeKey              contextKey = "observability.route"
	interactionIDKey      contextKey = "observability.interaction_id"
	interactionKindKey    contextKey = "observability.interaction_kind"
)

// Span is the application-level tracing span contract.
type Span interface {
	End()
	RecordError(error)
}

type otelSpan struct {
	inner trace.Span
}

// StartDBSpan starts a database tracing span for one query operation.
func StartDBSpan(ctx context.Context, system, queryName, operation string) (context.Context, Span) {
	queryName = strings.TrimSpace(queryName)
	if queryName == "" {
		queryName = "unknown"
	}
	attrs := []attribute.KeyValue{
		attribute.String("db.system.name", strings.TrimSpace(system)),
		attribute.String("db.query_name", queryName),
		attribute.String("db.operation", strings.TrimSpace(operation)),
	}
	if userID, ok := UserIDFromContext(ctx); ok {
		attrs = append(attrs, attribute.String("enduser.id", userID))
	}
	if workspaceID, ok := WorkspaceIDFromContext(ctx); ok {
		attrs = append(attrs, attribute.String("workspace.id", workspaceID))
	}

	ctx, span := otel.Tracer(dbTracerName).Start(ctx, "db."+queryName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)

	return ctx, otelSpan{inner: span}
}

// WithIdentity enriches context and current span with the acting platform user and workspace.
func WithIdentity(ctx context.Context, userID, workspaceID string) context.Context {
	userID = strings.TrimSpace(userID)
	workspaceID = strings.TrimSpace(workspaceID)
	if userID != "" {
		ctx = context.WithValue(ctx, userIDContextKey, userID)
	}
	if workspaceID != "" {
		ctx = context.WithValue(ctx, workspaceIDContextKey, workspaceID)
	}
	setSpanIdentityAttributes(ctx, userID, workspaceID)
	return ctx
}

// WithRequestMetadata enriches context and current span with request metadata.
func WithRequestMetadata(ctx context.Context, requestID, route string) context.Context {
	requestID = strings.TrimSpace(requestID)
	route = strings.TrimSpace(route)
	if requestID != "" {
		ctx = context.WithValue(ctx, requestIDKey, requestID)
	}
	if route != "" {
		ctx = context.WithValue(ctx, routeKey, route)
	}
	setSpanRequestAttributes(ctx, requestID, route)
	return ctx
}

// WithInteraction tags context and current span with the interaction being handled.
// kind is the command ("/boards") or flow step ("task_form").
func WithInteraction(ctx context.Context, interactionID, kind string) context.Context {
	interactionID = strings.TrimSpace(interactionID)
	kind = strings.TrimSpace(kind)
	attrs := make([]attribute.KeyValue, 0, 2)
	if interactionID != "" {
		ctx = context.WithValue(ctx, interactionIDKey, interactionID)
		attrs = append(attrs, attribute.String("discord.interaction.id", interactionID))
	}
	if kind != "" {
		ctx = context.WithValue(ctx, interactionKindKey, kind)
		attrs = append(attrs, attribute.String("discord.interaction.kind", kind))
	}
	if span := trace.SpanFromContext(ctx); span != nil && len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	return ctx
}

// InteractionFromContext returns the interaction id and kind set by WithInteraction.
func InteractionFromContext(ctx context.Context) (id, kind string) {
	id, _ = ctx.Value(interactionIDKey).(string)
	kind, _ = ctx.Value(interactionKindKey).(string)
	return id, kind
}

// UserIDFromContext extracts the acting platform user id.
func UserIDFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(userIDContextKey).(string)
	return value, ok && value != ""
}

// WorkspaceIDFromContext extracts the active workspace id.
func WorkspaceIDFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(workspaceIDContextKey).(string)
	return value, ok && value != ""
}

// RequestIDFromContext extracts request id.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(requestIDKey).(string)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

// RouteFromContext extracts normalized route path.
func RouteFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(routeKey).(string)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

func setSpanIdentityAttributes(ctx context.Context, userID, workspaceID string) {
	span := trace.SpanFromContext(ctx)
	if span == nil {
		return
	}
	attrs := make([]attribute.KeyValue, 0, 2)
	if userID != "" {
		attrs = append(attrs, attribute.String("enduser.id", userID))
	}
	if workspaceID != "" {
		attrs = append(attrs, attribute.String("workspace.id", workspaceID))
	}
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
}

func setSpanRequestAttributes(ctx context.Context, requestID, route string) {
	span := trace.SpanFromContext(ctx)
	if span == nil {
		return
	}
	attrs := make([]attribute.KeyValue, 0, 2)
	if requestID != "" {
		attrs = append(attrs, attribute.String("request.id", requestID))
	}
	if route != "" {
		attrs = append(attrs, attribute.String("http.route", route))
	}
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
}

func (s otelSpan) End() {
	if s.inner == nil {
		return
	}
	s.inner.End()
}

func (s otelSpan) RecordError(err error) {
	if s.inner == nil || err == nil {
		return
	}
	s.inner.RecordError(err)
	s.inner.SetStatus(codes.Error, err.Error())
}
