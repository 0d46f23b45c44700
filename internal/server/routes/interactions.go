package routes

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tutur3u/discordbot/internal/app/domain"
	"github.com/tutur3u/discordbot/internal/discord"
)

const maxPayloadBytes = 1 << 20

// SignatureVerifier checks the Ed25519 signature of an inbound request.
type SignatureVerifier interface {
	Verify(signatureHex, timestamp string, body []byte) error
}

// InteractionHandler produces the synchronous response for a decoded interaction.
type InteractionHandler interface {
	Handle(ctx context.Context, in discord.Interaction) (discord.InteractionResponse, error)
}

// InteractionRoutes registers the interactions webhook.
type InteractionRoutes struct {
	verifier SignatureVerifier
	handler  InteractionHandler
	log      *slog.Logger
}

// NewInteractionRoutes constructs interaction routes.
func NewInteractionRoutes(verifier SignatureVerifier, handler InteractionHandler, log *slog.Logger) *InteractionRoutes {
	if log == nil {
		log = slog.Default()
	}
	return &InteractionRoutes{verifier: verifier, handler: handler, log: log}
}

// RegisterRoutes registers interaction endpoints.
func (r *InteractionRoutes) RegisterRoutes(s *echo.Echo) {
	s.POST("/api", r.handleInteraction)
}

func (r *InteractionRoutes) handleInteraction(c echo.Context) error {
	req := c.Request()
	body, err := io.ReadAll(io.LimitReader(req.Body, maxPayloadBytes))
	if err != nil {
		return r.fail(c, domain.ErrBadRequest)
	}
	if err := r.verifier.Verify(req.Header.Get(discord.SignatureHeader), req.Header.Get(discord.TimestampHeader), body); err != nil {
		return r.fail(c, err)
	}

	in, err := discord.DecodeInteraction(body)
	if err != nil {
		return r.fail(c, err)
	}
	resp, err := r.handler.Handle(req.Context(), in)
	if err != nil {
		return r.fail(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (r *InteractionRoutes) fail(c echo.Context, err error) error {
	ctx := c.Request().Context()
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		r.log.WarnContext(ctx, "rejected interaction signature", "error", err)
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid request signature"})
	case errors.Is(err, domain.ErrBadRequest):
		r.log.WarnContext(ctx, "rejected interaction payload", "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
	case errors.Is(err, domain.ErrServerConfiguration):
		r.log.ErrorContext(ctx, "interaction endpoint misconfigured", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "server configuration error"})
	default:
		r.log.ErrorContext(ctx, "interaction handling failed", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
