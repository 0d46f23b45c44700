package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultAPIBaseURL is the versioned REST root.
const DefaultAPIBaseURL = "https://discord.com/api/v10"

const maxResponseBytes = 1 << 20

// Client talks to the platform REST API. The zero value is not usable; set ApplicationID and BotToken.
type Client struct {
	BaseURL       string
	ApplicationID string
	BotToken      string
	HTTPClient    *http.Client
	Timeout       time.Duration
}

// EditOriginal replaces the content of a deferred interaction response.
func (c Client) EditOriginal(ctx context.Context, applicationID, token string, msg Message) error {
	if strings.TrimSpace(applicationID) == "" {
		applicationID = c.ApplicationID
	}
	if strings.TrimSpace(applicationID) == "" || strings.TrimSpace(token) == "" {
		return fmt.Errorf("application id and interaction token are required")
	}
	path := fmt.Sprintf("/webhooks/%s/%s/messages/@original", url.PathEscape(applicationID), url.PathEscape(token))
	return c.do(ctx, http.MethodPatch, path, false, normalizeMessage(msg), nil)
}

// SendChannelMessage posts a new message to a channel.
// Failures are *APIError values classified by Kind.
func (c Client) SendChannelMessage(ctx context.Context, channelID string, msg Message) (MessageRef, error) {
	if strings.TrimSpace(channelID) == "" {
		return MessageRef{}, fmt.Errorf("channel id is required")
	}
	var ref MessageRef
	path := fmt.Sprintf("/channels/%s/messages", url.PathEscape(channelID))
	if err := c.do(ctx, http.MethodPost, path, true, normalizeMessage(msg), &ref); err != nil {
		return MessageRef{}, err
	}
	return ref, nil
}

// ListCommands returns the globally registered application commands.
func (c Client) ListCommands(ctx context.Context) ([]ApplicationCommand, error) {
	var out []ApplicationCommand
	if err := c.do(ctx, http.MethodGet, c.commandsPath(""), true, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c Client) CreateCommand(ctx context.Context, cmd ApplicationCommand) (ApplicationCommand, error) {
	var out ApplicationCommand
	cmd.ID = ""
	if err := c.do(ctx, http.MethodPost, c.commandsPath(""), true, cmd, &out); err != nil {
		return ApplicationCommand{}, err
	}
	return out, nil
}

func (c Client) UpdateCommand(ctx context.Context, id string, cmd ApplicationCommand) error {
	cmd.ID = ""
	return c.do(ctx, http.MethodPatch, c.commandsPath(id), true, cmd, nil)
}

func (c Client) DeleteCommand(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.commandsPath(id), true, nil, nil)
}

func (c Client) commandsPath(id string) string {
	path := fmt.Sprintf("/applications/%s/commands", url.PathEscape(c.ApplicationID))
	if id != "" {
		path += "/" + url.PathEscape(id)
	}
	return path
}

func (c Client) do(ctx context.Context, method, path string, botAuth bool, body, out any) error {
	if botAuth && strings.TrimSpace(c.BotToken) == "" {
		return fmt.Errorf("DISCORD_BOT_TOKEN is not set")
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	baseURL := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if botAuth {
		req.Header.Set("Authorization", "Bot "+strings.TrimSpace(c.BotToken))
	}
	req.Header.Set("User-Agent", "DiscordBot (https://github.com/tutur3u/discordbot, 1.0)")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode >= http.StatusMultipleChoices {
		return newAPIError(method, path, resp.StatusCode, payload)
	}
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func normalizeMessage(msg Message) Message {
	msg.Content = Truncate(msg.Content, MaxMessageLength)
	if msg.Components == nil {
		msg.Components = []Component{}
	}
	return msg
}
