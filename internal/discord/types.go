package discord

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tutur3u/discordbot/internal/app/domain"
)

// InteractionType is the kind of inbound interaction.
type InteractionType int

const (
	InteractionPing               InteractionType = 1
	InteractionApplicationCommand InteractionType = 2
	InteractionMessageComponent   InteractionType = 3
	InteractionAutocomplete       InteractionType = 4
	InteractionModalSubmit        InteractionType = 5
)

// ResponseType is the kind of synchronous interaction response.
type ResponseType int

const (
	ResponsePong                   ResponseType = 1
	ResponseChannelMessage         ResponseType = 4
	ResponseDeferredChannelMessage ResponseType = 5
	ResponseDeferredUpdateMessage  ResponseType = 6
	ResponseModal                  ResponseType = 9
)

const (
	// MessageFlagEphemeral hides a message from everyone but the caller.
	MessageFlagEphemeral = 1 << 6
	// MaxMessageLength is the platform ceiling for message content.
	MaxMessageLength = 2000

	maxSelectOptions        = 25
	defaultTruncationSuffix = "…"
)

type User struct {
	ID         string `json:"id" validate:"required"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
}

type Member struct {
	User *User  `json:"user" validate:"omitempty"`
	Nick string `json:"nick"`
}

// Interaction is the decoded inbound payload.
type Interaction struct {
	ID            string          `json:"id"`
	ApplicationID string          `json:"application_id" validate:"required_unless=Type 1"`
	Type          InteractionType `json:"type" validate:"required,oneof=1 2 3 4 5"`
	Token         string          `json:"token" validate:"required_unless=Type 1"`
	GuildID       string          `json:"guild_id"`
	ChannelID     string          `json:"channel_id"`
	Member        *Member         `json:"member" validate:"omitempty"`
	User          *User           `json:"user" validate:"omitempty"`
	Data          InteractionData `json:"data"`
}

type InteractionData struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Type          int             `json:"type"`
	Options       []CommandOption `json:"options"`
	CustomID      string          `json:"custom_id"`
	ComponentType ComponentType   `json:"component_type"`
	Values        []string        `json:"values"`
	Components    []Component     `json:"components"`
}

// CommandOption is one name/value pair supplied with a slash command.
type CommandOption struct {
	Name    string          `json:"name"`
	Type    OptionType      `json:"type"`
	Value   json.RawMessage `json:"value"`
	Options []CommandOption `json:"options"`
}

var validate = validator.New()

// DecodeInteraction parses and validates an interaction body.
// Errors wrap domain.ErrBadRequest.
func DecodeInteraction(body []byte) (Interaction, error) {
	var in Interaction
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&in); err != nil {
		return Interaction{}, fmt.Errorf("%w: decode interaction: %v", domain.ErrBadRequest, err)
	}
	if err := validate.Struct(in); err != nil {
		return Interaction{}, fmt.Errorf("%w: %v", domain.ErrBadRequest, err)
	}
	switch in.Type {
	case InteractionPing:
		return in, nil
	case InteractionApplicationCommand:
		if strings.TrimSpace(in.Data.Name) == "" {
			return Interaction{}, fmt.Errorf("%w: command name is required", domain.ErrBadRequest)
		}
	case InteractionMessageComponent, InteractionModalSubmit:
		if strings.TrimSpace(in.Data.CustomID) == "" {
			return Interaction{}, fmt.Errorf("%w: custom_id is required", domain.ErrBadRequest)
		}
	}
	if in.Caller() == nil {
		return Interaction{}, fmt.Errorf("%w: caller identity is required", domain.ErrBadRequest)
	}
	return in, nil
}

// Caller returns the invoking user for guild and direct message interactions.
func (in Interaction) Caller() *User {
	if in.Member != nil && in.Member.User != nil && in.Member.User.ID != "" {
		return in.Member.User
	}
	if in.User != nil && in.User.ID != "" {
		return in.User
	}
	return nil
}

// CallerID returns the invoking user's id or an empty string.
func (in Interaction) CallerID() string {
	if u := in.Caller(); u != nil {
		return u.ID
	}
	return ""
}

// CallerName returns the nickname, global name or username of the caller.
func (in Interaction) CallerName() string {
	if in.Member != nil && in.Member.Nick != "" {
		return in.Member.Nick
	}
	u := in.Caller()
	if u == nil {
		return ""
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// Option returns the string form of a top level option. Numbers and booleans are returned as their JSON text.
func (d InteractionData) Option(name string) (string, bool) {
	for _, opt := range d.Options {
		if opt.Name != name {
			continue
		}
		if len(opt.Value) == 0 || string(opt.Value) == "null" {
			return "", false
		}
		var s string
		if err := json.Unmarshal(opt.Value, &s); err == nil {
			return strings.TrimSpace(s), true
		}
		return strings.TrimSpace(string(opt.Value)), true
	}
	return "", false
}

// SelectedValue returns the first selected value of a select menu event.
func (d InteractionData) SelectedValue() string {
	if len(d.Values) == 0 {
		return ""
	}
	return strings.TrimSpace(d.Values[0])
}

// ModalValues flattens text input values keyed by their custom_id.
func (d InteractionData) ModalValues() map[string]string {
	values := make(map[string]string)
	for _, row := range d.Components {
		for _, comp := range row.Components {
			if comp.CustomID != "" {
				values[comp.CustomID] = strings.TrimSpace(comp.Value)
			}
		}
	}
	return values
}

// InteractionResponse is the synchronous reply to an interaction.
type InteractionResponse struct {
	Type ResponseType  `json:"type"`
	Data *ResponseData `json:"data,omitempty"`
}

type ResponseData struct {
	Content         string           `json:"content,omitempty"`
	Flags           int              `json:"flags,omitempty"`
	CustomID        string           `json:"custom_id,omitempty"`
	Title           string           `json:"title,omitempty"`
	Components      []Component      `json:"components,omitempty"`
	AllowedMentions *AllowedMentions `json:"allowed_mentions,omitempty"`
}

// Pong acknowledges a ping.
func Pong() InteractionResponse {
	return InteractionResponse{Type: ResponsePong}
}

// DeferredMessage acknowledges a command; the real content follows through EditOriginal.
func DeferredMessage() InteractionResponse {
	return InteractionResponse{Type: ResponseDeferredChannelMessage}
}

// DeferredUpdate acknowledges a component event without changing the message yet.
func DeferredUpdate() InteractionResponse {
	return InteractionResponse{Type: ResponseDeferredUpdateMessage}
}

// EphemeralMessage replies immediately with a message only the caller sees.
func EphemeralMessage(content string) InteractionResponse {
	return InteractionResponse{Type: ResponseChannelMessage, Data: &ResponseData{
		Content: Truncate(content, MaxMessageLength),
		Flags:   MessageFlagEphemeral,
	}}
}

// Message is the body of a follow-up edit or channel post.
type Message struct {
	Content         string           `json:"content"`
	Components      []Component      `json:"components"`
	AllowedMentions *AllowedMentions `json:"allowed_mentions,omitempty"`
}

// Text builds a plain text message.
func Text(content string) Message {
	return Message{Content: content}
}

// AllowedMentions controls which mentions in content actually ping.
type AllowedMentions struct {
	Parse []string `json:"parse"`
	Roles []string `json:"roles,omitempty"`
	Users []string `json:"users,omitempty"`
}

// NoMentions renders mentions without pinging anybody.
func NoMentions() *AllowedMentions {
	return &AllowedMentions{Parse: []string{}}
}

// MessageRef identifies a posted channel message.
type MessageRef struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
}

// Truncate shortens content to limit runes including the trailing "…". Whole lines are
// dropped from the end; when the first line alone is over the limit it is cut mid-line,
// which is the only case for single-line values such as select labels.
func Truncate(content string, limit int) string {
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	suffix := []rune(defaultTruncationSuffix)
	cut := limit - len(suffix)
	if cut <= 0 {
		return string(runes[:limit])
	}
	head := string(runes[:cut])
	idx := strings.LastIndex(head, "\n")
	if idx <= 0 {
		return head + defaultTruncationSuffix
	}
	return head[:idx+1] + defaultTruncationSuffix
}
