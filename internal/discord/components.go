package discord

// ComponentType is the kind of message component.
type ComponentType int

const (
	ComponentActionRow    ComponentType = 1
	ComponentButton       ComponentType = 2
	ComponentStringSelect ComponentType = 3
	ComponentTextInput    ComponentType = 4
)

// TextInputStyle selects a single or multi line text input.
type TextInputStyle int

const (
	TextInputShort     TextInputStyle = 1
	TextInputParagraph TextInputStyle = 2
)

type Component struct {
	Type        ComponentType  `json:"type"`
	CustomID    string         `json:"custom_id,omitempty"`
	Label       string         `json:"label,omitempty"`
	Style       TextInputStyle `json:"style,omitempty"`
	Placeholder string         `json:"placeholder,omitempty"`
	Value       string         `json:"value,omitempty"`
	MinLength   int            `json:"min_length,omitempty"`
	MaxLength   int            `json:"max_length,omitempty"`
	Required    *bool          `json:"required,omitempty"`
	Options     []SelectOption `json:"options,omitempty"`
	Components  []Component    `json:"components,omitempty"`
}

type SelectOption struct {
	Label       string `json:"label"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// ActionRow wraps components in a row.
func ActionRow(components ...Component) Component {
	return Component{Type: ComponentActionRow, Components: components}
}

// StringSelect builds a select menu. Options beyond the platform limit are dropped.
func StringSelect(customID, placeholder string, options []SelectOption) Component {
	if len(options) > maxSelectOptions {
		options = options[:maxSelectOptions]
	}
	for i := range options {
		options[i].Label = Truncate(options[i].Label, 100)
		options[i].Description = Truncate(options[i].Description, 100)
	}
	return Component{
		Type:        ComponentStringSelect,
		CustomID:    customID,
		Placeholder: placeholder,
		Options:     options,
	}
}

// TextInput builds a modal text field.
func TextInput(customID, label string, style TextInputStyle, required bool, maxLength int) Component {
	return Component{
		Type:      ComponentTextInput,
		CustomID:  customID,
		Label:     label,
		Style:     style,
		Required:  &required,
		MaxLength: maxLength,
	}
}

// Modal returns a synchronous modal response. Each field gets its own action row.
func Modal(customID, title string, fields ...Component) InteractionResponse {
	rows := make([]Component, 0, len(fields))
	for _, field := range fields {
		rows = append(rows, ActionRow(field))
	}
	return InteractionResponse{Type: ResponseModal, Data: &ResponseData{
		CustomID:   customID,
		Title:      Truncate(title, 45),
		Components: rows,
	}}
}
