package domain

import (
	"strings"
)

// Priority is the canonical four level task priority.
type Priority int

const (
	PriorityNone Priority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
	PriorityUrgent
)

var prioritySynonyms = map[string]Priority{
	"1":        PriorityLow,
	"low":      PriorityLow,
	"2":        PriorityMedium,
	"medium":   PriorityMedium,
	"med":      PriorityMedium,
	"normal":   PriorityMedium,
	"3":        PriorityHigh,
	"high":     PriorityHigh,
	"4":        PriorityUrgent,
	"urgent":   PriorityUrgent,
	"critical": PriorityUrgent,
}

// ParsePriority normalizes numeric and word forms. Empty input yields PriorityNone.
func ParsePriority(raw string) (Priority, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return PriorityNone, nil
	}
	if p, ok := prioritySynonyms[key]; ok {
		return p, nil
	}
	return PriorityNone, Invalid("priority", "%q is not a priority, use 1-4 or low, medium, high, urgent", raw)
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityUrgent:
		return "urgent"
	default:
		return "none"
	}
}

// Label renders the priority for chat replies.
func (p Priority) Label() string {
	switch p {
	case PriorityLow:
		return "🟢 Low"
	case PriorityMedium:
		return "🟡 Medium"
	case PriorityHigh:
		return "🟠 High"
	case PriorityUrgent:
		return "🔴 Urgent"
	default:
		return "None"
	}
}
