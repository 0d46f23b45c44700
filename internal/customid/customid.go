// Package customid encodes interactive flow state into component custom ids.
//
// An id has the form "v1|<kind>|<arg>...". Parent ids travel inside the id so
// no server side session is needed between the steps of a flow.
package customid

import (
	"errors"
	"fmt"
	"strings"
)

const (
	version   = "v1"
	separator = "|"
	maxLength = 100
)

// Kind names one step of an interactive flow.
type Kind string

const (
	// TaskBoard is the board select of the create-task flow.
	TaskBoard Kind = "task_board"
	// TaskList is the list select of the create-task flow; args: board id.
	TaskList Kind = "task_list"
	// TaskForm is the create-task modal; args: board id, list id.
	TaskForm Kind = "task_form"
	// ListBoard is the board select of the create-list flow.
	ListBoard Kind = "list_board"
	// ListForm is the create-list modal; args: board id.
	ListForm Kind = "list_form"
)

var arity = map[Kind]int{
	TaskBoard: 0,
	TaskList:  1,
	TaskForm:  2,
	ListBoard: 0,
	ListForm:  1,
}

var (
	ErrMalformed          = errors.New("customid: malformed")
	ErrUnsupportedVersion = errors.New("customid: unsupported version")
	ErrUnknownKind        = errors.New("customid: unknown kind")
)

// ID is a decoded custom id.
type ID struct {
	Kind Kind
	Args []string
}

// Arg returns the i-th argument or an empty string.
func (id ID) Arg(i int) string {
	if i < 0 || i >= len(id.Args) {
		return ""
	}
	return id.Args[i]
}

// Encode builds a custom id for kind with the exact number of args that kind expects.
func Encode(kind Kind, args ...string) (string, error) {
	want, ok := arity[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if len(args) != want {
		return "", fmt.Errorf("%w: %s expects %d args, got %d", ErrMalformed, kind, want, len(args))
	}
	for _, arg := range args {
		if arg == "" || strings.Contains(arg, separator) {
			return "", fmt.Errorf("%w: invalid arg %q", ErrMalformed, arg)
		}
	}
	parts := append([]string{version, string(kind)}, args...)
	out := strings.Join(parts, separator)
	if len(out) > maxLength {
		return "", fmt.Errorf("%w: %d bytes exceeds %d", ErrMalformed, len(out), maxLength)
	}
	return out, nil
}

// MustEncode is Encode for ids built from trusted constants.
func MustEncode(kind Kind, args ...string) string {
	out, err := Encode(kind, args...)
	if err != nil {
		panic(err)
	}
	return out
}

// Parse decodes raw. Every failure wraps one of the package errors.
func Parse(raw string) (ID, error) {
	if raw == "" || len(raw) > maxLength {
		return ID{}, fmt.Errorf("%w: length %d", ErrMalformed, len(raw))
	}
	parts := strings.Split(raw, separator)
	if len(parts) < 2 {
		return ID{}, fmt.Errorf("%w: %q", ErrMalformed, raw)
	}
	if parts[0] != version {
		return ID{}, fmt.Errorf("%w: %q", ErrUnsupportedVersion, parts[0])
	}
	kind := Kind(parts[1])
	want, ok := arity[kind]
	if !ok {
		return ID{}, fmt.Errorf("%w: %q", ErrUnknownKind, parts[1])
	}
	args := parts[2:]
	if len(args) != want {
		return ID{}, fmt.Errorf("%w: %s expects %d args, got %d", ErrMalformed, kind, want, len(args))
	}
	for _, arg := range args {
		if strings.TrimSpace(arg) == "" {
			return ID{}, fmt.Errorf("%w: empty arg in %q", ErrMalformed, raw)
		}
	}
	return ID{Kind: kind, Args: args}, nil
}
