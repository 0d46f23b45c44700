package customid

import (
	"errors"
	"strings"
	"testing"
)

func TestEncodeParseTaskForm(t *testing.T) {
	t.Parallel()

	raw, err := Encode(TaskForm, "board-1", "list-2")
	if err != nil {
		t.Fatalf("Encode error = %v", err)
	}
	if raw != "v1|task_form|board-1|list-2" {
		t.Fatalf("unexpected encoding %q", raw)
	}

	id, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}
	if id.Kind != TaskForm || id.Arg(0) != "board-1" || id.Arg(1) != "list-2" {
		t.Fatalf("unexpected id %#v", id)
	}
	if id.Arg(5) != "" {
		t.Fatal("out of range arg must be empty")
	}
}

func TestEncodeRejectsBadArgs(t *testing.T) {
	t.Parallel()

	if _, err := Encode(TaskList); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected arity error, got %v", err)
	}
	if _, err := Encode(ListForm, "a|b"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected separator error, got %v", err)
	}
	if _, err := Encode(Kind("nope")); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected unknown kind, got %v", err)
	}
	if _, err := Encode(TaskForm, strings.Repeat("a", 60), strings.Repeat("b", 60)); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected length error, got %v", err)
	}
}

func TestParseFailures(t *testing.T) {
	t.Parallel()

	cases := map[string]error{
		"":                       ErrMalformed,
		"task_form":              ErrMalformed,
		"v2|task_form|a|b":       ErrUnsupportedVersion,
		"task_form|a|b":          ErrUnsupportedVersion,
		"v1|unknown":             ErrUnknownKind,
		"v1|task_form|a":         ErrMalformed,
		"v1|task_list|":          ErrMalformed,
		"v1|list_board|extra":    ErrMalformed,
		strings.Repeat("x", 101): ErrMalformed,
	}
	for raw, want := range cases {
		if _, err := Parse(raw); !errors.Is(err, want) {
			t.Fatalf("Parse(%q): expected %v, got %v", raw, want, err)
		}
	}
}
