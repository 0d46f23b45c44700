package discord

import (
	"errors"
	"testing"

	"github.com/tutur3u/discordbot/internal/app/domain"
)

func TestDecodeInteractionAcceptsPingWithoutToken(t *testing.T) {
	t.Parallel()

	in, err := DecodeInteraction([]byte(`{"type":1,"id":"1"}`))
	if err != nil {
		t.Fatalf("decode ping: %v", err)
	}
	if in.Type != InteractionPing {
		t.Fatalf("unexpected type %d", in.Type)
	}
}

func TestDecodeInteractionRejectsMalformedPayloads(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"not json":        `{"type":`,
		"unknown type":    `{"type":42,"token":"t","application_id":"a","user":{"id":"u"}}`,
		"missing token":   `{"type":2,"application_id":"a","user":{"id":"u"},"data":{"name":"ping"}}`,
		"missing name":    `{"type":2,"token":"t","application_id":"a","user":{"id":"u"},"data":{}}`,
		"missing caller":  `{"type":2,"token":"t","application_id":"a","data":{"name":"ping"}}`,
		"missing custom":  `{"type":3,"token":"t","application_id":"a","user":{"id":"u"},"data":{}}`,
		"empty caller id": `{"type":2,"token":"t","application_id":"a","user":{"id":""},"data":{"name":"ping"}}`,
	}
	for name, body := range cases {
		if _, err := DecodeInteraction([]byte(body)); !errors.Is(err, domain.ErrBadRequest) {
			t.Fatalf("%s: expected bad request, got %v", name, err)
		}
	}
}

func TestDecodeInteractionReadsOptionsAndCaller(t *testing.T) {
	t.Parallel()

	body := `{
		"type": 2, "token": "tok", "application_id": "app", "guild_id": "g1",
		"member": {"nick": "Nick", "user": {"id": "42", "username": "user42"}},
		"data": {"name": "shorten", "options": [
			{"name": "url", "type": 3, "value": " https://example.com "},
			{"name": "count", "type": 4, "value": 3}
		]}
	}`
	in, err := DecodeInteraction([]byte(body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if in.CallerID() != "42" || in.CallerName() != "Nick" {
		t.Fatalf("unexpected caller %q %q", in.CallerID(), in.CallerName())
	}
	if got, ok := in.Data.Option("url"); !ok || got != "https://example.com" {
		t.Fatalf("unexpected url option %q %v", got, ok)
	}
	if got, ok := in.Data.Option("count"); !ok || got != "3" {
		t.Fatalf("unexpected count option %q %v", got, ok)
	}
	if _, ok := in.Data.Option("slug"); ok {
		t.Fatal("expected missing slug option")
	}
}

func TestModalValuesFlattensRows(t *testing.T) {
	t.Parallel()

	data := InteractionData{Components: []Component{
		ActionRow(Component{Type: ComponentTextInput, CustomID: "name", Value: " Ship it "}),
		ActionRow(Component{Type: ComponentTextInput, CustomID: "priority", Value: "high"}),
	}}
	values := data.ModalValues()
	if values["name"] != "Ship it" || values["priority"] != "high" {
		t.Fatalf("unexpected modal values %#v", values)
	}
}

func TestTruncatePrefersLineBoundary(t *testing.T) {
	t.Parallel()

	content := "first line\nsecond line\nthird line"
	got := Truncate(content, 20)
	if got != "first line\n…" {
		t.Fatalf("unexpected truncation %q", got)
	}
	if Truncate("short", 20) != "short" {
		t.Fatal("short content must be returned unchanged")
	}
}

func TestTruncateCutsOverlongFirstLine(t *testing.T) {
	t.Parallel()

	if got := Truncate("abcdefghijklmnop", 10); got != "abcdefghi…" {
		t.Fatalf("unexpected single line truncation %q", got)
	}
	if got := Truncate("abcdefghijklmnop\nshort", 10); got != "abcdefghi…" {
		t.Fatalf("unexpected first line truncation %q", got)
	}
	if got := Truncate("ab\ncdefghijklmnop", 10); got != "ab\n…" {
		t.Fatalf("expected the partial second line to be dropped, got %q", got)
	}
	if n := len([]rune(Truncate("ab\ncdefghijklmnop", 10))); n > 10 {
		t.Fatalf("result has %d runes, limit is 10", n)
	}
}
