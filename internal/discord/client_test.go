package discord

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientEditOriginalPatchesWebhookMessage(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Fatalf("unexpected method %s", r.Method)
		}
		if r.URL.Path != "/webhooks/app-1/tok-1/messages/@original" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Fatalf("webhook edits must not carry the bot token")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := Client{BaseURL: srv.URL, BotToken: "secret"}
	if err := client.EditOriginal(context.Background(), "app-1", "tok-1", Text("hello")); err != nil {
		t.Fatalf("EditOriginal error = %v", err)
	}
	if got["content"] != "hello" {
		t.Fatalf("unexpected content %#v", got["content"])
	}
	if components, ok := got["components"].([]any); !ok || len(components) != 0 {
		t.Fatalf("expected empty components array, got %#v", got["components"])
	}
}

func TestClientSendChannelMessageClassifiesForbidden(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code int
		want error
		kind FailureKind
	}{
		{code: 50001, want: ErrMissingAccess, kind: FailureMissingAccess},
		{code: 50013, want: ErrMissingPermissions, kind: FailureMissingPermissions},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bot secret" {
				t.Fatalf("unexpected auth header %q", got)
			}
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]any{"code": tc.code, "message": "nope"})
		}))

		client := Client{BaseURL: srv.URL, BotToken: "secret"}
		_, err := client.SendChannelMessage(context.Background(), "chan", Text("hi"))
		srv.Close()

		if !errors.Is(err, tc.want) {
			t.Fatalf("code %d: expected %v, got %v", tc.code, tc.want, err)
		}
		if KindOf(err) != tc.kind {
			t.Fatalf("code %d: unexpected kind %d", tc.code, KindOf(err))
		}
	}
}

func TestClientSendChannelMessageSendsAllowedMentions(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/channels/chan-9/messages" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var body struct {
			AllowedMentions *struct {
				Parse []string `json:"parse"`
			} `json:"allowed_mentions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.AllowedMentions == nil || body.AllowedMentions.Parse == nil || len(body.AllowedMentions.Parse) != 0 {
			t.Fatalf("expected empty parse list, got %#v", body.AllowedMentions)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "m1", "channel_id": "chan-9"})
	}))
	defer srv.Close()

	client := Client{BaseURL: srv.URL, BotToken: "secret"}
	ref, err := client.SendChannelMessage(context.Background(), "chan-9", Message{Content: "<@1>", AllowedMentions: NoMentions()})
	if err != nil {
		t.Fatalf("SendChannelMessage error = %v", err)
	}
	if ref.ID != "m1" {
		t.Fatalf("unexpected message ref %#v", ref)
	}
}

func TestClientGenericErrorKeepsBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := Client{BaseURL: srv.URL, BotToken: "secret"}
	_, err := client.SendChannelMessage(context.Background(), "chan", Text("hi"))
	if KindOf(err) != FailureOther {
		t.Fatalf("expected generic failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected body in error, got %v", err)
	}
}
