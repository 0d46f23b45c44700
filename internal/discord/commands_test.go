package discord

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
)

type fakeCommandAPI struct {
	remote  []ApplicationCommand
	listErr error
	created []string
	updated []string
	deleted []string
}

func (f *fakeCommandAPI) ListCommands(context.Context) ([]ApplicationCommand, error) {
	return f.remote, f.listErr
}

func (f *fakeCommandAPI) CreateCommand(_ context.Context, cmd ApplicationCommand) (ApplicationCommand, error) {
	f.created = append(f.created, cmd.Name)
	return cmd, nil
}

func (f *fakeCommandAPI) UpdateCommand(_ context.Context, id string, _ ApplicationCommand) error {
	f.updated = append(f.updated, id)
	return nil
}

func (f *fakeCommandAPI) DeleteCommand(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReconcileCreatesMissingAndLeavesChangesWithoutForce(t *testing.T) {
	t.Parallel()

	api := &fakeCommandAPI{remote: []ApplicationCommand{
		{ID: "1", Name: "ping", Description: "old"},
		{ID: "2", Name: "legacy", Description: "gone"},
	}}
	local := []ApplicationCommand{
		{Name: "ping", Description: "Check the bot"},
		{Name: "shorten", Description: "Shorten a link"},
	}

	summary, err := Reconcile(context.Background(), api, discardLogger(), local, false)
	if err != nil {
		t.Fatalf("Reconcile error = %v", err)
	}
	if len(api.created) != 1 || api.created[0] != "shorten" {
		t.Fatalf("unexpected creations %#v", api.created)
	}
	if len(api.updated) != 0 || len(api.deleted) != 0 {
		t.Fatalf("expected no updates or deletes without force, got %#v %#v", api.updated, api.deleted)
	}
	if len(summary.Unchanged) != 1 {
		t.Fatalf("unexpected summary %#v", summary)
	}
}

func TestReconcileForceUpdatesAndDeletes(t *testing.T) {
	t.Parallel()

	api := &fakeCommandAPI{remote: []ApplicationCommand{
		{ID: "1", Name: "ping", Description: "old"},
		{ID: "2", Name: "legacy", Description: "gone"},
		{ID: "3", Name: "help", Description: "Show help"},
	}}
	local := []ApplicationCommand{
		{Name: "ping", Description: "Check the bot"},
		{Name: "help", Description: "Show help"},
	}

	summary, err := Reconcile(context.Background(), api, discardLogger(), local, true)
	if err != nil {
		t.Fatalf("Reconcile error = %v", err)
	}
	if len(api.updated) != 1 || api.updated[0] != "1" {
		t.Fatalf("unexpected updates %#v", api.updated)
	}
	if len(api.deleted) != 1 || api.deleted[0] != "2" {
		t.Fatalf("unexpected deletes %#v", api.deleted)
	}
	if len(summary.Unchanged) != 1 || summary.Unchanged[0] != "help" {
		t.Fatalf("unexpected summary %#v", summary)
	}
}

func TestReconcilePropagatesInvalidToken(t *testing.T) {
	t.Parallel()

	api := &fakeCommandAPI{listErr: &APIError{Method: http.MethodGet, Path: "/applications/x/commands", Status: http.StatusUnauthorized}}
	_, err := Reconcile(context.Background(), api, discardLogger(), nil, true)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token error, got %v", err)
	}
}
