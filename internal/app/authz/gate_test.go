package authz

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tutur3u/discordbot/internal/app/domain"
)

type storeMock struct {
	mock.Mock
}

func (m *storeMock) GetIntegrationByGuild(ctx context.Context, guildID string) (domain.Integration, error) {
	args := m.Called(ctx, guildID)
	return args.Get(0).(domain.Integration), args.Error(1)
}

func (m *storeMock) GetLinkage(ctx context.Context, guildID, discordUserID string) (domain.Linkage, error) {
	args := m.Called(ctx, guildID, discordUserID)
	return args.Get(0).(domain.Linkage), args.Error(1)
}

func (m *storeMock) ListLinkagesByDiscordUser(ctx context.Context, discordUserID string) ([]domain.Linkage, error) {
	args := m.Called(ctx, discordUserID)
	return args.Get(0).([]domain.Linkage), args.Error(1)
}

func (m *storeMock) IsWorkspaceMember(ctx context.Context, workspaceID, userID string) (bool, error) {
	args := m.Called(ctx, workspaceID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *storeMock) GetUserDisplayName(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func newGate(store *storeMock) *Gate {
	return NewGate(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestOriginContextRequiresMatchingWorkspace(t *testing.T) {
	store := &storeMock{}
	store.On("GetIntegrationByGuild", mock.Anything, "g-1").Return(domain.Integration{ID: "i-1", WorkspaceID: "ws-1", GuildID: "g-1"}, nil)
	store.On("GetLinkage", mock.Anything, "g-1", "d-1").Return(domain.Linkage{GuildID: "g-1", DiscordUserID: "d-1", PlatformUserID: "u-1", WorkspaceID: "ws-1"}, nil)
	store.On("GetLinkage", mock.Anything, "g-1", "d-2").Return(domain.Linkage{GuildID: "g-1", DiscordUserID: "d-2", PlatformUserID: "u-2", WorkspaceID: "ws-9"}, nil)
	store.On("IsWorkspaceMember", mock.Anything, "ws-1", "u-1").Return(true, nil)
	store.On("GetUserDisplayName", mock.Anything, "u-1").Return("Alice", nil)

	gate := newGate(store)
	require.True(t, gate.IsAuthorizedInOriginContext(context.Background(), "g-1", "d-1"))
	require.False(t, gate.IsAuthorizedInOriginContext(context.Background(), "g-1", "d-2"))

	authCtx := gate.Resolve(context.Background(), "g-1", "d-1")
	require.NotNil(t, authCtx)
	require.Equal(t, "ws-1", authCtx.WorkspaceID)
	require.Equal(t, "u-1", authCtx.PlatformUserID)
	require.Equal(t, "Alice", authCtx.DisplayName)
	require.Equal(t, "g-1", authCtx.GuildID)
	require.Nil(t, gate.Resolve(context.Background(), "g-1", "d-2"))
}

func TestResolveOriginContextRequiresMembership(t *testing.T) {
	store := &storeMock{}
	store.On("GetIntegrationByGuild", mock.Anything, "g-1").Return(domain.Integration{ID: "i-1", WorkspaceID: "ws-1", GuildID: "g-1"}, nil)
	store.On("GetLinkage", mock.Anything, "g-1", "d-1").Return(domain.Linkage{GuildID: "g-1", DiscordUserID: "d-1", PlatformUserID: "u-1", WorkspaceID: "ws-1"}, nil)
	store.On("GetLinkage", mock.Anything, "g-1", "d-2").Return(domain.Linkage{GuildID: "g-1", DiscordUserID: "d-2", PlatformUserID: "u-2", WorkspaceID: "ws-1"}, nil)
	store.On("IsWorkspaceMember", mock.Anything, "ws-1", "u-1").Return(false, nil)
	store.On("IsWorkspaceMember", mock.Anything, "ws-1", "u-2").Return(false, domain.ErrDataAccess)

	gate := newGate(store)
	require.True(t, gate.Authorize(context.Background(), "g-1", "d-1"))
	require.Nil(t, gate.Resolve(context.Background(), "g-1", "d-1"), "linked but removed from the workspace must not resolve")
	require.Nil(t, gate.Resolve(context.Background(), "g-1", "d-2"))
	store.AssertNotCalled(t, "GetUserDisplayName", mock.Anything, mock.Anything)
}

func TestOriginContextFailsClosedOnDataError(t *testing.T) {
	store := &storeMock{}
	store.On("GetIntegrationByGuild", mock.Anything, "g-1").Return(domain.Integration{}, domain.ErrDataAccess)

	gate := newGate(store)
	require.False(t, gate.Authorize(context.Background(), "g-1", "d-1"))
	require.Nil(t, gate.Resolve(context.Background(), "g-1", "d-1"))
	store.AssertNotCalled(t, "GetLinkage", mock.Anything, mock.Anything, mock.Anything)
}

func TestDirectMessageNeedsAnIntegratedGuild(t *testing.T) {
	store := &storeMock{}
	store.On("ListLinkagesByDiscordUser", mock.Anything, "d-1").Return([]domain.Linkage{
		{GuildID: "g-old", DiscordUserID: "d-1", PlatformUserID: "u-1", WorkspaceID: "ws-0"},
		{GuildID: "g-1", DiscordUserID: "d-1", PlatformUserID: "u-1", WorkspaceID: "ws-1"},
	}, nil)
	store.On("GetIntegrationByGuild", mock.Anything, "g-old").Return(domain.Integration{}, domain.ErrNotFound)
	store.On("GetIntegrationByGuild", mock.Anything, "g-1").Return(domain.Integration{WorkspaceID: "ws-1", GuildID: "g-1"}, nil)
	store.On("ListLinkagesByDiscordUser", mock.Anything, "d-2").Return([]domain.Linkage{}, nil)

	gate := newGate(store)
	require.True(t, gate.Authorize(context.Background(), "", "d-1"))
	require.False(t, gate.Authorize(context.Background(), "", "d-2"))
}

func TestResolveDirectMessageRequiresMembership(t *testing.T) {
	store := &storeMock{}
	store.On("ListLinkagesByDiscordUser", mock.Anything, "d-1").Return([]domain.Linkage{
		{GuildID: "g-1", DiscordUserID: "d-1", PlatformUserID: "u-1", WorkspaceID: "ws-1"},
	}, nil)
	store.On("GetIntegrationByGuild", mock.Anything, "g-1").Return(domain.Integration{WorkspaceID: "ws-1", GuildID: "g-1"}, nil)
	store.On("IsWorkspaceMember", mock.Anything, "ws-1", "u-1").Return(false, nil)

	gate := newGate(store)
	require.True(t, gate.IsAuthorizedForDirectMessage(context.Background(), "d-1"))
	require.Nil(t, gate.Resolve(context.Background(), "", "d-1"), "linked but not a member must not resolve")
}

func TestResolveDirectMessagePicksFirstMemberWorkspace(t *testing.T) {
	store := &storeMock{}
	store.On("ListLinkagesByDiscordUser", mock.Anything, "d-1").Return([]domain.Linkage{
		{GuildID: "g-1", DiscordUserID: "d-1", PlatformUserID: "u-1", WorkspaceID: "ws-1"},
		{GuildID: "g-2", DiscordUserID: "d-1", PlatformUserID: "u-1", WorkspaceID: "ws-2"},
	}, nil)
	store.On("GetIntegrationByGuild", mock.Anything, "g-1").Return(domain.Integration{WorkspaceID: "ws-1", GuildID: "g-1"}, nil)
	store.On("GetIntegrationByGuild", mock.Anything, "g-2").Return(domain.Integration{WorkspaceID: "ws-2", GuildID: "g-2"}, nil)
	store.On("IsWorkspaceMember", mock.Anything, "ws-1", "u-1").Return(false, nil)
	store.On("IsWorkspaceMember", mock.Anything, "ws-2", "u-1").Return(true, nil)
	store.On("GetUserDisplayName", mock.Anything, "u-1").Return("", errors.New("timeout"))

	authCtx := newGate(store).Resolve(context.Background(), "", "d-1")
	require.NotNil(t, authCtx)
	require.Equal(t, "ws-2", authCtx.WorkspaceID)
	require.Empty(t, authCtx.GuildID)
	require.Empty(t, authCtx.DisplayName)
}
