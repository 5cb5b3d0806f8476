package gate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tukib/snakebot/internal/domain"
	apperrors "github.com/tukib/snakebot/internal/errors"
	"github.com/tukib/snakebot/internal/kv"
)

func seed(t *testing.T, store *kv.Memory, ns domain.Namespace, key, value string) {
	t.Helper()
	require.NoError(t, store.Put(context.Background(), ns, key, []byte(value)))
}

func TestCheck(t *testing.T) {
	inv := Invocation{UserID: "u", GuildID: "g", ChannelID: "c", Command: "snipe"}

	tests := []struct {
		name  string
		setup func(t *testing.T, s *kv.Memory)
		inv   Invocation
		want  Decision
	}{
		{
			name: "plain member allowed",
			inv:  inv,
			want: Decision{Allowed: true},
		},
		{
			name: "disabled channel denies silently",
			setup: func(t *testing.T, s *kv.Memory) {
				seed(t, s, domain.NamespaceSettings, "g-disabled_channels", `["x","c"]`)
			},
			inv:  inv,
			want: Decision{},
		},
		{
			name: "disable_channel works in a disabled channel",
			setup: func(t *testing.T, s *kv.Memory) {
				seed(t, s, domain.NamespaceSettings, "g-disabled_channels", `["c"]`)
			},
			inv:  Invocation{UserID: "u", GuildID: "g", ChannelID: "c", Command: CommandDisableChannel},
			want: Decision{Allowed: true},
		},
		{
			name: "disabled command",
			setup: func(t *testing.T, s *kv.Memory) {
				seed(t, s, domain.NamespaceSettings, "g-snipe", "1")
			},
			inv:  inv,
			want: Decision{Notice: NoticeCommandDisabled},
		},
		{
			name: "disabled channel wins over disabled command",
			setup: func(t *testing.T, s *kv.Memory) {
				seed(t, s, domain.NamespaceSettings, "g-disabled_channels", `["c"]`)
				seed(t, s, domain.NamespaceSettings, "g-snipe", "1")
			},
			inv:  inv,
			want: Decision{},
		},
		{
			name: "logging setting is not a disabled logging command",
			setup: func(t *testing.T, s *kv.Memory) {
				seed(t, s, domain.NamespaceSettings, "g-logging", "1")
			},
			inv:  Invocation{UserID: "u", GuildID: "g", ChannelID: "c", Command: "logging"},
			want: Decision{Allowed: true},
		},
		{
			name: "global blacklist",
			setup: func(t *testing.T, s *kv.Memory) {
				seed(t, s, domain.NamespaceBlacklist, "u", "2")
			},
			inv:  inv,
			want: Decision{Notice: NoticeBlacklisted},
		},
		{
			name: "guild downvote flag also blocks commands",
			setup: func(t *testing.T, s *kv.Memory) {
				seed(t, s, domain.NamespaceBlacklist, "g-u", "1")
			},
			inv:  inv,
			want: Decision{Notice: NoticeBlacklisted},
		},
		{
			name: "disabled command wins over blacklist",
			setup: func(t *testing.T, s *kv.Memory) {
				seed(t, s, domain.NamespaceSettings, "g-snipe", "1")
				seed(t, s, domain.NamespaceBlacklist, "u", "2")
			},
			inv:  inv,
			want: Decision{Notice: NoticeCommandDisabled},
		},
		{
			name: "direct message checks only the global flag",
			setup: func(t *testing.T, s *kv.Memory) {
				seed(t, s, domain.NamespaceSettings, "-snipe", "1")
				seed(t, s, domain.NamespaceBlacklist, "u", "2")
			},
			inv:  Invocation{UserID: "u", ChannelID: "dm", Command: "snipe"},
			want: Decision{Notice: NoticeBlacklisted},
		},
		{
			name: "owner bypasses everything",
			setup: func(t *testing.T, s *kv.Memory) {
				seed(t, s, domain.NamespaceSettings, "g-disabled_channels", `["c"]`)
				seed(t, s, domain.NamespaceSettings, "g-snipe", "1")
				seed(t, s, domain.NamespaceBlacklist, "owner", "2")
			},
			inv:  Invocation{UserID: "owner", GuildID: "g", ChannelID: "c", Command: "snipe"},
			want: Decision{Allowed: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := kv.NewMemory()
			if tt.setup != nil {
				tt.setup(t, store)
			}
			g := New(store, []string{"owner"})

			got, err := g.Check(context.Background(), tt.inv)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheck_MalformedDisabledChannels(t *testing.T) {
	store := kv.NewMemory()
	seed(t, store, domain.NamespaceSettings, "g-disabled_channels", `{"g":["c"]}`)

	_, err := New(store, nil).Check(context.Background(), Invocation{UserID: "u", GuildID: "g", ChannelID: "c", Command: "snipe"})
	assert.Equal(t, apperrors.KindMalformed, apperrors.KindOf(err))
}

func TestIsOwner(t *testing.T) {
	g := New(kv.NewMemory(), []string{"1", "2"})
	assert.True(t, g.IsOwner("2"))
	assert.False(t, g.IsOwner("3"))
}
