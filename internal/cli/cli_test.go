package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tukib/snakebot/internal/domain"
	"github.com/tukib/snakebot/internal/kv"
	"github.com/tukib/snakebot/internal/platform/config"
	"github.com/tukib/snakebot/internal/record"
)

// sharedStore survives the Close every command issues, so a test can seed
// it and inspect it afterwards.
type sharedStore struct {
	*kv.Memory
}

func (sharedStore) Close() error { return nil }

type harness struct {
	store *kv.Memory
	opts  *RootOptions
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{store: kv.NewMemory()}
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfg := &config.Config{StoreBackend: "memory", MutatorShards: 2}
	cmd := NewRootCommand(cfg, func(_ context.Context, opts *RootOptions) (domain.KVStore, error) {
		h.opts = opts
		return sharedStore{h.store}, nil
	})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func (h *harness) put(t *testing.T, ns domain.Namespace, key, value string) {
	t.Helper()
	require.NoError(t, h.store.Put(context.Background(), ns, key, []byte(value)))
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand(&config.Config{StoreBackend: "pebble", PebblePath: "data/snakebot", MutatorShards: 16}, OpenStore)
	assert.Equal(t, "snakectl", cmd.Use)

	for _, name := range []string{"namespaces", "dump", "get", "blacklist", "downvote", "infractions", "rrole", "cache", "boot-times", "version"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	backend := cmd.PersistentFlags().Lookup("backend")
	require.NotNil(t, backend)
	assert.Equal(t, "pebble", backend.DefValue)
	assert.Equal(t, "data/snakebot", cmd.PersistentFlags().Lookup("pebble-path").DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, err := newHarness(t).run(t, "--format", "yaml", "namespaces")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestFlagsReachOpener(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "--backend", "redis", "--redis-url", "redis://cache:6379", "namespaces")
	require.NoError(t, err)
	assert.Equal(t, "redis", h.opts.Backend)
	assert.Equal(t, "redis://cache:6379", h.opts.RedisURL)
}

func TestNamespaces(t *testing.T) {
	h := newHarness(t)
	h.put(t, domain.NamespaceKarma, "u1", "3")
	h.put(t, domain.NamespaceKarma, "u2", "4")

	out, err := h.run(t, "--format", "json", "namespaces")
	require.NoError(t, err)

	var counts []namespaceCount
	require.NoError(t, json.Unmarshal([]byte(out), &counts))
	require.Len(t, counts, len(domain.Namespaces))
	for _, c := range counts {
		if c.Namespace == domain.NamespaceKarma {
			assert.Equal(t, 2, c.Keys)
		}
	}
}

func TestDump(t *testing.T) {
	h := newHarness(t)
	h.put(t, domain.NamespaceInfractions, "g1-a", `{"v":1}`)
	h.put(t, domain.NamespaceInfractions, "g2-a", `{"v":1}`)

	out, err := h.run(t, "dump", "infractions", "--prefix", "g1-")
	require.NoError(t, err)
	assert.Equal(t, "g1-a\t{\"v\":1}\n", out)
}

func TestDump_UnknownNamespace(t *testing.T) {
	_, err := newHarness(t).run(t, "dump", "secrets")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown namespace "secrets"`)
}

func TestGet(t *testing.T) {
	h := newHarness(t)
	h.put(t, domain.NamespaceKarma, "u1", "-2")

	out, err := h.run(t, "get", "karma", "u1")
	require.NoError(t, err)
	assert.Equal(t, "-2\n", out)

	_, err = h.run(t, "get", "karma", "nobody")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no record karma/nobody")
}

func TestBlacklistToggle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	out, err := h.run(t, "blacklist", "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1 is now on the blacklist list\n", out)
	flag, err := record.FlagOf(ctx, h.store, "", "u1")
	require.NoError(t, err)
	assert.Equal(t, record.FlagBlacklist, flag)

	out, err = h.run(t, "blacklist", "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1 is no longer on the blacklist list\n", out)
	_, found, err := h.store.Get(ctx, domain.NamespaceBlacklist, "u1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDownvoteToggle(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "--format", "json", "downvote", "u1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"user_id":"u1","flag":"downvote","enabled":true}`, out)

	flag, err := record.FlagOf(context.Background(), h.store, "", "u1")
	require.NoError(t, err)
	assert.Equal(t, record.FlagDownvote, flag)
}

func TestInfractions(t *testing.T) {
	h := newHarness(t)
	h.put(t, domain.NamespaceInfractions, "g-m",
		`{"v":1,"warnings":[{"id":"w0","reason":"spam","moderator":"mod","at":"2024-05-01"},{"id":"w1","reason":"caps","moderator":"mod","at":"2024-05-02"}],"mutes":[],"kicks":[],"bans":[]}`)

	out, err := h.run(t, "infractions", "show", "g", "m")
	require.NoError(t, err)
	assert.Contains(t, out, "Warnings: 2, Mutes: 0, Kicks: 0, Bans: 0")
	assert.Contains(t, out, "warnings[1] w1 by mod at 2024-05-02: caps")

	out, err = h.run(t, "infractions", "remove", "g", "m", "warn", "0")
	require.NoError(t, err)
	assert.Equal(t, "Removed w0: spam\n", out)

	_, err = h.run(t, "infractions", "remove", "g", "m", "warn", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a number")

	_, err = h.run(t, "infractions", "clear", "g", "m")
	require.NoError(t, err)
	_, err = h.run(t, "infractions", "show", "g", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No infractions found for member")
}

func TestRoleMenusList(t *testing.T) {
	h := newHarness(t)
	h.put(t, domain.NamespaceRoleMenus, "m1", `{"v":1,"roles":{"🔥":"r1","<:drop:9>":"r2"}}`)

	out, err := h.run(t, "rrole", "list")
	require.NoError(t, err)
	assert.Equal(t, "m1\n  <:drop:9> -> r2\n  🔥 -> r1\n", out)
}

func TestCache(t *testing.T) {
	h := newHarness(t)
	h.put(t, domain.NamespaceCache, "a", "1")
	h.put(t, domain.NamespaceCache, "b", "2")

	out, err := h.run(t, "cache", "list")
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", out)

	out, err = h.run(t, "--format", "json", "cache", "wipe")
	require.NoError(t, err)
	assert.JSONEq(t, `{"wiped":2}`, out)

	out, err = h.run(t, "--format", "json", "cache", "list")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)
}

func TestBootTimes(t *testing.T) {
	h := newHarness(t)
	h.put(t, domain.NamespaceSettings, domain.SettingBootTimes, `[1.23457,0.5]`)

	out, err := h.run(t, "boot-times")
	require.NoError(t, err)
	assert.Equal(t, "1.23457s\n0.5s\n", out)
}

func TestVersion(t *testing.T) {
	out, err := newHarness(t).run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "snakebot dev (commit unknown")
}
