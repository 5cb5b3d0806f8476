package record

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tukib/snakebot/internal/domain"
	apperrors "github.com/tukib/snakebot/internal/errors"
	"github.com/tukib/snakebot/internal/kv"
)

func TestDecode_AbsentIsEmptyDefault(t *testing.T) {
	p, err := Polls.Decode(nil, false)
	require.NoError(t, err)
	assert.NotNil(t, p.Messages)
	assert.Empty(t, p.Messages)

	menu, err := RoleMenus.Decode(nil, false)
	require.NoError(t, err)
	assert.Empty(t, menu.Roles)
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Polls.Decode([]byte("{not json"), true)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindMalformed, apperrors.KindOf(err))

	_, err = LastDelete.Decode([]byte(`{"content":"x"}`), true)
	assert.True(t, apperrors.Is(err, apperrors.KindMalformed))
}

func TestDecode_RejectsNewerVersion(t *testing.T) {
	_, err := Submissions.Decode([]byte(`{"v":2,"name":"cat","voters":[]}`), true)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindMalformed, apperrors.KindOf(err))
}

func TestDecode_AcceptsUnversioned(t *testing.T) {
	s, err := Submissions.Decode([]byte(`{"name":"cat","guild_id":"9","voters":["1"]}`), true)
	require.NoError(t, err)
	assert.Equal(t, "cat", s.Name)
	assert.Equal(t, []string{"1"}, s.Voters)
}

func TestEncode_StampsVersion(t *testing.T) {
	b, err := RoleMenus.Encode(RoleMenu{Roles: map[string]string{"👍": "42"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1,"roles":{"👍":"42"}}`, string(b))
}

func TestPoll_TrackAndIncrement(t *testing.T) {
	var p Poll
	p.Track("m1", []string{"👍", "👎"})
	assert.True(t, p.Increment("m1", "👍"))
	assert.False(t, p.Increment("m1", "🤷"))
	assert.False(t, p.Increment("m2", "👍"))

	p.Track("m1", []string{"👍", "🤷"})
	assert.Equal(t, 1, p.Count("m1", "👍"), "re-tracking keeps counts")
	assert.Equal(t, 0, p.Count("m1", "🤷"))

	b, err := Polls.Encode(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1,"messages":{"m1":{"👍":{"count":1},"👎":{"count":0},"🤷":{"count":0}}}}`, string(b))
}

func TestSubmission_AddVoterIsIdempotent(t *testing.T) {
	var s Submission
	assert.True(t, s.AddVoter("1"))
	assert.False(t, s.AddVoter("1"))
	assert.True(t, s.AddVoter("2"))
	assert.Equal(t, []string{"1", "2"}, s.Voters)
}

func TestRoleMenu_Resolve(t *testing.T) {
	menu := RoleMenu{Roles: map[string]string{
		"👍":            "r1",
		"<:snake:111>": "r2",
		"party":        "r3",
		"blob:222":     "r4",
	}}

	tests := []struct {
		name  string
		emoji domain.Emoji
		want  string
		found bool
	}{
		{"unicode literal", domain.Emoji{Name: "👍"}, "r1", true},
		{"custom exact", domain.Emoji{ID: "111", Name: "snake", Custom: true}, "r2", true},
		{"custom name fallback", domain.Emoji{ID: "333", Name: "party", Custom: true}, "r3", true},
		{"custom name:id", domain.Emoji{ID: "222", Name: "blob", Custom: true}, "r4", true},
		{"unknown", domain.Emoji{Name: "🎉"}, "", false},
		{"unicode literal equal to a stored name", domain.Emoji{Name: "party"}, "r3", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := menu.Resolve(tt.emoji)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoleMenu_MergePreservesExisting(t *testing.T) {
	menu := RoleMenu{Roles: map[string]string{"👍": "r1"}}
	menu.Merge(map[string]string{"👎": "r2"})
	assert.Equal(t, map[string]string{"👍": "r1", "👎": "r2"}, menu.Roles)
}

func TestInfractionLog_Entries(t *testing.T) {
	var l InfractionLog
	assert.True(t, l.Empty())
	*l.Entries(KindMute) = append(*l.Entries(KindMute), Infraction{ID: "a", Reason: "spam"})
	assert.Len(t, l.Mutes, 1)
	assert.False(t, l.Empty())
	assert.Nil(t, l.Entries("hugs"))

	kind, ok := ParseInfractionKind("warn")
	assert.True(t, ok)
	assert.Equal(t, KindWarning, kind)
	_, ok = ParseInfractionKind("hug")
	assert.False(t, ok)
}

func TestNameLog_Record(t *testing.T) {
	var l NameLog
	l.Record("old", "new", "2024-01-01 10:00:00")
	assert.Equal(t, "new", l.Current)
	assert.Equal(t, "2024-01-01 10:00:00", l.CurrentSince)
	assert.Equal(t, map[string]string{"2024-01-01 10:00:00": "old"}, l.Past)

	l.Record("new", "newer", "2024-02-01 10:00:00")
	assert.Equal(t, "newer", l.Current)
	assert.Equal(t, map[string]string{
		"2024-01-01 10:00:00": "old",
		"2024-02-01 10:00:00": "new",
	}, l.Past, "an entry dated by the old current is never overwritten")
}

func TestNameLog_RecordFilesUnderPreviousCurrent(t *testing.T) {
	l := NameLog{Current: "b", CurrentSince: "2024-01-01 10:00:00", Past: map[string]string{}}
	l.Record("b", "c", "2024-03-01 10:00:00")
	assert.Equal(t, map[string]string{"2024-01-01 10:00:00": "b"}, l.Past)
}

func TestNameLog_RecordSameSecond(t *testing.T) {
	var l NameLog
	l.Record("a", "b", "2024-01-01 10:00:00")
	l.Record("b", "c", "2024-01-01 10:00:00")
	assert.Equal(t, map[string]string{"2024-01-01 10:00:00": "a"}, l.Past)
	assert.Equal(t, "c", l.Current)
}

func TestNameHistory_WireFormat(t *testing.T) {
	h := NameHistory{}
	h.Nicks.Record("old", "new", "2024-01-01 10:00:00")

	b, err := Names.Encode(h)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	nicks := raw["nicks"].(map[string]any)
	assert.Equal(t, "old", nicks["2024-01-01 10:00:00"])
	assert.Equal(t, []any{"new", "2024-01-01 10:00:00"}, nicks["current"])

	back, err := Names.Decode(b, true)
	require.NoError(t, err)
	assert.Equal(t, h.Nicks.Current, back.Nicks.Current)
	assert.Equal(t, h.Nicks.Past, back.Nicks.Past)
}

func TestNameLog_NullPastName(t *testing.T) {
	var l NameLog
	require.NoError(t, json.Unmarshal([]byte(`{"2024-01-01 10:00:00":null}`), &l))
	assert.Equal(t, "", l.Past["2024-01-01 10:00:00"])
}

func TestSnipeWireFormat(t *testing.T) {
	b, err := LastEdit.Encode(EditSnipe{Before: "a", After: "b", Author: "snek"})
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b","snek"]`, string(b))

	s, err := LastDelete.Decode([]byte(`["gone","snek"]`), true)
	require.NoError(t, err)
	assert.Equal(t, Snipe{Content: "gone", Author: "snek"}, s)
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()

	p, err := Load(ctx, store, Polls, "guild")
	require.NoError(t, err)
	assert.Empty(t, p.Messages)

	require.NoError(t, store.Put(ctx, domain.NamespacePolls, "guild", []byte("garbage")))
	_, err = Load(ctx, store, Polls, "guild")
	require.Error(t, err)
	se := apperrors.AsStructuredError(err)
	require.NotNil(t, se)
	assert.Equal(t, "guild", se.Context["key"])
	assert.Equal(t, domain.NamespacePolls, se.Context["namespace"])
}
