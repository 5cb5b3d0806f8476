package record

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tukib/snakebot/internal/domain"
	apperrors "github.com/tukib/snakebot/internal/errors"
)

// Flag is the single-byte blacklist marker.
type Flag byte

const (
	FlagNone      Flag = 0
	FlagDownvote  Flag = '1'
	FlagBlacklist Flag = '2'
)

func (f Flag) String() string {
	switch f {
	case FlagDownvote:
		return "downvote"
	case FlagBlacklist:
		return "blacklist"
	}
	return "none"
}

// DecodeFlag treats absence as FlagNone. Any stored value other than a known
// flag still counts as flagged, as FlagBlacklist.
func DecodeFlag(b []byte, found bool) Flag {
	if !found || len(b) == 0 {
		return FlagNone
	}
	switch Flag(b[0]) {
	case FlagDownvote:
		return FlagDownvote
	default:
		return FlagBlacklist
	}
}

func EncodeFlag(f Flag) []byte {
	return []byte{byte(f)}
}

// FlagOf returns the blacklist flag of a user, checking the guild-scoped key
// before the global one. guildID may be empty.
func FlagOf(ctx context.Context, store domain.KVStore, guildID, userID string) (Flag, error) {
	if guildID != "" {
		b, found, err := store.Get(ctx, domain.NamespaceBlacklist, domain.CompositeKey(guildID, userID))
		if err != nil {
			return FlagNone, fmt.Errorf("failed to read guild flag: %w", err)
		}
		if f := DecodeFlag(b, found); f != FlagNone {
			return f, nil
		}
	}
	b, found, err := store.Get(ctx, domain.NamespaceBlacklist, userID)
	if err != nil {
		return FlagNone, fmt.Errorf("failed to read global flag: %w", err)
	}
	return DecodeFlag(b, found), nil
}

// DecodeCounter parses decimal text. Absence is zero.
func DecodeCounter(b []byte, found bool) (int64, error) {
	if !found {
		return 0, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(string(b)), 10, 64)
	if err != nil {
		return 0, apperrors.MalformedError("undecodable counter", err)
	}
	return n, nil
}

func EncodeCounter(n int64) []byte {
	return strconv.AppendInt(nil, n, 10)
}

// LoadCounter reads one counter.
func LoadCounter(ctx context.Context, store domain.KVStore, ns domain.Namespace, key string) (int64, error) {
	b, found, err := store.Get(ctx, ns, key)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s/%s: %w", ns, key, err)
	}
	n, err := DecodeCounter(b, found)
	if err != nil {
		return 0, withKey(err, key)
	}
	return n, nil
}

// AddCounter adds delta inside one serialized cycle and returns the new value.
func AddCounter(ctx context.Context, m *Mutator, ns domain.Namespace, key string, delta int64) (int64, error) {
	var out int64
	err := m.Mutate(ctx, ns, key, func(current []byte, found bool) ([]byte, Action, error) {
		n, err := DecodeCounter(current, found)
		if err != nil {
			return nil, Keep, withKey(err, key)
		}
		out = n + delta
		return EncodeCounter(out), Put, nil
	})
	return out, err
}
