package domain

import "strings"

// Namespace is a logical partition of the key-value store.
type Namespace string

const (
	NamespacePolls            Namespace = "polls"
	NamespaceEmojiSubmissions Namespace = "emoji_submissions"
	NamespaceRoleMenus        Namespace = "rrole"
	NamespaceInfractions      Namespace = "infractions"
	NamespaceBlacklist        Namespace = "blacklist"
	NamespaceEdited           Namespace = "edited"
	NamespaceDeleted          Namespace = "deleted"
	NamespaceNicks            Namespace = "nicks"
	NamespaceInvites          Namespace = "invites"
	NamespaceMessageCount     Namespace = "message_count"
	NamespaceKarma            Namespace = "karma"
	NamespaceSettings         Namespace = "settings"
	NamespaceCache            Namespace = "cache"
)

// Namespaces lists every namespace the agent writes.
var Namespaces = []Namespace{
	NamespacePolls,
	NamespaceEmojiSubmissions,
	NamespaceRoleMenus,
	NamespaceInfractions,
	NamespaceBlacklist,
	NamespaceEdited,
	NamespaceDeleted,
	NamespaceNicks,
	NamespaceInvites,
	NamespaceMessageCount,
	NamespaceKarma,
	NamespaceSettings,
	NamespaceCache,
}

// KeySeparator joins the parts of a composite key.
const KeySeparator = "-"

// CompositeKey joins parts with the canonical separator, e.g. guild_id-member_id.
// Every composite key must be built here; a different separator silently misses.
func CompositeKey(parts ...string) string {
	return strings.Join(parts, KeySeparator)
}

// Settings keys.
const (
	SettingBootTimes = "boot_times"
)

// LoggingDisabledKey marks a guild that opted out of edit/delete logging.
func LoggingDisabledKey(guildID string) string { return CompositeKey(guildID, "logging") }

// DisabledChannelsKey holds the JSON list of channels where commands are ignored.
func DisabledChannelsKey(guildID string) string {
	return CompositeKey(guildID, "disabled_channels")
}

// DisabledCommandKey marks a command as disabled for a guild. Commands named
// after a reserved setting have no key of their own; see IsReservedSetting.
func DisabledCommandKey(guildID, command string) string { return CompositeKey(guildID, command) }

var reservedSettings = map[string]bool{
	"logging":           true,
	"disabled_channels": true,
	"snipe_message":     true,
	"editsnipe_message": true,
}

// IsReservedSetting reports whether DisabledCommandKey(guild, name) would
// address another guild setting.
func IsReservedSetting(name string) bool { return reservedSettings[name] }

// SnipeKey holds the last deleted message of a guild.
func SnipeKey(guildID string) string { return CompositeKey(guildID, "snipe_message") }

// EditSnipeKey holds the last edited message of a guild.
func EditSnipeKey(guildID string) string { return CompositeKey(guildID, "editsnipe_message") }

// InviteBaselineKey holds the last observed use count of an invite.
func InviteBaselineKey(code, guildID string) string { return CompositeKey(code, guildID) }
