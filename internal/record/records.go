package record

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/tukib/snakebot/internal/domain"
)

// TimeLayout formats history timestamps (local clock, second precision).
const TimeLayout = "2006-01-02 15:04:05"

// PollOption is one tracked emoji of a poll message.
type PollOption struct {
	Count int `json:"count"`
}

// Poll holds every tracked poll of a guild: message id -> emoji -> option.
type Poll struct {
	Header
	Messages map[string]map[string]PollOption `json:"messages"`
}

// Track registers a message and its emoji, keeping counts already recorded.
func (p *Poll) Track(messageID string, emojis []string) {
	if p.Messages == nil {
		p.Messages = make(map[string]map[string]PollOption)
	}
	options := p.Messages[messageID]
	if options == nil {
		options = make(map[string]PollOption, len(emojis))
		p.Messages[messageID] = options
	}
	for _, e := range emojis {
		if _, ok := options[e]; !ok {
			options[e] = PollOption{}
		}
	}
}

// Increment counts one vote. It reports false when the message or emoji is untracked.
func (p *Poll) Increment(messageID, emoji string) bool {
	options, ok := p.Messages[messageID]
	if !ok {
		return false
	}
	opt, ok := options[emoji]
	if !ok {
		return false
	}
	opt.Count++
	options[emoji] = opt
	return true
}

// Count returns the tally of one option, zero when untracked.
func (p Poll) Count(messageID, emoji string) int {
	return p.Messages[messageID][emoji].Count
}

// Submission is a pending emoji submission awaiting votes.
type Submission struct {
	Header
	Name    string   `json:"name"`
	GuildID string   `json:"guild_id"`
	Voters  []string `json:"voters"`
}

// AddVoter adds userID once. It reports whether the voter set changed.
func (s *Submission) AddVoter(userID string) bool {
	if slices.Contains(s.Voters, userID) {
		return false
	}
	s.Voters = append(s.Voters, userID)
	return true
}

// RoleMenu maps emoji (literal or custom name) to role ids.
type RoleMenu struct {
	Header
	Roles map[string]string `json:"roles"`
}

// Resolve finds the role for a reaction: the exact emoji string first, then
// name:id and finally the bare custom emoji name.
func (r RoleMenu) Resolve(e domain.Emoji) (string, bool) {
	if role, ok := r.Roles[e.String()]; ok {
		return role, true
	}
	if !e.Custom {
		return "", false
	}
	if role, ok := r.Roles[e.Name+":"+e.ID]; ok {
		return role, true
	}
	role, ok := r.Roles[e.Name]
	return role, ok
}

// Merge adds pairs, overwriting duplicates and preserving the rest.
func (r *RoleMenu) Merge(pairs map[string]string) {
	if r.Roles == nil {
		r.Roles = make(map[string]string, len(pairs))
	}
	for emoji, role := range pairs {
		r.Roles[emoji] = role
	}
}

// Infraction is one moderation entry.
type Infraction struct {
	ID        string `json:"id"`
	Reason    string `json:"reason"`
	Moderator string `json:"moderator"`
	At        string `json:"at"`
}

// InfractionKind names one of the four infraction sequences.
type InfractionKind string

const (
	KindWarning InfractionKind = "warnings"
	KindMute    InfractionKind = "mutes"
	KindKick    InfractionKind = "kicks"
	KindBan     InfractionKind = "bans"
)

// InfractionKinds lists the kinds in display order.
var InfractionKinds = []InfractionKind{KindWarning, KindMute, KindKick, KindBan}

// ParseInfractionKind accepts the plural and singular forms ("warn", "warning", "warnings").
func ParseInfractionKind(s string) (InfractionKind, bool) {
	switch s {
	case "warn", "warning", "warnings":
		return KindWarning, true
	case "mute", "mutes":
		return KindMute, true
	case "kick", "kicks":
		return KindKick, true
	case "ban", "bans":
		return KindBan, true
	}
	return "", false
}

// InfractionLog holds every infraction of one member in one guild.
type InfractionLog struct {
	Header
	Warnings []Infraction `json:"warnings"`
	Mutes    []Infraction `json:"mutes"`
	Kicks    []Infraction `json:"kicks"`
	Bans     []Infraction `json:"bans"`
}

// Entries returns a pointer to the sequence of kind.
func (l *InfractionLog) Entries(kind InfractionKind) *[]Infraction {
	switch kind {
	case KindWarning:
		return &l.Warnings
	case KindMute:
		return &l.Mutes
	case KindKick:
		return &l.Kicks
	case KindBan:
		return &l.Bans
	}
	return nil
}

// Empty reports whether no infraction of any kind is recorded.
func (l InfractionLog) Empty() bool {
	return len(l.Warnings)+len(l.Mutes)+len(l.Kicks)+len(l.Bans) == 0
}

// EditLog maps timestamps to [before, after] message content.
type EditLog struct {
	Header
	Entries map[string][2]string `json:"entries"`
}

func (l *EditLog) Append(at, before, after string) {
	if l.Entries == nil {
		l.Entries = make(map[string][2]string)
	}
	l.Entries[at] = [2]string{before, after}
}

// DeleteLog maps timestamps to deleted message content.
type DeleteLog struct {
	Header
	Entries map[string]string `json:"entries"`
}

func (l *DeleteLog) Append(at, content string) {
	if l.Entries == nil {
		l.Entries = make(map[string]string)
	}
	l.Entries[at] = content
}

// NameLog is a history of one name kind. Past maps the time a name was
// adopted to that name; Current is the name in use now and since when.
type NameLog struct {
	Current      string
	CurrentSince string
	Past         map[string]string
}

const currentField = "current"

// Record stores a transition to name at now. The previous name is filed under
// the time it became current, or now when no history exists. Past entries are
// never overwritten: when that date is taken the name is filed under now, and
// dropped only if both dates are taken.
func (l *NameLog) Record(before, after, now string) {
	if l.Past == nil {
		l.Past = make(map[string]string)
	}
	since := now
	if l.CurrentSince != "" {
		since = l.CurrentSince
	}
	if _, taken := l.Past[since]; taken {
		since = now
	}
	if _, taken := l.Past[since]; !taken {
		l.Past[since] = before
	}
	l.Current = after
	l.CurrentSince = now
}

// MarshalJSON writes the flat object {date: name, ..., "current": [name, date]}.
func (l NameLog) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(l.Past)+1)
	for at, name := range l.Past {
		out[at] = name
	}
	if l.CurrentSince != "" {
		out[currentField] = [2]string{l.Current, l.CurrentSince}
	}
	return json.Marshal(out)
}

func (l *NameLog) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*l = NameLog{Past: make(map[string]string, len(raw))}
	for k, v := range raw {
		if k == currentField {
			var cur [2]string
			if err := json.Unmarshal(v, &cur); err != nil {
				return fmt.Errorf("current entry: %w", err)
			}
			l.Current, l.CurrentSince = cur[0], cur[1]
			continue
		}
		var name *string
		if err := json.Unmarshal(v, &name); err != nil {
			return fmt.Errorf("entry %s: %w", k, err)
		}
		if name != nil {
			l.Past[k] = *name
		} else {
			l.Past[k] = ""
		}
	}
	return nil
}

// NameHistory holds the nickname and username history of one member.
type NameHistory struct {
	Header
	Nicks NameLog `json:"nicks"`
	Names NameLog `json:"names"`
}

// Snipe is the last deleted message of a guild, stored as [content, author].
type Snipe struct {
	Content string
	Author  string
}

func (s Snipe) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{s.Content, s.Author})
}

func (s *Snipe) UnmarshalJSON(b []byte) error {
	var v [2]string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	s.Content, s.Author = v[0], v[1]
	return nil
}

// EditSnipe is the last edited message of a guild, stored as [before, after, author].
type EditSnipe struct {
	Before string
	After  string
	Author string
}

func (s EditSnipe) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]string{s.Before, s.After, s.Author})
}

func (s *EditSnipe) UnmarshalJSON(b []byte) error {
	var v [3]string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	s.Before, s.After, s.Author = v[0], v[1], v[2]
	return nil
}

// Codecs, one per record layout.
var (
	Polls = jsonCodec(domain.NamespacePolls, func() Poll {
		return Poll{Messages: map[string]map[string]PollOption{}}
	})
	Submissions = jsonCodec(domain.NamespaceEmojiSubmissions, func() Submission {
		return Submission{}
	})
	RoleMenus = jsonCodec(domain.NamespaceRoleMenus, func() RoleMenu {
		return RoleMenu{Roles: map[string]string{}}
	})
	Infractions = jsonCodec(domain.NamespaceInfractions, func() InfractionLog {
		return InfractionLog{}
	})
	Edits = jsonCodec(domain.NamespaceEdited, func() EditLog {
		return EditLog{Entries: map[string][2]string{}}
	})
	Deletes = jsonCodec(domain.NamespaceDeleted, func() DeleteLog {
		return DeleteLog{Entries: map[string]string{}}
	})
	Names = jsonCodec(domain.NamespaceNicks, func() NameHistory {
		return NameHistory{}
	})

	DisabledChannels = jsonCodec(domain.NamespaceSettings, func() []string { return nil })
	LastDelete       = jsonCodec(domain.NamespaceSettings, func() Snipe { return Snipe{} })
	LastEdit         = jsonCodec(domain.NamespaceSettings, func() EditSnipe { return EditSnipe{} })
	BootTimes        = jsonCodec(domain.NamespaceSettings, func() []float64 { return nil })
)
