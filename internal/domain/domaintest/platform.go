// Package domaintest provides in-memory fakes of the outbound domain
// interfaces. Test use only.
package domaintest

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/tukib/snakebot/internal/domain"
	apperrors "github.com/tukib/snakebot/internal/errors"
)

// Call is one recorded Platform invocation.
type Call struct {
	Method string
	Args   []string
}

// Log is one recorded SendLog invocation.
type Log struct {
	GuildID string
	Entry   domain.LogEntry
}

// Platform records every call and serves canned state. All fields may be
// seeded before use; access them through the accessor methods afterwards.
type Platform struct {
	mu sync.Mutex

	Messages    map[string]domain.Message    // message id
	Attachments map[string][]byte            // attachment url
	Emojis      map[string]map[string]bool   // guild id -> emoji name
	Invites     map[string][]domain.Invite   // guild id
	Roles       map[string]map[string]string // guild id -> role name -> role id
	Channels    map[string]map[string]bool   // guild id -> channel id
	Fail        map[string]error             // method -> error returned by it

	calls  []Call
	logs   []Log
	nextID int
}

var _ domain.Platform = (*Platform)(nil)

func NewPlatform() *Platform {
	return &Platform{
		Messages:    make(map[string]domain.Message),
		Attachments: make(map[string][]byte),
		Emojis:      make(map[string]map[string]bool),
		Invites:     make(map[string][]domain.Invite),
		Roles:       make(map[string]map[string]string),
		Channels:    make(map[string]map[string]bool),
		Fail:        make(map[string]error),
	}
}

// record appends a call and returns the configured failure, if any. Callers hold mu.
func (p *Platform) record(method string, args ...string) error {
	p.calls = append(p.calls, Call{Method: method, Args: args})
	if err := p.Fail[method]; err != nil {
		return err
	}
	return nil
}

func (p *Platform) AddRole(_ context.Context, guildID, userID, roleID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.record("AddRole", guildID, userID, roleID)
}

func (p *Platform) RemoveRole(_ context.Context, guildID, userID, roleID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.record("RemoveRole", guildID, userID, roleID)
}

func (p *Platform) GuildEmojiExists(_ context.Context, guildID, name string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("GuildEmojiExists", guildID, name); err != nil {
		return false, err
	}
	return p.Emojis[guildID][name], nil
}

func (p *Platform) CreateEmoji(_ context.Context, guildID, name string, png []byte) (domain.Emoji, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("CreateEmoji", guildID, name, strconv.Itoa(len(png))); err != nil {
		return domain.Emoji{}, err
	}
	if p.Emojis[guildID] == nil {
		p.Emojis[guildID] = make(map[string]bool)
	}
	p.Emojis[guildID][name] = true
	p.nextID++
	return domain.Emoji{ID: fmt.Sprintf("e%d", p.nextID), Name: name, Custom: true}, nil
}

func (p *Platform) AddReaction(_ context.Context, channelID, messageID, emoji string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.record("AddReaction", channelID, messageID, emoji)
}

func (p *Platform) FetchMessage(_ context.Context, channelID, messageID string) (domain.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("FetchMessage", channelID, messageID); err != nil {
		return domain.Message{}, err
	}
	msg, ok := p.Messages[messageID]
	if !ok {
		return domain.Message{}, apperrors.NotFoundError("message not found")
	}
	return msg, nil
}

func (p *Platform) DownloadAttachment(_ context.Context, a domain.Attachment) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("DownloadAttachment", a.URL); err != nil {
		return nil, err
	}
	b, ok := p.Attachments[a.URL]
	if !ok {
		return nil, apperrors.NotFoundError("attachment not found")
	}
	return b, nil
}

func (p *Platform) SendLog(_ context.Context, guildID string, entry domain.LogEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("SendLog", guildID, entry.Title); err != nil {
		return err
	}
	p.logs = append(p.logs, Log{GuildID: guildID, Entry: entry})
	return nil
}

func (p *Platform) SendMessage(_ context.Context, channelID, content string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("SendMessage", channelID, content); err != nil {
		return "", err
	}
	p.nextID++
	id := fmt.Sprintf("m%d", p.nextID)
	p.Messages[id] = domain.Message{ID: id, ChannelID: channelID, Content: content}
	return id, nil
}

func (p *Platform) EditMessage(_ context.Context, channelID, messageID, content string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("EditMessage", channelID, messageID, content); err != nil {
		return err
	}
	msg := p.Messages[messageID]
	msg.Content = content
	p.Messages[messageID] = msg
	return nil
}

func (p *Platform) DeleteMessage(_ context.Context, channelID, messageID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("DeleteMessage", channelID, messageID); err != nil {
		return err
	}
	delete(p.Messages, messageID)
	return nil
}

func (p *Platform) DisconnectVoice(_ context.Context, guildID, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.record("DisconnectVoice", guildID, userID)
}

func (p *Platform) ListInvites(_ context.Context, guildID string) ([]domain.Invite, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("ListInvites", guildID); err != nil {
		return nil, err
	}
	return slices.Clone(p.Invites[guildID]), nil
}

func (p *Platform) FindRole(_ context.Context, guildID, name string) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("FindRole", guildID, name); err != nil {
		return "", false, err
	}
	for roleName, id := range p.Roles[guildID] {
		if strings.EqualFold(roleName, name) {
			return id, true, nil
		}
	}
	return "", false, nil
}

func (p *Platform) ChannelExists(_ context.Context, guildID, channelID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("ChannelExists", guildID, channelID); err != nil {
		return false, err
	}
	return p.Channels[guildID][channelID], nil
}

// SetFail makes method return err from now on; nil clears it.
func (p *Platform) SetFail(method string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		delete(p.Fail, method)
		return
	}
	p.Fail[method] = err
}

// Calls returns the recorded calls to method, or all calls when method is empty.
func (p *Platform) Calls(method string) []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Call
	for _, c := range p.calls {
		if method == "" || c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Logs returns the recorded log announcements.
func (p *Platform) Logs() []Log {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.logs)
}

// Message returns the current state of a sent or seeded message.
func (p *Platform) Message(id string) (domain.Message, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.Messages[id]
	return m, ok
}
