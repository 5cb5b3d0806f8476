// Package discord adapts the Discord gateway and REST API to the domain
// interfaces: inbound events become domain events, domain.Platform calls
// become REST requests.
package discord

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sony/gobreaker"

	"github.com/tukib/snakebot/internal/domain"
	"github.com/tukib/snakebot/internal/metrics"
)

const (
	logsChannelName = "logs"
	logColor        = 0x2f3136
	// maxAttachmentBytes bounds downloads of submitted emoji images.
	maxAttachmentBytes = 8 << 20
)

// Platform issues outbound commands through a discordgo session. A circuit
// breaker fails calls fast while Discord keeps erroring; calls are never
// retried.
type Platform struct {
	s  *discordgo.Session
	cb *gobreaker.CircuitBreaker
}

var _ domain.Platform = (*Platform)(nil)

func NewPlatform(s *discordgo.Session) *Platform {
	return &Platform{s: s, cb: newBreaker()}
}

// newBreaker trips after 5 consecutive server-side failures and probes
// again after 30s.
func newBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "discord",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: isBreakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "component", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerStateChanges.WithLabelValues(name, to.String()).Inc()
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateToFloat(to))
		},
	})
}

// isBreakerSuccess counts client errors (missing permissions, unknown
// message) as healthy responses; only rate limits, server errors and
// transport failures trip the breaker.
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil {
		code := rest.Response.StatusCode
		return code < 500 && code != http.StatusTooManyRequests
	}
	return errors.Is(err, context.Canceled)
}

func breakerStateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func do[T any](p *Platform, fn func() (T, error)) (T, error) {
	v, err := p.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func doVoid(p *Platform, fn func() error) error {
	_, err := p.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	return err
}

func (p *Platform) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	return doVoid(p, func() error {
		return p.s.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx))
	})
}

func (p *Platform) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	return doVoid(p, func() error {
		return p.s.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx))
	})
}

func (p *Platform) GuildEmojiExists(ctx context.Context, guildID, name string) (bool, error) {
	emojis, err := do(p, func() ([]*discordgo.Emoji, error) {
		return p.s.GuildEmojis(guildID, discordgo.WithContext(ctx))
	})
	if err != nil {
		return false, err
	}
	for _, e := range emojis {
		if strings.EqualFold(e.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (p *Platform) CreateEmoji(ctx context.Context, guildID, name string, png []byte) (domain.Emoji, error) {
	params := &discordgo.EmojiParams{
		Name:  name,
		Image: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	}
	e, err := do(p, func() (*discordgo.Emoji, error) {
		return p.s.GuildEmojiCreate(guildID, params, discordgo.WithContext(ctx))
	})
	if err != nil {
		return domain.Emoji{}, err
	}
	return toEmoji(*e), nil
}

func (p *Platform) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	return doVoid(p, func() error {
		return p.s.MessageReactionAdd(channelID, messageID, reactionAPIName(emoji), discordgo.WithContext(ctx))
	})
}

// FetchMessage serves from the state cache before asking the API.
func (p *Platform) FetchMessage(ctx context.Context, channelID, messageID string) (domain.Message, error) {
	if m, err := p.s.State.Message(channelID, messageID); err == nil {
		return toMessage(m), nil
	}
	m, err := do(p, func() (*discordgo.Message, error) {
		return p.s.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	})
	if err != nil {
		return domain.Message{}, err
	}
	return toMessage(m), nil
}

func (p *Platform) DownloadAttachment(ctx context.Context, a domain.Attachment) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build attachment request: %w", err)
	}
	return do(p, func() ([]byte, error) {
		resp, err := p.s.Client.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("attachment download: unexpected status %d", resp.StatusCode)
		}
		return io.ReadAll(io.LimitReader(resp.Body, maxAttachmentBytes))
	})
}

// SendLog posts to the guild's "logs" channel. Guilds without one are skipped.
func (p *Platform) SendLog(ctx context.Context, guildID string, entry domain.LogEntry) error {
	channelID, ok, err := p.logsChannel(ctx, guildID)
	if err != nil || !ok {
		return err
	}
	return doVoid(p, func() error {
		_, err := p.s.ChannelMessageSendEmbed(channelID, toEmbed(entry), discordgo.WithContext(ctx))
		return err
	})
}

func (p *Platform) logsChannel(ctx context.Context, guildID string) (string, bool, error) {
	var channels []*discordgo.Channel
	if g, err := p.s.State.Guild(guildID); err == nil {
		channels = g.Channels
	} else {
		channels, err = do(p, func() ([]*discordgo.Channel, error) {
			return p.s.GuildChannels(guildID, discordgo.WithContext(ctx))
		})
		if err != nil {
			return "", false, err
		}
	}
	for _, c := range channels {
		if c.Type == discordgo.ChannelTypeGuildText && c.Name == logsChannelName {
			return c.ID, true, nil
		}
	}
	return "", false, nil
}

func (p *Platform) SendMessage(ctx context.Context, channelID, content string) (string, error) {
	m, err := do(p, func() (*discordgo.Message, error) {
		return p.s.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	})
	if err != nil {
		return "", err
	}
	return m.ID, nil
}

func (p *Platform) EditMessage(ctx context.Context, channelID, messageID, content string) error {
	return doVoid(p, func() error {
		_, err := p.s.ChannelMessageEdit(channelID, messageID, content, discordgo.WithContext(ctx))
		return err
	})
}

func (p *Platform) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return doVoid(p, func() error {
		return p.s.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
	})
}

// DisconnectVoice moves the member to no channel.
func (p *Platform) DisconnectVoice(ctx context.Context, guildID, userID string) error {
	return doVoid(p, func() error {
		return p.s.GuildMemberMove(guildID, userID, nil, discordgo.WithContext(ctx))
	})
}

func (p *Platform) ListInvites(ctx context.Context, guildID string) ([]domain.Invite, error) {
	invites, err := do(p, func() ([]*discordgo.Invite, error) {
		return p.s.GuildInvites(guildID, discordgo.WithContext(ctx))
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Invite, 0, len(invites))
	for _, inv := range invites {
		out = append(out, domain.Invite{Code: inv.Code, Uses: inv.Uses})
	}
	return out, nil
}

func (p *Platform) FindRole(ctx context.Context, guildID, name string) (string, bool, error) {
	roles, err := do(p, func() ([]*discordgo.Role, error) {
		return p.s.GuildRoles(guildID, discordgo.WithContext(ctx))
	})
	if err != nil {
		return "", false, err
	}
	for _, r := range roles {
		if strings.EqualFold(r.Name, name) {
			return r.ID, true, nil
		}
	}
	return "", false, nil
}

func (p *Platform) ChannelExists(ctx context.Context, guildID, channelID string) (bool, error) {
	if c, err := p.s.State.Channel(channelID); err == nil {
		return c.GuildID == guildID, nil
	}
	c, err := do(p, func() (*discordgo.Channel, error) {
		return p.s.Channel(channelID, discordgo.WithContext(ctx))
	})
	if err != nil {
		var rest *discordgo.RESTError
		if errors.As(err, &rest) && rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}
	return c.GuildID == guildID, nil
}
