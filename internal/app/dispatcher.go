package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/tukib/snakebot/internal/audit"
	"github.com/tukib/snakebot/internal/domain"
	apperrors "github.com/tukib/snakebot/internal/errors"
	"github.com/tukib/snakebot/internal/metrics"
	"github.com/tukib/snakebot/internal/moderation"
	"github.com/tukib/snakebot/internal/platform/correlation"
	"github.com/tukib/snakebot/internal/reaction"
)

// Event names used in logs and metric labels.
const (
	EventReactionAdd    = "reaction_add"
	EventReactionRemove = "reaction_remove"
	EventReactionClear  = "reaction_clear"
	EventMessage        = "message"
	EventMessageEdit    = "message_edit"
	EventMessageDelete  = "message_delete"
	EventMemberUpdate   = "member_update"
	EventUserUpdate     = "user_update"
	EventMemberJoin     = "member_join"
	EventMemberLeave    = "member_leave"
	EventInviteCreate   = "invite_create"
	EventInviteDelete   = "invite_delete"
	EventVoiceJoin      = "voice_join"
)

// Dispatcher is the single entry point for inbound platform events. Every
// method tags ctx with a correlation id, runs the handlers, and logs and
// counts the outcome. Errors are returned so callers can test them; the
// gateway adapter ignores them after logging.
type Dispatcher struct {
	router   *reaction.Router
	enforcer *moderation.Enforcer
	tracker  *audit.Tracker
	clock    clockwork.Clock
}

func NewDispatcher(router *reaction.Router, enforcer *moderation.Enforcer, tracker *audit.Tracker, clock clockwork.Clock) *Dispatcher {
	return &Dispatcher{router: router, enforcer: enforcer, tracker: tracker, clock: clock}
}

func (d *Dispatcher) OnReaction(ctx context.Context, ev domain.ReactionEvent) error {
	name := EventReactionAdd
	if ev.Action == domain.ReactionRemove {
		name = EventReactionRemove
	}
	return d.handle(ctx, name, func(ctx context.Context) error {
		return errors.Join(
			d.router.Route(ctx, ev),
			d.enforcer.OnReaction(ctx, ev),
		)
	}, "guild_id", ev.GuildID, "message_id", ev.MessageID, "user_id", ev.UserID)
}

func (d *Dispatcher) OnReactionClear(ctx context.Context, ev domain.ReactionClear) error {
	return d.handle(ctx, EventReactionClear, func(ctx context.Context) error {
		return d.enforcer.OnReactionClear(ctx, ev)
	}, "guild_id", ev.Message.GuildID, "message_id", ev.Message.ID)
}

func (d *Dispatcher) OnMessage(ctx context.Context, msg domain.Message) error {
	return d.handle(ctx, EventMessage, func(ctx context.Context) error {
		return d.enforcer.OnMessage(ctx, msg)
	}, "guild_id", msg.GuildID, "message_id", msg.ID)
}

func (d *Dispatcher) OnMessageEdit(ctx context.Context, ev domain.MessageEdit) error {
	return d.handle(ctx, EventMessageEdit, func(ctx context.Context) error {
		return d.tracker.OnEdit(ctx, ev)
	}, "guild_id", ev.After.GuildID, "message_id", ev.After.ID)
}

func (d *Dispatcher) OnMessageDelete(ctx context.Context, msg domain.Message) error {
	return d.handle(ctx, EventMessageDelete, func(ctx context.Context) error {
		return d.tracker.OnDelete(ctx, msg)
	}, "guild_id", msg.GuildID, "message_id", msg.ID)
}

func (d *Dispatcher) OnMemberUpdate(ctx context.Context, ev domain.MemberUpdate) error {
	return d.handle(ctx, EventMemberUpdate, func(ctx context.Context) error {
		return d.tracker.OnMemberUpdate(ctx, ev)
	}, "guild_id", ev.GuildID, "member_id", ev.MemberID)
}

func (d *Dispatcher) OnUserUpdate(ctx context.Context, ev domain.UserUpdate) error {
	return d.handle(ctx, EventUserUpdate, func(ctx context.Context) error {
		return d.tracker.OnUserUpdate(ctx, ev)
	}, "user_id", ev.UserID)
}

func (d *Dispatcher) OnMemberJoin(ctx context.Context, ev domain.MemberJoin) error {
	return d.handle(ctx, EventMemberJoin, func(ctx context.Context) error {
		return d.tracker.OnMemberJoin(ctx, ev)
	}, "guild_id", ev.GuildID, "member_id", ev.MemberID)
}

func (d *Dispatcher) OnMemberLeave(ctx context.Context, ev domain.MemberLeave) error {
	return d.handle(ctx, EventMemberLeave, func(ctx context.Context) error {
		return d.tracker.OnMemberLeave(ctx, ev)
	}, "guild_id", ev.GuildID, "member_id", ev.MemberID)
}

func (d *Dispatcher) OnInviteCreate(ctx context.Context, ev domain.InviteChange) error {
	return d.handle(ctx, EventInviteCreate, func(ctx context.Context) error {
		return d.tracker.OnInviteCreate(ctx, ev)
	}, "guild_id", ev.GuildID, "code", ev.Code)
}

func (d *Dispatcher) OnInviteDelete(ctx context.Context, ev domain.InviteChange) error {
	return d.handle(ctx, EventInviteDelete, func(ctx context.Context) error {
		return d.tracker.OnInviteDelete(ctx, ev)
	}, "guild_id", ev.GuildID, "code", ev.Code)
}

func (d *Dispatcher) OnVoiceJoin(ctx context.Context, ev domain.VoiceJoin) error {
	return d.handle(ctx, EventVoiceJoin, func(ctx context.Context) error {
		return d.enforcer.OnVoiceJoin(ctx, ev)
	}, "guild_id", ev.GuildID, "member_id", ev.MemberID)
}

func (d *Dispatcher) handle(ctx context.Context, event string, fn func(context.Context) error, attrs ...any) error {
	ctx, _ = correlation.Ensure(ctx)
	start := d.clock.Now()

	err := fn(ctx)

	metrics.EventDuration.WithLabelValues(event).Observe(d.clock.Since(start).Seconds())
	result := "ok"
	if err != nil {
		result = string(apperrors.KindOf(err))
		logEventError(ctx, event, err, attrs)
	}
	metrics.EventsTotal.WithLabelValues(event, result).Inc()
	return err
}

// logEventError logs malformed records at error level with their location.
// Platform rejections and bad input are warnings.
func logEventError(ctx context.Context, event string, err error, attrs []any) {
	args := append([]any{"event", event, "error", err}, attrs...)

	switch {
	case apperrors.Is(err, apperrors.KindMalformed):
		args = append(args, malformedFields(err)...)
		slog.ErrorContext(ctx, "Stored record is malformed", args...)
	case apperrors.KindOf(err) == apperrors.KindInternal:
		slog.ErrorContext(ctx, "Event handling failed", args...)
	default:
		slog.WarnContext(ctx, "Event handling failed", args...)
	}
}

// malformedFields returns the namespace and key recorded on the malformed
// error in err's chain.
func malformedFields(err error) []any {
	var out []any
	for err != nil {
		var se *apperrors.Error
		if !errors.As(err, &se) {
			break
		}
		if se.Kind == apperrors.KindMalformed {
			for k, v := range se.Context {
				out = append(out, k, v)
			}
			break
		}
		err = se.Cause
	}
	return out
}
