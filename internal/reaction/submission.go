package reaction

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/tukib/snakebot/internal/domain"
	apperrors "github.com/tukib/snakebot/internal/errors"
	"github.com/tukib/snakebot/internal/imaging"
	"github.com/tukib/snakebot/internal/metrics"
	"github.com/tukib/snakebot/internal/record"
)

// Submissions turns an upvoted image into a guild emoji once enough
// distinct members voted for it.
type Submissions struct {
	mutator    *record.Mutator
	platform   domain.Platform
	upvoteName string
	threshold  int

	creating singleflight.Group
}

func NewSubmissions(mutator *record.Mutator, platform domain.Platform, upvoteName string, threshold int) *Submissions {
	return &Submissions{
		mutator:    mutator,
		platform:   platform,
		upvoteName: upvoteName,
		threshold:  threshold,
	}
}

// Submit opens voting on messageID for an emoji called name.
func (s *Submissions) Submit(ctx context.Context, guildID, messageID, name string) error {
	if name == "" {
		return apperrors.ValidationError("Emoji name must not be empty")
	}
	_, err := record.Update(ctx, s.mutator, record.Submissions, messageID, func(sub *record.Submission) (record.Action, error) {
		*sub = record.Submission{Name: name, GuildID: guildID, Voters: []string{}}
		return record.Put, nil
	})
	if err != nil {
		return fmt.Errorf("failed to store submission: %w", err)
	}
	return nil
}

func (s *Submissions) HandleReaction(ctx context.Context, ev domain.ReactionEvent) error {
	if ev.Action != domain.ReactionAdd || !ev.Emoji.Is(s.upvoteName) {
		return nil
	}

	passed := false
	sub, err := record.Update(ctx, s.mutator, record.Submissions, ev.MessageID, func(sub *record.Submission) (record.Action, error) {
		// absent: not a submission
		if sub.Name == "" {
			return record.Keep, nil
		}
		changed := sub.AddVoter(ev.UserID)
		if len(sub.Voters) >= s.threshold {
			passed = true
			return record.Delete, nil
		}
		if !changed {
			return record.Keep, nil
		}
		return record.Put, nil
	})
	if err != nil {
		return fmt.Errorf("failed to record submission vote: %w", err)
	}
	if !passed {
		return nil
	}

	guildID := sub.GuildID
	if guildID == "" {
		guildID = ev.GuildID
	}
	slog.Info("Emoji submission passed", "guild_id", guildID, "message_id", ev.MessageID, "name", sub.Name, "voters", len(sub.Voters))
	return s.promote(ctx, guildID, ev.ChannelID, ev.MessageID, sub.Name)
}

// promote runs after the submission record is gone. Failures are reported
// but the vote is not reopened.
func (s *Submissions) promote(ctx context.Context, guildID, channelID, messageID, name string) error {
	msg, err := s.platform.FetchMessage(ctx, channelID, messageID)
	metrics.SideEffect("fetch_message", err)
	if err != nil {
		return apperrors.ExternalError("failed to fetch submission message", err).WithField("message_id", messageID)
	}
	if len(msg.Attachments) == 0 {
		return apperrors.ValidationError("Submission has no attachment").WithField("message_id", messageID)
	}

	raw, err := s.platform.DownloadAttachment(ctx, msg.Attachments[0])
	metrics.SideEffect("download_attachment", err)
	if err != nil {
		return apperrors.ExternalError("failed to download submission", err).WithField("message_id", messageID)
	}
	png, err := imaging.Thumbnail(raw, imaging.EmojiSize)
	if apperrors.Is(err, apperrors.KindValidation) {
		return err
	}
	if err != nil {
		return apperrors.ValidationError("Submission is not a readable image").WithField("message_id", messageID)
	}

	v, err, _ := s.creating.Do(guildID+"/"+name, func() (any, error) {
		exists, err := s.platform.GuildEmojiExists(ctx, guildID, name)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, nil
		}
		emoji, err := s.platform.CreateEmoji(ctx, guildID, name, png)
		metrics.SideEffect("create_emoji", err)
		if err != nil {
			return nil, err
		}
		return &emoji, nil
	})
	if err != nil {
		return apperrors.ExternalError("failed to create emoji", err).WithField("name", name)
	}
	emoji, _ := v.(*domain.Emoji)
	if emoji == nil {
		slog.Info("Emoji already exists, skipping creation", "guild_id", guildID, "name", name)
		return nil
	}

	err = s.platform.AddReaction(ctx, channelID, messageID, emoji.String())
	metrics.SideEffect("add_reaction", err)
	if err != nil {
		return apperrors.ExternalError("failed to react with new emoji", err).WithField("name", name)
	}
	return nil
}
