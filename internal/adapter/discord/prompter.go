package discord

import (
	"context"
	"sync"

	"github.com/tukib/snakebot/internal/domain"
	apperrors "github.com/tukib/snakebot/internal/errors"
	"github.com/tukib/snakebot/internal/metrics"
)

// Waiter hands the next message of a user in a channel to whoever waits
// for it.
type Waiter struct {
	mu      sync.Mutex
	pending map[string]chan string
}

func NewWaiter() *Waiter {
	return &Waiter{pending: make(map[string]chan string)}
}

func waitKey(channelID, userID string) string { return channelID + "/" + userID }

// Offer delivers content to a pending wait and reports whether one took it.
func (w *Waiter) Offer(channelID, userID, content string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	ch, ok := w.pending[waitKey(channelID, userID)]
	if !ok {
		return false
	}
	delete(w.pending, waitKey(channelID, userID))
	ch <- content
	return true
}

// register reserves the next message. The returned cancel releases the
// reservation if no message arrived.
func (w *Waiter) register(channelID, userID string) (<-chan string, func(), bool) {
	key := waitKey(channelID, userID)
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, busy := w.pending[key]; busy {
		return nil, nil, false
	}
	ch := make(chan string, 1)
	w.pending[key] = ch
	return ch, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.pending[key] == ch {
			delete(w.pending, key)
		}
	}, true
}

// Prompter posts a question and waits for the user's reply in the same channel.
type Prompter struct {
	platform domain.Platform
	waiter   *Waiter
}

var _ domain.Prompter = (*Prompter)(nil)

func NewPrompter(platform domain.Platform, waiter *Waiter) *Prompter {
	return &Prompter{platform: platform, waiter: waiter}
}

func (p *Prompter) Ask(ctx context.Context, channelID, userID, question string) (string, error) {
	replies, cancel, ok := p.waiter.register(channelID, userID)
	if !ok {
		return "", apperrors.ValidationError("Already waiting for your reply")
	}
	defer cancel()

	_, err := p.platform.SendMessage(ctx, channelID, question)
	metrics.SideEffect("send_message", err)
	if err != nil {
		return "", apperrors.ExternalError("failed to send prompt", err)
	}

	select {
	case reply := <-replies:
		return reply, nil
	case <-ctx.Done():
		return "", apperrors.TimeoutError("no reply", ctx.Err())
	}
}
