package domaintest

import (
	"context"
	"sync"

	"github.com/tukib/snakebot/internal/domain"
	apperrors "github.com/tukib/snakebot/internal/errors"
)

// Prompter answers questions from a fixed script. Once the script runs out
// it waits for ctx, like a user who never replies.
type Prompter struct {
	// OnAsk, when set, runs before each question is answered.
	OnAsk func(question string)

	mu        sync.Mutex
	answers   []string
	questions []string
}

var _ domain.Prompter = (*Prompter)(nil)

func NewPrompter(answers ...string) *Prompter {
	return &Prompter{answers: answers}
}

func (p *Prompter) Ask(ctx context.Context, _, _, question string) (string, error) {
	if p.OnAsk != nil {
		p.OnAsk(question)
	}
	p.mu.Lock()
	p.questions = append(p.questions, question)
	if len(p.answers) > 0 {
		a := p.answers[0]
		p.answers = p.answers[1:]
		p.mu.Unlock()
		return a, nil
	}
	p.mu.Unlock()

	<-ctx.Done()
	return "", apperrors.TimeoutError("no reply", ctx.Err())
}

// Questions returns the questions asked so far.
func (p *Prompter) Questions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.questions...)
}
