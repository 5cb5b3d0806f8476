package reaction

import (
	"context"
	"errors"
	"fmt"

	"github.com/tukib/snakebot/internal/domain"
)

// Handler consumes one reaction event.
type Handler interface {
	HandleReaction(ctx context.Context, ev domain.ReactionEvent) error
}

type route struct {
	name    string
	handler Handler
}

// Router fans a reaction event out to submission, poll and role-menu handling,
// in that order. A failing handler does not stop the ones after it.
type Router struct {
	selfID string
	routes []route
}

func NewRouter(selfID string, submissions *Submissions, polls *Polls, menus *RoleMenus) *Router {
	return &Router{
		selfID: selfID,
		routes: []route{
			{name: "submission", handler: submissions},
			{name: "poll", handler: polls},
			{name: "role_menu", handler: menus},
		},
	}
}

// Route ignores the agent's own reactions and returns every handler error joined.
func (r *Router) Route(ctx context.Context, ev domain.ReactionEvent) error {
	if ev.UserID == r.selfID {
		return nil
	}

	var errs []error
	for _, rt := range r.routes {
		if err := rt.handler.HandleReaction(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", rt.name, err))
		}
	}
	return errors.Join(errs...)
}
