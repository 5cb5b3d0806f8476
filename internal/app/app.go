package app

import (
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/tukib/snakebot/internal/admin"
	"github.com/tukib/snakebot/internal/audit"
	"github.com/tukib/snakebot/internal/domain"
	"github.com/tukib/snakebot/internal/gate"
	"github.com/tukib/snakebot/internal/moderation"
	"github.com/tukib/snakebot/internal/platform/config"
	"github.com/tukib/snakebot/internal/reaction"
	"github.com/tukib/snakebot/internal/record"
)

// App holds every handler built on top of one store.
type App struct {
	Store       domain.KVStore
	Mutator     *record.Mutator
	Polls       *reaction.Polls
	Submissions *reaction.Submissions
	Enforcer    *moderation.Enforcer
	Tracker     *audit.Tracker
	Gate        *gate.Gate
	Admin       *admin.Service
	Dispatcher  *Dispatcher
	Startup     *Startup
}

// New builds the handlers. selfID is the agent's own user id, known once the
// gateway session is open.
func New(cfg *config.Config, store domain.KVStore, platform domain.Platform, prompter domain.Prompter, clock clockwork.Clock, selfID string) *App {
	mutator := record.NewMutator(store, cfg.MutatorShards)

	polls := reaction.NewPolls(store, mutator)
	submissions := reaction.NewSubmissions(mutator, platform, cfg.UpvoteName, cfg.SubmissionThreshold)
	menus := reaction.NewRoleMenus(store, platform)
	router := reaction.NewRouter(selfID, submissions, polls, menus)

	enforcer := moderation.NewEnforcer(store, mutator, platform, clock, moderation.Options{
		DownvoteEmoji:    cfg.DownvoteEmoji,
		UpvoteName:       cfg.UpvoteName,
		DownvoteName:     cfg.DownvoteName,
		KarmaWindow:      cfg.KarmaWindow,
		PingDeleteWindow: cfg.PingDeleteWindow,
	})
	tracker := audit.NewTracker(store, mutator, platform, enforcer, clock, audit.Options{
		SelfID:        selfID,
		AnnounceRate:  rate.Limit(cfg.LogAnnounceRate),
		AnnounceBurst: cfg.LogAnnounceBurst,
	})
	adminSvc := admin.NewService(store, mutator, platform, prompter, clock, cfg.PromptTimeout)

	return &App{
		Store:       store,
		Mutator:     mutator,
		Polls:       polls,
		Submissions: submissions,
		Enforcer:    enforcer,
		Tracker:     tracker,
		Gate:        gate.New(store, cfg.OwnerIDs),
		Admin:       adminSvc,
		Dispatcher:  NewDispatcher(router, enforcer, tracker, clock),
		Startup:     NewStartup(mutator, adminSvc, polls, clock, cfg.ClearPollsOnStart),
	}
}

// Stop drains pending record mutations. The store stays open.
func (a *App) Stop() {
	a.Mutator.Stop()
}
