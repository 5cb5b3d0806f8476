// Package cli implements snakectl, the offline maintenance tool for the
// record store. It must not run against a Pebble directory the bot holds
// open; Redis and memory backends have no such restriction.
package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/tukib/snakebot/internal/admin"
	"github.com/tukib/snakebot/internal/domain"
	"github.com/tukib/snakebot/internal/kv"
	"github.com/tukib/snakebot/internal/platform/config"
	"github.com/tukib/snakebot/internal/record"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format     string // "json" | "text"
	Backend    string
	PebblePath string
	RedisURL   string
	Shards     int
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// StoreOpener opens the store the flags describe.
type StoreOpener func(ctx context.Context, opts *RootOptions) (domain.KVStore, error)

// OpenStore is the StoreOpener used by the binary.
func OpenStore(ctx context.Context, opts *RootOptions) (domain.KVStore, error) {
	return kv.Open(ctx, kv.Options{Backend: opts.Backend, PebblePath: opts.PebblePath, RedisURL: opts.RedisURL})
}

// NewRootCommand creates the root command. cfg supplies the flag defaults.
func NewRootCommand(cfg *config.Config, open StoreOpener) *cobra.Command {
	opts := &RootOptions{}
	env := &environment{opts: opts, open: open, clock: clockwork.NewRealClock()}

	cmd := &cobra.Command{
		Use:   "snakectl",
		Short: "Inspect and maintain the snakebot record store",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", cfg.StoreBackend, "store backend (pebble|redis|memory)")
	cmd.PersistentFlags().StringVar(&opts.PebblePath, "pebble-path", cfg.PebblePath, "pebble data directory")
	cmd.PersistentFlags().StringVar(&opts.RedisURL, "redis-url", cfg.RedisURL, "redis URL")
	cmd.PersistentFlags().IntVar(&opts.Shards, "shards", cfg.MutatorShards, "record mutator shards")

	cmd.AddCommand(NewNamespacesCommand(env))
	cmd.AddCommand(NewDumpCommand(env))
	cmd.AddCommand(NewGetCommand(env))
	cmd.AddCommand(NewBlacklistCommand(env))
	cmd.AddCommand(NewDownvoteCommand(env))
	cmd.AddCommand(NewInfractionsCommand(env))
	cmd.AddCommand(NewRoleMenusCommand(env))
	cmd.AddCommand(NewCacheCommand(env))
	cmd.AddCommand(NewBootTimesCommand(env))
	cmd.AddCommand(NewVersionCommand(env))

	return cmd
}

// environment is shared by every subcommand.
type environment struct {
	opts  *RootOptions
	open  StoreOpener
	clock clockwork.Clock
}

// session is an open store plus the services built on it.
type session struct {
	store domain.KVStore
	admin *admin.Service
}

// withStore opens the store for the duration of fn. Offline commands never
// reach the platform or prompt anyone, so the admin service gets neither.
func (e *environment) withStore(cmd *cobra.Command, fn func(ctx context.Context, s session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := e.open(ctx, e.opts)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = store.Close() }()

	shards := max(e.opts.Shards, 1)
	mutator := record.NewMutator(store, shards)
	defer mutator.Stop()

	return fn(ctx, session{
		store: store,
		admin: admin.NewService(store, mutator, nil, nil, e.clock, 0),
	})
}

func (e *environment) printer(cmd *cobra.Command) *printer {
	return &printer{format: e.opts.Format, w: cmd.OutOrStdout()}
}
