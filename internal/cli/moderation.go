package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tukib/snakebot/internal/admin"
	apperrors "github.com/tukib/snakebot/internal/errors"
	"github.com/tukib/snakebot/internal/record"
)

type toggled struct {
	UserID  string `json:"user_id"`
	Flag    string `json:"flag"`
	Enabled bool   `json:"enabled"`
}

func newToggleCommand(env *environment, use, flag string, toggle func(*admin.Service, context.Context, string) (bool, error)) *cobra.Command {
	return &cobra.Command{
		Use:          use + " <user-id>",
		Short:        "Toggle the global " + flag + " flag of a user",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withStore(cmd, func(ctx context.Context, s session) error {
				on, err := toggle(s.admin, ctx, args[0])
				if err != nil {
					return err
				}
				res := toggled{UserID: args[0], Flag: flag, Enabled: on}
				return env.printer(cmd).emit(res, func(w io.Writer) {
					if on {
						fmt.Fprintf(w, "%s is now on the %s list\n", res.UserID, flag)
						return
					}
					fmt.Fprintf(w, "%s is no longer on the %s list\n", res.UserID, flag)
				})
			})
		},
	}
}

// NewBlacklistCommand toggles the global command blacklist.
func NewBlacklistCommand(env *environment) *cobra.Command {
	return newToggleCommand(env, "blacklist", "blacklist", (*admin.Service).ToggleGlobalBlacklist)
}

// NewDownvoteCommand toggles the global auto-downvote flag.
func NewDownvoteCommand(env *environment) *cobra.Command {
	return newToggleCommand(env, "downvote", "downvote", (*admin.Service).ToggleGlobalDownvote)
}

// NewInfractionsCommand groups the infraction subcommands.
func NewInfractionsCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "infractions",
		Short: "Show, clear or remove infractions of a guild member",
	}
	cmd.AddCommand(newInfractionsShowCommand(env))
	cmd.AddCommand(newInfractionsClearCommand(env))
	cmd.AddCommand(newInfractionsRemoveCommand(env))
	return cmd
}

func newInfractionsShowCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:          "show <guild-id> <member-id>",
		Short:        "Show every infraction of a member",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withStore(cmd, func(ctx context.Context, s session) error {
				l, err := s.admin.ShowInfractions(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return env.printer(cmd).emit(l, func(w io.Writer) {
					fmt.Fprintln(w, admin.InfractionSummary(l))
					for _, kind := range record.InfractionKinds {
						for i, inf := range *l.Entries(kind) {
							fmt.Fprintf(w, "%s[%d] %s by %s at %s: %s\n", kind, i, inf.ID, inf.Moderator, inf.At, inf.Reason)
						}
					}
				})
			})
		},
	}
}

func newInfractionsClearCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:          "clear <guild-id> <member-id>",
		Short:        "Delete every infraction of a member",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withStore(cmd, func(ctx context.Context, s session) error {
				if err := s.admin.ClearInfractions(ctx, args[0], args[1]); err != nil {
					return err
				}
				return env.printer(cmd).emit(map[string]string{"cleared": args[1]}, func(w io.Writer) {
					fmt.Fprintf(w, "Cleared infractions of %s\n", args[1])
				})
			})
		},
	}
}

func newInfractionsRemoveCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:          "remove <guild-id> <member-id> <kind> <index>",
		Short:        "Remove one infraction by kind and index",
		Args:         cobra.ExactArgs(4),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[3])
			if err != nil {
				return apperrors.ValidationError(fmt.Sprintf("index %q is not a number", args[3]))
			}
			return env.withStore(cmd, func(ctx context.Context, s session) error {
				removed, err := s.admin.RemoveInfraction(ctx, args[0], args[1], args[2], index)
				if err != nil {
					return err
				}
				return env.printer(cmd).emit(removed, func(w io.Writer) {
					fmt.Fprintf(w, "Removed %s: %s\n", removed.ID, removed.Reason)
				})
			})
		},
	}
}
