package cli

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tukib/snakebot/internal/admin"
	"github.com/tukib/snakebot/internal/platform/version"
)

// NewRoleMenusCommand lists stored reaction-role menus. Deleting one needs the
// bot, which also removes the message.
func NewRoleMenusCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rrole",
		Short: "Inspect reaction-role menus",
	}
	cmd.AddCommand(&cobra.Command{
		Use:          "list",
		Short:        "List every reaction-role menu",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withStore(cmd, func(ctx context.Context, s session) error {
				menus, err := s.admin.ListRoleMenus(ctx)
				if err != nil {
					return err
				}
				if menus == nil {
					menus = []admin.RoleMenu{}
				}
				return env.printer(cmd).emit(menus, func(w io.Writer) {
					for _, m := range menus {
						emojis := make([]string, 0, len(m.Roles))
						for e := range m.Roles {
							emojis = append(emojis, e)
						}
						sort.Strings(emojis)
						fmt.Fprintln(w, m.MessageID)
						for _, e := range emojis {
							fmt.Fprintf(w, "  %s -> %s\n", e, m.Roles[e])
						}
					}
				})
			})
		},
	})
	return cmd
}

// NewCacheCommand lists or wipes the cache namespace.
func NewCacheCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "List or wipe cached items",
	}
	cmd.AddCommand(&cobra.Command{
		Use:          "list",
		Short:        "List cached keys",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withStore(cmd, func(ctx context.Context, s session) error {
				keys, err := s.admin.ListCache(ctx)
				if err != nil {
					return err
				}
				if keys == nil {
					keys = []string{}
				}
				return env.printer(cmd).emit(keys, func(w io.Writer) {
					for _, k := range keys {
						fmt.Fprintln(w, k)
					}
				})
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:          "wipe",
		Short:        "Delete every cached item",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withStore(cmd, func(ctx context.Context, s session) error {
				n, err := s.admin.WipeCache(ctx)
				if err != nil {
					return err
				}
				return env.printer(cmd).emit(map[string]int{"wiped": n}, func(w io.Writer) {
					fmt.Fprintf(w, "Wiped %d cached items\n", n)
				})
			})
		},
	})
	return cmd
}

// NewBootTimesCommand prints recorded startup durations.
func NewBootTimesCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:          "boot-times",
		Short:        "Print recorded startup durations in seconds",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withStore(cmd, func(ctx context.Context, s session) error {
				times, err := s.admin.BootTimes(ctx)
				if err != nil {
					return err
				}
				if times == nil {
					times = []float64{}
				}
				return env.printer(cmd).emit(times, func(w io.Writer) {
					for _, t := range times {
						fmt.Fprintf(w, "%gs\n", t)
					}
				})
			})
		},
	}
}

// NewVersionCommand prints build information.
func NewVersionCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			return env.printer(cmd).emit(info, func(w io.Writer) {
				fmt.Fprintln(w, info.String())
			})
		},
	}
}
