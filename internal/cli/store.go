package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tukib/snakebot/internal/domain"
	apperrors "github.com/tukib/snakebot/internal/errors"
)

type namespaceCount struct {
	Namespace domain.Namespace `json:"namespace"`
	Keys      int              `json:"keys"`
}

type entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func parseNamespace(s string) (domain.Namespace, error) {
	ns := domain.Namespace(s)
	if !slices.Contains(domain.Namespaces, ns) {
		return "", apperrors.ValidationError(fmt.Sprintf("unknown namespace %q", s))
	}
	return ns, nil
}

// NewNamespacesCommand counts the keys of every namespace.
func NewNamespacesCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:          "namespaces",
		Short:        "Count the keys of every namespace",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withStore(cmd, func(ctx context.Context, s session) error {
				counts := make([]namespaceCount, 0, len(domain.Namespaces))
				for _, ns := range domain.Namespaces {
					n := 0
					err := s.store.Iterate(ctx, ns, func(string, []byte) bool {
						n++
						return true
					})
					if err != nil {
						return fmt.Errorf("failed to scan %s: %w", ns, err)
					}
					counts = append(counts, namespaceCount{Namespace: ns, Keys: n})
				}
				return env.printer(cmd).emit(counts, func(w io.Writer) {
					for _, c := range counts {
						fmt.Fprintf(w, "%-18s %d\n", c.Namespace, c.Keys)
					}
				})
			})
		},
	}
}

// NewDumpCommand prints every record of one namespace.
func NewDumpCommand(env *environment) *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "dump <namespace>",
		Short: "Print every record of a namespace",
		Long: `Print every key and raw value of a namespace in key order.

Examples:
  snakectl dump karma
  snakectl dump infractions --prefix 7123-
  snakectl dump polls --format json`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := parseNamespace(args[0])
			if err != nil {
				return err
			}
			return env.withStore(cmd, func(ctx context.Context, s session) error {
				entries := []entry{}
				err := s.store.Iterate(ctx, ns, func(key string, value []byte) bool {
					if strings.HasPrefix(key, prefix) {
						entries = append(entries, entry{Key: key, Value: string(value)})
					}
					return true
				})
				if err != nil {
					return fmt.Errorf("failed to scan %s: %w", ns, err)
				}
				return env.printer(cmd).emit(entries, func(w io.Writer) {
					for _, e := range entries {
						fmt.Fprintf(w, "%s\t%s\n", e.Key, e.Value)
					}
				})
			})
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "only keys starting with this prefix")
	return cmd
}

// NewGetCommand prints one raw record.
func NewGetCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:          "get <namespace> <key>",
		Short:        "Print one raw record",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := parseNamespace(args[0])
			if err != nil {
				return err
			}
			return env.withStore(cmd, func(ctx context.Context, s session) error {
				value, found, err := s.store.Get(ctx, ns, args[1])
				if err != nil {
					return fmt.Errorf("failed to read %s/%s: %w", ns, args[1], err)
				}
				if !found {
					return apperrors.NotFoundError(fmt.Sprintf("no record %s/%s", ns, args[1]))
				}
				e := entry{Key: args[1], Value: string(value)}
				return env.printer(cmd).emit(e, func(w io.Writer) {
					fmt.Fprintln(w, e.Value)
				})
			})
		},
	}
}
