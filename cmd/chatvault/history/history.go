// Package historycmder provides commands that inspect and manage the metadata
// records of archived conversations.
package historycmder

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatvault/cmd/chatvault/stack"
	"github.com/papercomputeco/chatvault/pkg/archive"
	"github.com/papercomputeco/chatvault/pkg/cliui"
	"github.com/papercomputeco/chatvault/pkg/records"
)

type historyCommander struct {
	flags stack.Values

	limit  int
	source string

	logger *slog.Logger
}

const historyLongDesc string = `Show archived metadata records.

With a conversation id, every record archived for that conversation is listed
oldest first: re-archiving or retitling a conversation appends a new record
rather than replacing the old one.

Without an id, the most recently archived records are listed newest first.

Examples:
  chatvault history
  chatvault history --source claude --limit 50
  chatvault history 9f2c1e7a-claude-conversation`

const historyShortDesc string = "Show archived metadata records"

func NewHistoryCmd() *cobra.Command {
	cmder := &historyCommander{}

	cmd := &cobra.Command{
		Use:   "history [id]",
		Short: historyShortDesc,
		Long:  historyLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.logger, err = stack.Logger(cmd)
			if err != nil {
				return err
			}
			return cmder.run(cmd, args)
		},
	}

	stack.AddStorageFlags(cmd, &cmder.flags)
	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", 20, "Maximum records to list without an id")
	cmd.Flags().StringVar(&cmder.source, "source", "", "Only list records from this platform")

	return cmd
}

func (c *historyCommander) run(cmd *cobra.Command, args []string) error {
	return withStack(cmd, c.logger, func(ctx context.Context, s *stack.Stack) error {
		var (
			recs []*archive.MetadataRecord
			err  error
		)
		if len(args) == 1 {
			recs, err = s.Archiver.History(ctx, args[0])
		} else {
			recs, err = s.Archiver.Recent(ctx, records.ListOptions{
				Source: c.source,
				Limit:  c.limit,
			})
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(recs) == 0 {
			cliui.Fprint(out, "No records found.\n")
			return nil
		}
		cliui.RenderHistory(out, recs)
		return nil
	})
}

// withStack resolves config, builds the archive and runs fn against it.
func withStack(cmd *cobra.Command, logger *slog.Logger, fn func(context.Context, *stack.Stack) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, layout, err := stack.Resolve(cmd, stack.StorageKeys)
	if err != nil {
		return err
	}

	s, err := stack.Build(ctx, cfg, layout, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	return fn(ctx, s)
}
