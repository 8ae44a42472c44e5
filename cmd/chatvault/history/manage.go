package historycmder

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatvault/cmd/chatvault/stack"
	"github.com/papercomputeco/chatvault/pkg/cliui"
)

const forgetLongDesc string = `Remove a conversation from search.

The conversation's vector entry is deleted so it no longer appears in search
results. Archived content and metadata records are kept, so "chatvault show"
and "chatvault history" still work.

Examples:
  chatvault forget 9f2c1e7a-claude-conversation`

const forgetShortDesc string = "Remove a conversation from search"

func NewForgetCmd() *cobra.Command {
	var (
		flags  stack.Values
		logger *slog.Logger
	)

	cmd := &cobra.Command{
		Use:   "forget <id>",
		Short: forgetShortDesc,
		Long:  forgetLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			logger, err = stack.Logger(cmd)
			if err != nil {
				return err
			}
			return withStack(cmd, logger, func(ctx context.Context, s *stack.Stack) error {
				if err := s.Archiver.Forget(ctx, args[0]); err != nil {
					return err
				}
				cliui.Fprintf(cmd.OutOrStdout(), "  %s Forgot %s\n",
					cliui.SuccessMark, cliui.KeyStyle.Render(args[0]))
				return nil
			})
		},
	}

	stack.AddStorageFlags(cmd, &flags)

	return cmd
}

const retitleLongDesc string = `Change the title a conversation is searched under.

The vector entry's title is updated in place and, when a record store is
configured, a new metadata record carrying the title is appended to the
conversation's history.

Examples:
  chatvault retitle 9f2c1e7a-claude-conversation "Rust lifetime elision"`

const retitleShortDesc string = "Change a conversation's title"

func NewRetitleCmd() *cobra.Command {
	var (
		flags  stack.Values
		logger *slog.Logger
	)

	cmd := &cobra.Command{
		Use:   "retitle <id> <title>",
		Short: retitleShortDesc,
		Long:  retitleLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			logger, err = stack.Logger(cmd)
			if err != nil {
				return err
			}
			return withStack(cmd, logger, func(ctx context.Context, s *stack.Stack) error {
				if err := s.Archiver.Retitle(ctx, args[0], args[1]); err != nil {
					return err
				}
				cliui.Fprintf(cmd.OutOrStdout(), "  %s Retitled %s = %s\n",
					cliui.SuccessMark,
					cliui.KeyStyle.Render(args[0]),
					cliui.ValueStyle.Render(args[1]),
				)
				return nil
			})
		},
	}

	stack.AddStorageFlags(cmd, &flags)

	return cmd
}
