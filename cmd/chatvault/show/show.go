// Package showcmder provides the show command, which prints an archived
// conversation.
package showcmder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatvault/cmd/chatvault/stack"
	"github.com/papercomputeco/chatvault/pkg/cas"
	"github.com/papercomputeco/chatvault/pkg/cliui"
)

type showCommander struct {
	flags stack.Values

	ref   string
	byID  bool
	title string

	logger *slog.Logger
}

const showLongDesc string = `Print an archived conversation.

The argument is a reference path or content key as shown by
"chatvault search". With --id the argument is a conversation id instead and
the most recently archived version of that conversation is printed.

Output is rendered as markdown on a terminal and written as plain markdown
otherwise.

Examples:
  chatvault show content/ab/cd/abcd...
  chatvault show 9f2c1e7a-claude-conversation --id
  chatvault show $(chatvault search "rust lifetimes" --quiet --top 1) > convo.md`

const showShortDesc string = "Print an archived conversation"

func NewShowCmd() *cobra.Command {
	cmder := &showCommander{}

	cmd := &cobra.Command{
		Use:   "show <reference>",
		Short: showShortDesc,
		Long:  showLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.ref = args[0]

			var err error
			cmder.logger, err = stack.Logger(cmd)
			if err != nil {
				return err
			}
			return cmder.run(cmd)
		},
	}

	stack.AddStorageFlags(cmd, &cmder.flags)
	cmd.Flags().BoolVar(&cmder.byID, "id", false, "Treat the argument as a conversation id")
	cmd.Flags().StringVar(&cmder.title, "title", "", "Heading for the printed conversation")

	return cmd
}

func (c *showCommander) run(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, layout, err := stack.Resolve(cmd, stack.StorageKeys)
	if err != nil {
		return err
	}

	s, err := stack.Build(ctx, cfg, layout, c.logger)
	if err != nil {
		return err
	}
	defer s.Close()

	title, turns, err := c.load(ctx, s)
	if err != nil {
		return err
	}
	if c.title != "" {
		title = c.title
	}

	return cliui.RenderConversation(cmd.OutOrStdout(), title, turns)
}

func (c *showCommander) load(ctx context.Context, s *stack.Stack) (string, []cas.Turn, error) {
	if !c.byID {
		turns, err := s.Archiver.RetrieveByReference(ctx, c.ref)
		if err != nil {
			return "", nil, fmt.Errorf("retrieving %s: %w", c.ref, err)
		}
		return c.ref, turns, nil
	}

	history, err := s.Archiver.History(ctx, c.ref)
	if err != nil {
		return "", nil, fmt.Errorf("looking up conversation %s: %w", c.ref, err)
	}
	latest := history[len(history)-1]

	turns, err := s.Archiver.RetrieveContent(ctx, latest)
	if err != nil {
		return "", nil, fmt.Errorf("retrieving conversation %s: %w", c.ref, err)
	}
	return latest.Title, turns, nil
}
