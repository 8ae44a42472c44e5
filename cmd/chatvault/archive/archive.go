// Package archivecmder provides the archive command, which stores exported
// conversations in the local archive.
package archivecmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatvault/cmd/chatvault/stack"
	"github.com/papercomputeco/chatvault/pkg/archive"
	"github.com/papercomputeco/chatvault/pkg/cliui"
)

// stdinArg reads the export from standard input.
const stdinArg = "-"

type archiveCommander struct {
	flags         stack.Values
	defaultSource string

	logger *slog.Logger
}

const archiveLongDesc string = `Archive exported conversations.

Each file holds one exported conversation object or an array of them. Every
conversation is summarized, embedded and stored under the hash of its turns,
so archiving the same content twice reuses the stored copy while still
recording a new metadata entry.

Pass "-" to read an export from standard input.

Examples:
  chatvault archive claude-export.json
  chatvault archive exports/*.json --source chatgpt
  cat export.json | chatvault archive -
  chatvault archive export.json --embedding-provider hashing --namespace work`

const archiveShortDesc string = "Archive exported conversations"

func NewArchiveCmd() *cobra.Command {
	cmder := &archiveCommander{}

	cmd := &cobra.Command{
		Use:   "archive <file...>",
		Short: archiveShortDesc,
		Long:  archiveLongDesc,
		Args:  cobra.MinimumNArgs(1),
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
	cmd.Flags().StringVar(&cmder.defaultSource, "source", "", "Source tag for exports that carry none")

	return cmd
}

func (c *archiveCommander) run(cmd *cobra.Command, paths []string) error {
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

	s.Reader.DefaultSource = c.defaultSource

	out := cmd.OutOrStdout()
	cliui.Fprintf(out, "\n%s\n\n", cliui.KeyStyle.Render("Archiving conversations"))

	var (
		archived int
		errs     []error
	)
	for _, path := range paths {
		label := filepath.Base(path)
		if path == stdinArg {
			label = "stdin"
		}

		var n int
		stepErr := cliui.Step(out, label, func() error {
			var err error
			n, err = c.archiveFile(ctx, s, cmd.InOrStdin(), path)
			return err
		})
		archived += n
		if stepErr != nil {
			errs = append(errs, fmt.Errorf("%s: %w", label, stepErr))
		}
	}

	cliui.Fprintf(out, "\n  %s %s\n\n",
		cliui.Mark(errors.Join(errs...)),
		cliui.ValueStyle.Render(fmt.Sprintf("%d conversation(s) archived", archived)),
	)
	return errors.Join(errs...)
}

// archiveFile archives every conversation in one export. It returns how many
// were archived; the error joins every failure in the file.
func (c *archiveCommander) archiveFile(ctx context.Context, s *stack.Stack, stdin io.Reader, path string) (int, error) {
	var (
		convs []archive.Conversation
		err   error
	)
	if path == stdinArg {
		convs, err = s.Reader.Decode(stdin)
	} else {
		convs, err = s.Reader.ReadFile(path)
	}
	if err != nil {
		return 0, err
	}

	var (
		archived int
		errs     []error
	)
	for _, conv := range convs {
		rec, err := s.Archiver.Archive(ctx, conv)
		if err != nil {
			c.logger.Warn("archive failed",
				"id", conv.ID,
				"kind", archive.KindName(err),
				"error", err,
			)
			errs = append(errs, fmt.Errorf("conversation %q: %w", conv.ID, err))
			continue
		}
		archived++
		c.logger.Debug("archived conversation",
			"id", rec.ID,
			"archive_id", rec.ArchiveID,
			"reference_path", rec.ReferencePath,
		)
	}
	return archived, errors.Join(errs...)
}
