package stack

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatvault/pkg/logger"
)

// Logger builds the CLI logger from the persistent --debug flag. Records go
// to stderr so command output on stdout stays pipeable.
func Logger(cmd *cobra.Command) (*slog.Logger, error) {
	debug, err := cmd.Flags().GetBool("debug")
	if err != nil {
		return nil, fmt.Errorf("could not get debug flag: %w", err)
	}
	return logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(true),
		logger.WithWriter(cmd.ErrOrStderr()),
	), nil
}
