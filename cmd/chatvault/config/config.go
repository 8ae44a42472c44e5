// Package configcmder provides the config command for managing persistent
// chatvault configuration stored in the .chatvault/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatvault/pkg/cliui"
	"github.com/papercomputeco/chatvault/pkg/config"
)

const configLongDesc string = `Manage persistent chatvault configuration.

Configuration is stored as config.toml in the .chatvault/ directory and provides
default values for command flags. CLI flags and CHATVAULT_* environment
variables always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  storage.content_provider, storage.content_dir, storage.sqlite_path,
  records.provider, records.postgres_dsn,
  vector_store.provider, vector_store.target, vector_store.namespace,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  api.listen, client.api_target,
  eventstream.provider, eventstream.brokers, eventstream.topic,
  worker.workers, worker.queue_size, worker.job_timeout

Use subcommands to get, set, or list configuration values:
  chatvault config set <key> <value>    Set a configuration value
  chatvault config get <key>            Get a configuration value
  chatvault config list                 List all configuration values

Examples:
  chatvault config set embedding.provider openai
  chatvault config set vector_store.namespace work
  chatvault config get embedding.model
  chatvault config list`

const configShortDesc string = "Manage persistent chatvault configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func checkKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func printTarget(w io.Writer, cfger *config.Configer) {
	target := cfger.GetTarget()
	if target != "" {
		cliui.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
	} else {
		cliui.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
	}
}
