// Package chatvaultcmder wires every chatvault subcommand under the root command.
package chatvaultcmder

import (
	"github.com/spf13/cobra"

	archivecmder "github.com/papercomputeco/chatvault/cmd/chatvault/archive"
	configcmder "github.com/papercomputeco/chatvault/cmd/chatvault/config"
	historycmder "github.com/papercomputeco/chatvault/cmd/chatvault/history"
	initcmder "github.com/papercomputeco/chatvault/cmd/chatvault/init"
	searchcmder "github.com/papercomputeco/chatvault/cmd/chatvault/search"
	servecmder "github.com/papercomputeco/chatvault/cmd/chatvault/serve"
	showcmder "github.com/papercomputeco/chatvault/cmd/chatvault/show"
	watchcmder "github.com/papercomputeco/chatvault/cmd/chatvault/watch"
	versioncmder "github.com/papercomputeco/chatvault/cmd/version"
)

const chatvaultLongDesc string = `chatvault archives AI chat conversations into a searchable store.

Conversations exported from chat platforms are summarized, embedded and
stored by content hash, so they can be found again by meaning.

Get started:
  chatvault init --preset ollama           Create a local .chatvault/ directory
  chatvault archive export.json            Archive an export file
  chatvault search "rust lifetimes"        Find archived conversations
  chatvault show <reference>               Print an archived conversation
  chatvault watch                          Archive every export dropped in the inbox
  chatvault serve                          Run the HTTP API and MCP server`

const chatvaultShortDesc string = "chatvault - AI conversation archive"

func NewChatvaultCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "chatvault",
		Short:         chatvaultShortDesc,
		Long:          chatvaultLongDesc,
		SilenceUsage:  true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to the .chatvault/ config directory")

	// Add subcommands
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(archivecmder.NewArchiveCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(showcmder.NewShowCmd())
	cmd.AddCommand(historycmder.NewHistoryCmd())
	cmd.AddCommand(historycmder.NewForgetCmd())
	cmd.AddCommand(historycmder.NewRetitleCmd())
	cmd.AddCommand(watchcmder.NewWatchCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
