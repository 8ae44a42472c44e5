// Package initcmder provides the init command for initializing a local
// .chatvault directory in the current working directory.
package initcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatvault/pkg/cliui"
	"github.com/papercomputeco/chatvault/pkg/config"
	"github.com/papercomputeco/chatvault/pkg/dotdir"
)

const (
	dirName    = ".chatvault"
	configFile = "config.toml"

	fetchTimeout = 10 * time.Second
)

type initCommander struct {
	preset string
}

const initLongDesc string = `Initialize a new .chatvault/ directory in the current working directory.

Creates a local .chatvault/ directory that takes precedence over the default
~/.chatvault/ directory for configuration, archived content and the
metadata database. A config.toml with default values is written unless one
already exists.

Use --preset to start from an embedding preset (ollama, openai, offline) or
from a config.toml fetched over HTTP. A preset overwrites any existing
config.toml.

Examples:
  chatvault init
  chatvault init --preset offline
  chatvault init --preset https://example.com/chatvault/config.toml`

const initShortDesc string = "Initialize a local .chatvault/ directory"

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "",
		fmt.Sprintf("Config preset (%s) or URL of a config.toml", strings.Join(config.ValidPresetNames(), ", ")))

	return cmd
}

func (c *initCommander) run(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}
	dir := filepath.Join(cwd, dirName)

	var cfg *config.Config
	if c.preset != "" {
		cfg, err = resolvePreset(ctx, c.preset)
		if err != nil {
			return err
		}
	}

	_, statErr := os.Stat(dir)
	existed := statErr == nil

	layout, err := dotdir.NewManager().Layout(dir)
	if err != nil {
		return fmt.Errorf("creating .chatvault directory: %w", err)
	}
	for _, sub := range []string{layout.ContentDir(), layout.InboxDir()} {
		if err := os.MkdirAll(sub, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", sub, err)
		}
	}

	cfger, err := config.NewConfiger(layout.Root)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg == nil {
		_, err := os.Stat(filepath.Join(layout.Root, configFile))
		switch {
		case errors.Is(err, os.ErrNotExist):
			cfg = config.NewDefaultConfig()
		case err != nil:
			return fmt.Errorf("reading config: %w", err)
		}
	}

	if cfg != nil {
		if err := cfger.SaveConfig(cfg); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if existed {
		cliui.Fprintf(out, "Already initialized: %s\n", layout.Root)
	} else {
		cliui.Fprintf(out, "Initialized .chatvault directory: %s\n", layout.Root)
	}
	if cfg != nil {
		cliui.Fprintf(out, "  %s Wrote %s (embedding: %s)\n",
			cliui.SuccessMark,
			cliui.KeyStyle.Render(cfger.GetTarget()),
			cliui.ValueStyle.Render(cfg.Embedding.Provider),
		)
	}
	return nil
}

// resolvePreset returns the named preset or, for http(s) URLs, the config
// fetched from that URL.
func resolvePreset(ctx context.Context, preset string) (*config.Config, error) {
	if !strings.HasPrefix(preset, "http://") && !strings.HasPrefix(preset, "https://") {
		return config.PresetConfig(preset)
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, preset, nil)
	if err != nil {
		return nil, fmt.Errorf("creating remote config request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching remote config: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading remote config: %w", err)
	}

	return config.ParseConfigTOML(data)
}
