// Package searchcmder provides the search command for semantic search over
// archived conversations.
package searchcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	apisearch "github.com/papercomputeco/chatvault/api/search"
	"github.com/papercomputeco/chatvault/cmd/chatvault/stack"
	"github.com/papercomputeco/chatvault/pkg/cliui"
	"github.com/papercomputeco/chatvault/pkg/config"
	"github.com/papercomputeco/chatvault/pkg/dotdir"
)

type searchCommander struct {
	flags stack.Values

	query  string
	topK   int
	source string
	quiet  bool
	remote bool

	apiTarget string

	logger *slog.Logger
}

const searchLongDesc string = `Search archived conversations by meaning.

The query is embedded with the configured embedding provider and compared
against every archived conversation in the namespace. Results show the title,
a summary preview and the reference path for "chatvault show".

By default the local archive is searched directly. Use --remote to query a
running chatvault API server instead.

Use --quiet to output only reference paths, one per line. This is useful for
piping into other commands like chatvault show.

Example:
  chatvault search "how to configure logging"
  chatvault search "rust lifetimes" --top 10 --source claude
  chatvault search "kubernetes ingress" --remote --api-target http://localhost:8081
  chatvault show $(chatvault search "charm CLI" --quiet --top 1)`

const searchShortDesc string = "Search archived conversations"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]

			var err error
			cmder.logger, err = stack.Logger(cmd)
			if err != nil {
				return err
			}
			return cmder.run(cmd)
		},
	}

	stack.AddStorageFlags(cmd, &cmder.flags)
	config.AddStringFlag(cmd, stack.Flags, config.FlagAPITarget, &cmder.apiTarget)
	cmd.Flags().IntVarP(&cmder.topK, "top", "k", 5, "Number of results to return")
	cmd.Flags().StringVar(&cmder.source, "source", "", "Only return conversations from this platform")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Output only reference paths, one per line (for piping)")
	cmd.Flags().BoolVar(&cmder.remote, "remote", false, "Query a running chatvault API server")

	return cmd
}

func (c *searchCommander) run(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	keys := append([]string{config.FlagAPITarget}, stack.StorageKeys...)
	cfg, layout, err := stack.Resolve(cmd, keys)
	if err != nil {
		return err
	}

	input := apisearch.Input{
		Query:  c.query,
		TopK:   c.topK,
		Source: c.source,
	}

	var output *apisearch.Output
	if c.remote {
		c.logger.Debug("searching remote archive", "api_target", cfg.Client.APITarget)
		output, err = SearchAPI(ctx, cfg.Client.APITarget, input)
	} else {
		output, err = c.searchLocal(ctx, cfg, layout, input)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if c.quiet {
		for _, hit := range output.Results {
			fmt.Fprintln(out, hit.ReferencePath)
		}
		return nil
	}

	cliui.RenderHits(out, output.Query, output.Results)
	return nil
}

func (c *searchCommander) searchLocal(ctx context.Context, cfg *config.Config, layout dotdir.Layout, input apisearch.Input) (*apisearch.Output, error) {
	s, err := stack.Build(ctx, cfg, layout, c.logger)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	return apisearch.NewSearcher(s.Archiver, c.logger).Search(ctx, input)
}

// SearchAPI calls the chatvault search API and returns the parsed output.
func SearchAPI(ctx context.Context, apiTarget string, input apisearch.Input) (*apisearch.Output, error) {
	searchURL, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	searchURL.Path = "/v1/search"
	q := searchURL.Query()
	q.Set("query", input.Query)
	if input.TopK > 0 {
		q.Set("top_k", strconv.Itoa(input.TopK))
	}
	if input.Source != "" {
		q.Set("source", input.Source)
	}
	searchURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chatvault API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var output apisearch.Output
	if err := json.Unmarshal(body, &output); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	return &output, nil
}
