package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/strata/internal/pipeline"
)

var (
	fetchTimeout time.Duration
	fetchLimit   int
	noCache      bool
	noRobots     bool
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch <source>",
	Short: "Run one source adapter and print its raw stories",
	Long: `Fetch runs a single configured source adapter and prints the raw
stories it produced as a JSON array, exactly as the HTTP source endpoint
would return them.

Example:
  strata fetch arxiv
  strata fetch deepseek --limit 3
  strata fetch openai --timeout 10s > openai.json`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().DurationVar(&fetchTimeout, "timeout", 30*time.Second, "overall fetch timeout")
	fetchCmd.Flags().IntVar(&fetchLimit, "limit", 0, "maximum stories (default: the source's configured limit)")
	fetchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch)")
	fetchCmd.Flags().BoolVar(&noRobots, "no-robots", false, "do not consult robots.txt before scraping listings")
}

func runFetch(cmd *cobra.Command, args []string) error {
	name := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noRobots {
		cfg.HTTP.RespectRobots = false
	}
	if fetchLimit > 0 {
		for i := range cfg.Sources {
			if cfg.Sources[i].Name == name {
				cfg.Sources[i].Limit = fetchLimit
			}
		}
	}

	p, err := newPipeline(cfg, false)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Fetching: %s\n", name)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", fetchTimeout)
		fmt.Fprintf(os.Stderr, "Cache: %v\n\n", cfg.Cache.Enabled)
	}

	stories, err := p.FetchSource(ctx, name)
	if errors.Is(err, pipeline.ErrUnknownSource) {
		return fmt.Errorf("%w (enabled: %s)", err, strings.Join(p.Sources(), ", "))
	}
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ %d stories from %s\n", len(stories), name)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(stories)
}
