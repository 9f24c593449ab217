package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/strata/internal/model"
	"github.com/ppiankov/strata/internal/pipeline"
	"github.com/ppiankov/strata/internal/report"
)

var (
	outJSON     string
	outMD       string
	outHTML     string
	workers     int
	rankTimeout time.Duration
	noFooter    bool
)

// rankCmd represents the rank command
var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Fetch every source, analyze each story and write the ranked board",
	Long: `Rank runs one full cycle:
- Fetch every enabled source concurrently (a failing source is reported, not fatal)
- Normalize and deduplicate the stories
- Analyze each story with the language model on a bounded worker pool
- Rank by composite score and write the board

Example:
  strata rank
  strata rank --json board.json --md board.md --html board.html
  strata rank --workers 8 --llm-provider anthropic`,
	Args: cobra.NoArgs,
	RunE: runRank,
}

func init() {
	rootCmd.AddCommand(rankCmd)
	addRankFlags(rankCmd)
}

// addRankFlags registers the flags shared by rank and watch
func addRankFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (default: output.json from config)")
	cmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	cmd.Flags().StringVar(&outHTML, "html", "", "output HTML path (optional)")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent analysis calls (default: extract.workers from config)")
	cmd.Flags().DurationVar(&rankTimeout, "timeout", 10*time.Minute, "timeout for one full cycle")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch)")
	cmd.Flags().BoolVar(&noRobots, "no-robots", false, "do not consult robots.txt before scraping listings")
	cmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown and HTML reports")
	addLLMFlags(cmd)
}

// rankConfig loads the configuration and applies the rank flags
func rankConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	applyLLMFlags(cmd, cfg)

	if outJSON != "" {
		cfg.Output.JSON = outJSON
	}
	if outMD != "" {
		cfg.Output.MD = outMD
	}
	if outHTML != "" {
		cfg.Output.HTML = outHTML
	}
	if workers > 0 {
		cfg.Extract.Workers = workers
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noRobots {
		cfg.HTTP.RespectRobots = false
	}
	return cfg, nil
}

func runRank(cmd *cobra.Command, args []string) error {
	cfg, err := rankConfig(cmd)
	if err != nil {
		return err
	}

	p, err := newPipeline(cfg, true)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  strata ranking cycle\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Sources:      %d\n", len(p.Sources()))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Extract.Workers)
	fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", rankTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	ctx, cancel := context.WithTimeout(context.Background(), rankTimeout)
	defer cancel()

	return rankOnce(ctx, cfg, p)
}

// rankOnce runs one cycle and writes every configured output
func rankOnce(ctx context.Context, cfg *model.Config, p *pipeline.Pipeline) error {
	start := time.Now()

	board, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("ranking failed: %w", err)
	}

	renderer := report.NewRenderer(report.WithFooter(!noFooter))
	if err := writeBoard(renderer, board, cfg.Output); err != nil {
		return err
	}

	renderer.RenderSummary(os.Stderr, board)
	fmt.Fprintf(os.Stderr, "✓ Ranked %d stories in %v\n", len(board.Stories), time.Since(start).Round(time.Millisecond))
	for _, name := range board.FailedSources {
		fmt.Fprintf(os.Stderr, "✗ Source failed: %s\n", name)
	}
	return nil
}

// writeBoard renders the board to each configured output path
func writeBoard(r *report.Renderer, board *model.Board, out model.OutputConfig) error {
	if out.JSON != "" {
		if err := r.RenderJSON(board, out.JSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", out.JSON)
	}
	if out.MD != "" {
		if err := r.RenderMarkdown(board, out.MD); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", out.MD)
	}
	if out.HTML != "" {
		if err := r.RenderHTML(board, out.HTML); err != nil {
			return fmt.Errorf("render HTML: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote HTML: %s\n", out.HTML)
	}
	return nil
}
