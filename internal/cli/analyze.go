package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/strata/internal/model"
	"github.com/ppiankov/strata/internal/score"
)

var (
	analyzeTitle   string
	analyzeSummary string
	analyzeSource  string
	analyzeTimeout time.Duration
	llmProvider    string
	llmModel       string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one strategic analysis and print it",
	Long: `Analyze sends a single story to the configured language model and
prints the validated analysis as JSON. The composite score is computed
locally from the four sub-scores.

Example:
  strata analyze --title "New open-weights model" --summary "..."
  strata analyze --title "..." --llm-provider openai --llm-model gpt-4o-mini`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeTitle, "title", "", "story title (required)")
	analyzeCmd.Flags().StringVar(&analyzeSummary, "summary", "", "story summary")
	analyzeCmd.Flags().StringVar(&analyzeSource, "source", "", "story URL, carried into the analysis")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 2*time.Minute, "analysis timeout")
	addLLMFlags(analyzeCmd)
	_ = analyzeCmd.MarkFlagRequired("title")
}

// addLLMFlags registers the backend override flags shared by several commands
func addLLMFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (gemini, openai, anthropic, ollama)")
	cmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

// applyLLMFlags overrides the configured backend with explicit flags.
// Switching provider without naming a model falls back to that provider's default.
func applyLLMFlags(cmd *cobra.Command, cfg *model.Config) {
	if cmd.Flags().Changed("llm-provider") {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.Model = ""
		cfg.LLM.APIKey = ""
	}
	if cmd.Flags().Changed("llm-model") {
		cfg.LLM.Model = llmModel
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyLLMFlags(cmd, cfg)

	p, err := newPipeline(cfg, true)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Analyzing with %s/%s...\n", cfg.LLM.Provider, cfg.LLM.Model)
	}

	analysis, err := p.Analyze(ctx, model.RawStory{
		Title:   analyzeTitle,
		Summary: analyzeSummary,
		Source:  analyzeSource,
	})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Composite score %.2f (%s)\n", analysis.CompositeScore, score.Classify(analysis.CompositeScore).Label())

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(analysis)
}
