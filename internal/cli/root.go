package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is the released version of strata
const Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// envKeys are the nested settings that may be overridden by STRATA_* variables
var envKeys = []string{
	"llm.provider",
	"llm.model",
	"llm.api_key",
	"llm.base_url",
	"llm.timeout",
	"llm.max_tokens",
	"http.timeout",
	"http.user_agent",
	"http.max_body_bytes",
	"http.http_proxy",
	"http.https_proxy",
	"http.no_proxy",
	"http.respect_robots",
	"cache.enabled",
	"cache.ttl",
	"rate_limiting.requests_per_second",
	"rate_limiting.burst_size",
	"extract.workers",
	"extract.summary_max_bytes",
	"extract.schema_retries",
	"extract.backend_retries",
	"output.json",
	"output.md",
	"output.html",
	"server.addr",
	"server.refresh",
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "strata",
	Short: "Strata - strategic ranking of AI news and research",
	Long: `Strata pulls stories from feeds and scraped listings, asks a language
model for a structured strategic analysis of each one, and ranks them by
a composite of impact, timing, players and precedent.

Scores are computed locally from the model's sub-scores; output that does
not fit the analysis schema is dropped, never guessed at.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of strata.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "strata %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.strata/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home + "/.strata")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// STRATA_LLM_PROVIDER overrides llm.provider, and so on
	viper.SetEnvPrefix("STRATA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range envKeys {
		_ = viper.BindEnv(key)
	}

	err := viper.ReadInConfig()

	setupLogging(viper.GetBool("verbose"))

	if err == nil && viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setupLogging routes library logs to stderr; debug only in verbose mode
func setupLogging(debug bool) {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
