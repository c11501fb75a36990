package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdu3/AstarML/internal/model"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=..."
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "astarml",
	Short: "astarml - claim consistency checks over retrieved evidence (non-normative)",
	Long: `astarml extracts configuration-like claims ("key = value") from ranked
evidence passages, groups differently phrased parameter names, and reports
which value for each parameter is best supported and what contradicts it.

Decisions rank support; they do not establish truth.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// ExecuteContext runs the root command; ctx cancels in-flight extraction
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "astarml %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.astarml/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	setDefaults(viper.GetViper(), model.DefaultConfig())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".astarml"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// ASTARML_GRAPH_LAMBDA overrides graph.lambda
	viper.SetEnvPrefix("ASTARML")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every config key so env overrides are visible to Unmarshal
func setDefaults(v *viper.Viper, d *model.Config) {
	v.SetDefault("graph.cluster_threshold", d.Graph.ClusterThreshold)
	v.SetDefault("graph.lambda", d.Graph.Lambda)
	v.SetDefault("graph.top_k", d.Graph.TopK)
	v.SetDefault("graph.top_n", d.Graph.TopN)
	v.SetDefault("graph.normalize_values", d.Graph.NormalizeValues)

	v.SetDefault("scoring.source_weights", d.Scoring.SourceWeights)
	v.SetDefault("scoring.freshness_horizon_days", d.Scoring.FreshnessHorizonDays)

	v.SetDefault("extraction.provider", d.Extraction.Provider)
	v.SetDefault("extraction.model", d.Extraction.Model)
	v.SetDefault("extraction.api_key", "")
	v.SetDefault("extraction.base_url", d.Extraction.BaseURL)
	v.SetDefault("extraction.timeout", d.Extraction.Timeout)
	v.SetDefault("extraction.workers", d.Extraction.Workers)
	v.SetDefault("extraction.requests_per_second", d.Extraction.RequestsPerSecond)
	v.SetDefault("extraction.burst", d.Extraction.Burst)
	v.SetDefault("extraction.max_tokens", d.Extraction.MaxTokens)
	v.SetDefault("extraction.http_proxy", d.Extraction.HTTPProxy)
	v.SetDefault("extraction.https_proxy", d.Extraction.HTTPSProxy)
	v.SetDefault("extraction.no_proxy", d.Extraction.NoProxy)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.memory_ttl", d.Cache.MemoryTTL)
	v.SetDefault("cache.disk_ttl", d.Cache.DiskTTL)
	v.SetDefault("cache.redis_url", d.Cache.RedisURL)

	v.SetDefault("rerank.enabled", d.Rerank.Enabled)
	v.SetDefault("rerank.url", d.Rerank.URL)
	v.SetDefault("rerank.model", d.Rerank.Model)
	v.SetDefault("rerank.top_n", d.Rerank.TopN)
	v.SetDefault("rerank.timeout", d.Rerank.Timeout)

	v.SetDefault("log.mode", d.Log.Mode)
	v.SetDefault("log.text_log", d.Log.TextLog)
	v.SetDefault("log.metrics_file", d.Log.MetricsFile)
}

// loadConfig resolves flags > env > config file > defaults
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
