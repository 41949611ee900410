package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/pr-pathways/internal/criteria"
)

const (
	app       = "pr-pathways"
	envPrefix = "PR_PATHWAYS"
)

type Config struct {
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Evaluation EvaluationConfig `mapstructure:"evaluation"`
	Scoring    ScoringConfig    `mapstructure:"scoring"`
	Server     ServerConfig     `mapstructure:"server"`
}

type CatalogConfig struct {
	// Path to a JSON or YAML catalog. Empty selects the embedded catalog.
	Path          string        `mapstructure:"path"`
	Strict        bool          `mapstructure:"strict"`
	Watch         bool          `mapstructure:"watch"`
	WatchDebounce time.Duration `mapstructure:"watch-debounce"`
}

type EvaluationConfig struct {
	EducationPolicy string `mapstructure:"education-policy"`
}

type ScoringConfig struct {
	Table    string `mapstructure:"table"`
	FSWTable string `mapstructure:"fsw-table"`
}

type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	APIKey       string        `mapstructure:"api-key"`
	APIKeyFile   string        `mapstructure:"api-key-file"`
	ReadTimeout  time.Duration `mapstructure:"read-timeout"`
	WriteTimeout time.Duration `mapstructure:"write-timeout"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "pr-pathways checks eligibility for Canadian permanent residence programs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute executes the root command. Cancelling ctx stops long running
// commands such as serve.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is pr-pathways.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("catalog", "", "catalog file (json or yaml); the embedded catalog is used when empty")
	rootCmd.PersistentFlags().String("education-policy", string(criteria.FailClosed), "how to treat education wording that cannot be compared: fail-closed or pass-with-warning")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("catalog.path", rootCmd.PersistentFlags().Lookup("catalog"))
	viper.BindPFlag("evaluation.education-policy", rootCmd.PersistentFlags().Lookup("education-policy"))

	setDefaults()
}

func setDefaults() {
	viper.SetDefault("catalog.path", "")
	viper.SetDefault("catalog.strict", false)
	viper.SetDefault("catalog.watch", false)
	viper.SetDefault("catalog.watch-debounce", 500*time.Millisecond)
	viper.SetDefault("evaluation.education-policy", string(criteria.FailClosed))
	viper.SetDefault("scoring.table", "")
	viper.SetDefault("scoring.fsw-table", "")
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("server.api-key", "")
	viper.SetDefault("server.api-key-file", "")
	viper.SetDefault("server.read-timeout", 15*time.Second)
	viper.SetDefault("server.write-timeout", 15*time.Second)
}

func initConfig() {
	// A missing .env is fine; a broken one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			log.Fatal(err)
		}
		return
	}

	viper.AddConfigPath(".")
	viper.SetConfigName(app)
	viper.SetConfigType("yaml")

	// The config file is optional; flags, env and defaults cover every key.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks values that viper cannot type-check.
func (c *Config) Validate() error {
	if _, err := criteria.ParseEducationPolicy(c.Evaluation.EducationPolicy); err != nil {
		return fmt.Errorf("evaluation.education-policy: %w", err)
	}
	if c.Catalog.WatchDebounce < 0 {
		return fmt.Errorf("catalog.watch-debounce must not be negative")
	}
	if c.Catalog.Watch && c.Catalog.Path == "" {
		return fmt.Errorf("catalog.watch needs catalog.path; the embedded catalog cannot change")
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server timeouts must not be negative")
	}
	if strings.TrimSpace(c.Server.Address) == "" {
		return fmt.Errorf("server.address is required")
	}
	return nil
}
