package cmd

import (
	"errors"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/salary-evaluator/internal/profile"
)

const (
	app       = "salary-evaluator"
	envPrefix = "SALARY_EVALUATOR"
)

type Config struct {
	Profile  string            `mapstructure:"profile"`
	Profiles []profile.Profile `mapstructure:"profiles"`
	Scoring  *ScoringConfig    `mapstructure:"scoring"`
	Equity   *EquityConfig     `mapstructure:"equity"`
	Budget   *BudgetConfig     `mapstructure:"budget"`
	Batch    *BatchConfig      `mapstructure:"batch"`
	Output   *OutputConfig     `mapstructure:"output"`
}

type ScoringConfig struct {
	Extractor string        `mapstructure:"extractor"`
	Gemini    *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type EquityConfig struct {
	Policy    string `mapstructure:"policy"`
	Peers     string `mapstructure:"peers"`
	Sheet     string `mapstructure:"sheet"`
	URL       string `mapstructure:"url"`
	TokenFile string `mapstructure:"token-file"`
}

type BudgetConfig struct {
	// Ceiling is kept as text so amounts like "$85,000" survive.
	Ceiling string `mapstructure:"ceiling"`
}

type BatchConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

type OutputConfig struct {
	Format string `mapstructure:"format"`
	Dump   bool   `mapstructure:"dump"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "salary-evaluator scores candidates, places them on the step scale and checks pay equity and budget",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	for key, env := range map[string]string{
		"scoring.gemini.api-key-file": "GEMINI_API_KEY_FILE",
		"equity.token-file":           envPrefix + "_PEERS_TOKEN_FILE",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is salary-evaluator.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().StringP("profile", "p", "", "policy profile to evaluate with (default is standard)")

	rootCmd.PersistentFlags().String("extractor", "", "score extractor: manual, keyword or gemini (default is manual)")
	rootCmd.PersistentFlags().String("policy", "", "equity placement policy: thirds or manual (default is thirds)")
	rootCmd.PersistentFlags().String("peers", "", "peer table file (csv, xlsx, yaml or json)")
	rootCmd.PersistentFlags().String("sheet", "", "worksheet of an xlsx peer table (default is the first one)")
	rootCmd.PersistentFlags().String("peers-url", "", "url to fetch the peer table from")
	rootCmd.PersistentFlags().String("ceiling", "", "approved budget ceiling")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output format: text, json or yaml (default is text)")
	rootCmd.PersistentFlags().Bool("dump", false, "also dump summaries to a temp json file")

	for key, flag := range map[string]string{
		"debug":             "debug",
		"json":              "json",
		"profile":           "profile",
		"scoring.extractor": "extractor",
		"equity.policy":     "policy",
		"equity.peers":      "peers",
		"equity.sheet":      "sheet",
		"equity.url":        "peers-url",
		"budget.ceiling":    "ceiling",
		"output.format":     "output",
		"output.dump":       "dump",
	} {
		viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag))
	}
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional, but a broken one is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}
	if config.Scoring == nil {
		config.Scoring = &ScoringConfig{}
	}
	if config.Scoring.Gemini == nil {
		config.Scoring.Gemini = &GeminiConfig{}
	}
	if config.Equity == nil {
		config.Equity = &EquityConfig{}
	}
	if config.Budget == nil {
		config.Budget = &BudgetConfig{}
	}
	if config.Batch == nil {
		config.Batch = &BatchConfig{}
	}
	if config.Output == nil {
		config.Output = &OutputConfig{}
	}

	return config, nil
}
