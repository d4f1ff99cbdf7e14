package cmd

import (
	"errors"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "rfp-responder"
)

type Config struct {
	Data    *DataConfig    `mapstructure:"data"`
	Pricing *PricingConfig `mapstructure:"pricing"`
	Judge   *JudgeConfig   `mapstructure:"judge"`
	AI      *AIConfig      `mapstructure:"ai"`
	Server  *ServerConfig  `mapstructure:"server"`
}

type DataConfig struct {
	SKUFile     string `mapstructure:"sku-file"`
	PricingFile string `mapstructure:"pricing-file"`
	RFPDir      string `mapstructure:"rfp-dir"`
}

type PricingConfig struct {
	Currency string `mapstructure:"currency"`
}

type JudgeConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	Concurrency int  `mapstructure:"concurrency"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key" json:"-"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "rfp-responder reads RFP documents, matches their scope to the SKU catalog and prices the result",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	setDefaults()

	envBindings := map[string]string{
		"data.rfp-dir":           "RFP_DATA_DIR",
		"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
	}
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is rfp-responder.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults() {
	viper.SetDefault("data.sku-file", "data/sku/sku.csv")
	viper.SetDefault("data.pricing-file", "data/pricing/pricing.csv")
	viper.SetDefault("data.rfp-dir", "data/rfps")
	viper.SetDefault("pricing.currency", "INR")
	viper.SetDefault("judge.enabled", true)
	viper.SetDefault("judge.concurrency", 1)
	viper.SetDefault("ai.enabled", false)
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.max-retries", 3)
	viper.SetDefault("ai.gemini.max-log-length", 200)
	viper.SetDefault("server.port", 8000)
}

func initConfig() {
	// A missing .env is fine; variables may come from the environment itself.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Defaults are enough to run without a config file, but a broken one is fatal.
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

	return config, nil
}
