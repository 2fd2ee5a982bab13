package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/talent-scorer/internal/ai/ollama"
	"github.com/spigell/talent-scorer/internal/artifacts"
	"github.com/spigell/talent-scorer/internal/notify"
	"github.com/spigell/talent-scorer/internal/store"
)

const (
	app       = "talent-scorer"
	envPrefix = "TALENT_SCORER"
)

type Config struct {
	Storage   *StorageConfig   `mapstructure:"storage"`
	Artifacts *ArtifactsConfig `mapstructure:"artifacts"`
	AI        *AIConfig        `mapstructure:"ai"`
	Mail      *MailConfig      `mapstructure:"mail"`
}

type StorageConfig struct {
	Driver          string `mapstructure:"driver"`
	Path            string `mapstructure:"path"`
	DatabaseURL     string `mapstructure:"database-url"`
	DatabaseURLFile string `mapstructure:"database-url-file"`
}

type ArtifactsConfig struct {
	ParsedDir  string `mapstructure:"parsed-dir"`
	ResultsDir string `mapstructure:"results-dir"`
}

type AIConfig struct {
	Provider          string                `mapstructure:"provider"`
	Timeout           time.Duration         `mapstructure:"timeout"`
	RequestsPerMinute int                   `mapstructure:"requests-per-minute"`
	MaxLogLength      int                   `mapstructure:"max-log-length"`
	CircuitBreaker    *CircuitBreakerConfig `mapstructure:"circuit-breaker"`
	Gemini            *GeminiConfig         `mapstructure:"gemini"`
	Ollama            *OllamaConfig         `mapstructure:"ollama"`
}

type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"max-requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MinRequests      uint32        `mapstructure:"min-requests"`
	FailureThreshold float64       `mapstructure:"failure-threshold"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

type OllamaConfig struct {
	URL   string `mapstructure:"url"`
	Model string `mapstructure:"model"`
}

type MailConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	PasswordFile string `mapstructure:"password-file"`
	From         string `mapstructure:"from"`
	PlainText    bool   `mapstructure:"plain-text"`
	HRName       string `mapstructure:"hr-name"`
	CalendlyLink string `mapstructure:"calendly-link"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "talent-scorer builds requirement profiles for a job and ranks candidate resumes against them",
	}
)

// Execute executes the root command. An interrupt cancels the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is talent-scorer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if versionCmd.CalledAs() != "" {
		return
	}

	// We can't proceed if the config file parsed with error.
	if err := readConfig(viper.GetViper(), cfgFile); err != nil {
		log.Fatal(err)
	}
}

// readConfig registers defaults and env bindings and reads the config file. Without an
// explicit file a missing talent-scorer.yaml is not an error.
func readConfig(v *viper.Viper, file string) error {
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		return v.ReadInConfig()
	}

	v.AddConfigPath(".")
	v.SetConfigName(app)
	v.SetConfigType("yaml")

	var notFound viper.ConfigFileNotFoundError
	if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return err
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.driver", store.DriverFile)
	v.SetDefault("storage.path", store.DefaultPath)
	v.SetDefault("storage.database-url", "")
	v.SetDefault("storage.database-url-file", "")

	v.SetDefault("artifacts.parsed-dir", artifacts.DefaultParsedDir)
	v.SetDefault("artifacts.results-dir", artifacts.DefaultResultsDir)

	v.SetDefault("ai.provider", providerOllama)
	v.SetDefault("ai.timeout", 2*time.Minute)
	v.SetDefault("ai.requests-per-minute", 0)
	v.SetDefault("ai.max-log-length", 200)
	v.SetDefault("ai.circuit-breaker.enabled", true)
	v.SetDefault("ai.circuit-breaker.max-requests", 1)
	v.SetDefault("ai.circuit-breaker.interval", time.Minute)
	v.SetDefault("ai.circuit-breaker.timeout", 30*time.Second)
	v.SetDefault("ai.circuit-breaker.min-requests", 3)
	v.SetDefault("ai.circuit-breaker.failure-threshold", 0.6)
	v.SetDefault("ai.gemini.api-key", "")
	v.SetDefault("ai.gemini.api-key-file", "")
	v.SetDefault("ai.gemini.model", "gemini-2.5-pro")
	v.SetDefault("ai.ollama.url", ollama.DefaultURL)
	v.SetDefault("ai.ollama.model", ollama.DefaultModel)

	v.SetDefault("mail.host", notify.DefaultSMTPHost)
	v.SetDefault("mail.port", notify.DefaultSMTPPort)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.password-file", "")
	v.SetDefault("mail.from", "")
	v.SetDefault("mail.plain-text", false)
	v.SetDefault("mail.hr-name", "")
	v.SetDefault("mail.calendly-link", "")
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if config == nil || config.Storage == nil || config.Artifacts == nil || config.AI == nil || config.Mail == nil {
		return nil, errors.New("config is incomplete")
	}
	return config, nil
}
