package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/talent-scorer/internal/ai"
	"github.com/spigell/talent-scorer/internal/ai/gemini"
	"github.com/spigell/talent-scorer/internal/ai/ollama"
	"github.com/spigell/talent-scorer/internal/artifacts"
	"github.com/spigell/talent-scorer/internal/logger"
	"github.com/spigell/talent-scorer/internal/requirements"
	"github.com/spigell/talent-scorer/internal/secrets"
	"github.com/spigell/talent-scorer/internal/store"
)

const (
	providerGemini = "gemini"
	providerOllama = "ollama"

	geminiAPIKeyEnv = "GEMINI_API_KEY"
	databaseURLEnv  = "DATABASE_URL"
	smtpPasswordEnv = "SMTP_PASSWORD"
)

// setup creates the logger and loads the config. Failures are fatal.
func setup() (*zap.Logger, *Config) {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}

	config, err := getConfig()
	if err != nil {
		l.Fatal("failed to load config", zap.Error(err))
	}

	return l, config
}

// newGenerator builds the configured text generator behind the guard. jsonOutput asks
// providers that support it to constrain the response to JSON.
func newGenerator(ctx context.Context, config *AIConfig, model string, jsonOutput bool, l *zap.Logger) (ai.Generator, error) {
	var (
		gen ai.Generator
		err error
	)

	provider := strings.ToLower(strings.TrimSpace(config.Provider))
	switch provider {
	case providerGemini:
		apiKey, kerr := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			File:  config.Gemini.APIKeyFile,
			Value: config.Gemini.APIKey,
			Env:   geminiAPIKeyEnv,
		})
		if kerr != nil {
			return nil, kerr
		}
		gen, err = gemini.NewGenerator(ctx, apiKey, firstModel(model, config.Gemini.Model), config.MaxLogLength, l)
		if err != nil {
			return nil, fmt.Errorf("create gemini generator: %w", err)
		}
	case providerOllama:
		client := ollama.New(config.Ollama.URL, firstModel(model, config.Ollama.Model), config.MaxLogLength, l)
		if jsonOutput {
			client.Format = "json"
		}
		gen = client
	default:
		return nil, fmt.Errorf("unsupported ai provider %q", config.Provider)
	}

	l.Debug("text generator configured", logger.CommonFields(provider, gen.Model())...)

	return ai.Guard(gen, guardOptions(config), l), nil
}

func firstModel(override, configured string) string {
	if override = strings.TrimSpace(override); override != "" {
		return override
	}
	return configured
}

func guardOptions(config *AIConfig) ai.GuardOptions {
	opts := ai.GuardOptions{
		Timeout:           config.Timeout,
		RequestsPerMinute: config.RequestsPerMinute,
	}

	if cb := config.CircuitBreaker; cb != nil && cb.Enabled {
		opts.Breaker = &ai.BreakerOptions{
			MaxRequests:      cb.MaxRequests,
			Interval:         cb.Interval,
			Timeout:          cb.Timeout,
			MinRequests:      cb.MinRequests,
			FailureThreshold: cb.FailureThreshold,
		}
	}

	return opts
}

var openStore = func(ctx context.Context, config *StorageConfig) (store.Store, error) {
	opts := store.Options{Driver: config.Driver, Path: config.Path}

	if strings.EqualFold(strings.TrimSpace(config.Driver), store.DriverPostgres) {
		url, err := secrets.Load(secrets.Source{
			Name:  "database url",
			File:  config.DatabaseURLFile,
			Value: config.DatabaseURL,
			Env:   databaseURLEnv,
		})
		if err != nil {
			return nil, err
		}
		opts.DatabaseURL = url
	}

	return store.Open(ctx, opts)
}

// withStore opens the candidate store, runs fn and closes the store before returning,
// so callers may exit on the returned error.
func withStore(ctx context.Context, config *StorageConfig, fn func(store.Store) error) (err error) {
	st, err := openStore(ctx, config)
	if err != nil {
		return fmt.Errorf("open candidate store: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close candidate store: %w", cerr)
		}
	}()

	return fn(st)
}

func artifactDirs(config *ArtifactsConfig) artifacts.Dirs {
	return artifacts.Dirs{Parsed: config.ParsedDir, Results: config.ResultsDir}
}

func loadProfile(path string, l *zap.Logger) (*requirements.Profile, error) {
	profile, notes, err := requirements.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load requirement profile %s: %w", path, err)
	}
	for _, note := range notes {
		l.Warn("adjusted requirement profile entry", zap.String("path", path), zap.String("note", note))
	}
	return profile, nil
}
