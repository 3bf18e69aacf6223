package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/tallyfold/tallyfold/internal/classifier"
	"github.com/tallyfold/tallyfold/internal/llm"
	"github.com/tallyfold/tallyfold/internal/model"
	"github.com/tallyfold/tallyfold/internal/storage"
)

// defaultCategories is used when the config file does not define any.
var defaultCategories = []string{
	"groceries", "fuel", "dining", "utilities", "rent",
	"medical", "salary", "subscriptions", "transfers", "other",
}

func llmConfig() llm.Config {
	return llm.Config{
		Provider:    viper.GetString("llm.provider"),
		Host:        viper.GetString("llm.host"),
		Port:        viper.GetInt("llm.port"),
		APIKey:      viper.GetString("llm.api_key"),
		Model:       viper.GetString("llm.model"),
		Temperature: viper.GetFloat64("llm.temperature"),
		MaxTokens:   viper.GetInt("llm.max_tokens"),
		Timeout:     viper.GetDuration("llm.timeout"),
	}
}

func classifierConfig() (classifier.Config, error) {
	categories := viper.GetStringSlice("classification.categories")
	if len(categories) == 0 {
		categories = defaultCategories
	}

	// UnmarshalKey preserves rule order from the config file, which
	// determines match priority.
	var ruleTable []model.Rule
	if err := viper.UnmarshalKey("rules", &ruleTable); err != nil {
		return classifier.Config{}, fmt.Errorf("failed to parse rules: %w", err)
	}

	return classifier.Config{
		Categories: categories,
		Rules:      ruleTable,
		BatchSize:  viper.GetInt("classification.batch_size"),
		MaxRetries: viper.GetInt("classification.max_retries"),
		RetryDelay: viper.GetDuration("classification.retry_delay"),
		RateLimit:  viper.GetInt("classification.rate_limit"),
	}, nil
}

func newClassifier() (*classifier.Classifier, llm.Client, error) {
	client, err := llm.NewClient(llmConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	cfg, err := classifierConfig()
	if err != nil {
		return nil, nil, err
	}

	return classifier.New(client, cfg, slog.Default()), client, nil
}

// initStorage opens the configured database and applies migrations.
func initStorage(ctx context.Context) (*storage.Store, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".local", "share", "tallyfold", "tallyfold.db")
	}

	store, err := storage.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// connectTimeout bounds quick connectivity probes.
const connectTimeout = 10 * time.Second
