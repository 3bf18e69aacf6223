// Package classifier implements the transaction classification engine.
// Every transaction takes one of two paths: a deterministic rule table
// match, or a fallback chat completion against the configured LLM backend
// whose output is parsed defensively. Every public operation is total —
// backend faults degrade to a low-confidence "other" result instead of
// surfacing as errors.
package classifier

import (
	"context"
	"log/slog"
	"time"

	"github.com/tallyfold/tallyfold/internal/common"
	"github.com/tallyfold/tallyfold/internal/llm"
	"github.com/tallyfold/tallyfold/internal/model"
	"github.com/tallyfold/tallyfold/internal/rules"
)

// DefaultBatchSize bounds the number of transactions embedded in a single
// batch prompt when the caller does not override it.
const DefaultBatchSize = 15

// Classifier assigns spending categories to transaction descriptions.
// It holds no mutable state: a single instance may be shared across
// goroutines as long as the backend client is concurrency-safe.
type Classifier struct {
	client      llm.Client
	matcher     *rules.Matcher
	limiter     *rateLimiter
	logger      *slog.Logger
	categorySet map[string]struct{}
	categories  []string
	retryOpts   common.RetryOptions
	batchSize   int
}

// Config holds construction-time configuration for the classifier.
type Config struct {
	// Categories is the allowed category set. "other" is implicitly
	// always allowed and acts as the universal fallback.
	Categories []string
	// Rules is the ordered rule table; order determines match priority.
	Rules []model.Rule
	// BatchSize is the default chunk size for ClassifyBatchLLM.
	BatchSize int
	// MaxRetries and RetryDelay configure backoff around backend calls.
	MaxRetries int
	RetryDelay time.Duration
	// RateLimit is the maximum backend requests per minute.
	RateLimit int
}

// New creates a classifier over the given backend.
func New(client llm.Client, cfg Config, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	categorySet := make(map[string]struct{}, len(cfg.Categories)+1)
	for _, cat := range cfg.Categories {
		categorySet[cat] = struct{}{}
	}
	categorySet[model.CategoryOther] = struct{}{}

	retryOpts := common.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 2
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &Classifier{
		client:      client,
		matcher:     rules.NewMatcher(cfg.Rules),
		categories:  append([]string(nil), cfg.Categories...),
		categorySet: categorySet,
		batchSize:   batchSize,
		retryOpts:   retryOpts,
		limiter:     newRateLimiter(cfg.RateLimit),
		logger:      logger,
	}
}

// Close releases background resources.
func (c *Classifier) Close() error {
	if c.limiter != nil {
		c.limiter.Close()
	}
	return nil
}

// Categories returns the configured category set.
func (c *Classifier) Categories() []string {
	return append([]string(nil), c.categories...)
}

// ClassifyRulesOnly runs only the rule table. It returns nil when no rule
// matches. The amount is accepted for interface symmetry with the LLM
// path but plays no part in rule matching.
func (c *Classifier) ClassifyRulesOnly(_ context.Context, description string, _ float64) *model.ClassificationResult {
	category, ok := c.matcher.Match(description)
	if !ok {
		return nil
	}
	return &model.ClassificationResult{
		Category:   category,
		Confidence: model.ConfidenceHigh,
	}
}

// Classify assigns a category to a single transaction: rules first, then
// the backend. It never returns an error; backend faults yield the
// default low-confidence result.
func (c *Classifier) Classify(ctx context.Context, description string, amount float64) model.ClassificationResult {
	if category, ok := c.matcher.Match(description); ok {
		c.logger.Debug("transaction classified by rule",
			"description", description,
			"category", category)
		return model.ClassificationResult{
			Category:   category,
			Confidence: model.ConfidenceHigh,
		}
	}

	prompt := c.buildPrompt(description, amount)

	content, err := c.complete(ctx, prompt)
	if err != nil {
		c.logger.Warn("backend classification failed, using default",
			"description", description,
			"error", err)
		return model.DefaultResult()
	}

	result := c.parseResponse(content)

	c.logger.Debug("transaction classified by backend",
		"description", description,
		"category", result.Category,
		"confidence", result.Confidence)

	return result
}

// ClassifyBatch classifies each transaction independently: rules first,
// with a per-item backend fallback. Output order and length mirror the
// input exactly.
func (c *Classifier) ClassifyBatch(ctx context.Context, txns []model.ClassifyInput) []model.ClassificationResult {
	results := make([]model.ClassificationResult, len(txns))
	for i, txn := range txns {
		results[i] = c.Classify(ctx, txn.Description, txn.Amount)
	}
	return results
}

// ClassifyBatchLLM routes every transaction through the backend, skipping
// the rule table. Transactions are sent in chunks of at most batchSize
// (0 selects the configured default) to bound prompt size; one backend
// call per chunk. A failed chunk yields defaults for its own items only.
// The returned slice always has exactly len(txns) elements, in input
// order.
func (c *Classifier) ClassifyBatchLLM(ctx context.Context, txns []model.ClassifyInput, batchSize int) []model.ClassificationResult {
	if len(txns) == 0 {
		return []model.ClassificationResult{}
	}
	if batchSize <= 0 {
		batchSize = c.batchSize
	}

	results := make([]model.ClassificationResult, 0, len(txns))

	for start := 0; start < len(txns); start += batchSize {
		end := start + batchSize
		if end > len(txns) {
			end = len(txns)
		}
		chunk := txns[start:end]

		content, err := c.complete(ctx, c.buildBatchPrompt(chunk))
		if err != nil {
			c.logger.Warn("batch chunk failed, using defaults",
				"chunk_start", start,
				"chunk_size", len(chunk),
				"error", err)
			for range chunk {
				results = append(results, model.DefaultResult())
			}
			continue
		}

		results = append(results, c.parseBatchResponse(content, len(chunk))...)
	}

	c.logger.Info("batch classification complete",
		"transactions", len(txns),
		"chunks", (len(txns)+batchSize-1)/batchSize)

	return results
}

// complete performs one rate-limited, retried chat completion and returns
// the raw response text.
func (c *Classifier) complete(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.wait(ctx); err != nil {
		return "", err
	}

	var content string
	err := common.WithRetry(ctx, func() error {
		resp, err := c.client.ChatCompletion(ctx, prompt)
		if err != nil {
			return &common.RetryableError{Err: err, Retryable: true}
		}
		content = resp.Content
		return nil
	}, c.retryOpts)

	return content, err
}

// CheckConnection reports backend reachability. It never fails: any
// probe error reads as "not connected".
func (c *Classifier) CheckConnection(ctx context.Context) bool {
	return c.client.CheckConnection(ctx)
}

// AvailableModels returns the backend's model names, or an empty slice
// when the probe fails.
func (c *Classifier) AvailableModels(ctx context.Context) []string {
	models, err := c.client.ListModels(ctx)
	if err != nil {
		c.logger.Warn("failed to list backend models", "error", err)
		return []string{}
	}
	if models == nil {
		return []string{}
	}
	return models
}
