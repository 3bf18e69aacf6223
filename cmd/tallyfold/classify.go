package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tallyfold/tallyfold/internal/common"
	"github.com/tallyfold/tallyfold/internal/model"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify [description...]",
		Short: "Categorize a transaction description",
		Long: `Categorize a transaction description using the rule table, falling
back to the LLM backend when no rule matches.

Examples:
  tallyfold classify "POS Purchase Woolworths Food"
  tallyfold classify --amount -85.40 "POS Purchase Woolworths Food"
  tallyfold classify --rules-only "ATM Withdrawal"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runClassify,
	}

	cmd.Flags().Float64P("amount", "a", 0, "transaction amount (negative = money out)")
	cmd.Flags().Bool("rules-only", false, "skip the LLM fallback")
	cmd.Flags().Bool("json", false, "print the result as JSON")

	_ = viper.BindPFlag("classification.amount", cmd.Flags().Lookup("amount"))
	_ = viper.BindPFlag("classification.rules_only", cmd.Flags().Lookup("rules-only"))
	_ = viper.BindPFlag("classification.json", cmd.Flags().Lookup("json"))

	cmd.AddCommand(classifyBatchCmd())
	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	description := strings.Join(args, " ")
	amount := viper.GetFloat64("classification.amount")
	rulesOnly := viper.GetBool("classification.rules_only")
	asJSON := viper.GetBool("classification.json")

	clf, _, err := newClassifier()
	if err != nil {
		return err
	}
	defer func() { _ = clf.Close() }()

	var result model.ClassificationResult
	if rulesOnly {
		match := clf.ClassifyRulesOnly(ctx, description, amount)
		if match == nil {
			return common.NewUserError(fmt.Sprintf("no rule matches %q", description), nil)
		}
		result = *match
	} else {
		result = clf.Classify(ctx, description, amount)
	}

	if asJSON {
		return printJSON(result)
	}

	recipient := "-"
	if result.RecipientOrPayer != nil {
		recipient = *result.RecipientOrPayer
	}
	fmt.Printf("Category:   %s\n", result.Category)
	fmt.Printf("Recipient:  %s\n", recipient)
	fmt.Printf("Confidence: %s\n", result.Confidence)
	return nil
}

func classifyBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Categorize transactions from a JSON file",
		Long: `Categorize a file of transactions. The file is a JSON array of
{"description": "...", "amount": ...} objects. Results are printed as a
JSON array in input order.

Examples:
  tallyfold classify batch --file transactions.json
  tallyfold classify batch --file transactions.json --llm-only --batch-size 20`,
		RunE: runClassifyBatch,
	}

	cmd.Flags().StringP("file", "f", "", "JSON file of transactions to classify")
	cmd.Flags().Bool("llm-only", false, "send everything to the LLM in batched prompts, skipping rules")
	cmd.Flags().Int("batch-size", 0, "transactions per LLM prompt (default 15)")
	_ = cmd.MarkFlagRequired("file")

	_ = viper.BindPFlag("classification.batch_file", cmd.Flags().Lookup("file"))
	_ = viper.BindPFlag("classification.llm_only", cmd.Flags().Lookup("llm-only"))
	_ = viper.BindPFlag("classification.batch_size_flag", cmd.Flags().Lookup("batch-size"))

	return cmd
}

func runClassifyBatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	file := viper.GetString("classification.batch_file")
	llmOnly := viper.GetBool("classification.llm_only")
	batchSize := viper.GetInt("classification.batch_size_flag")

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}

	var inputs []model.ClassifyInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		return fmt.Errorf("failed to parse %s: %w", file, err)
	}
	if len(inputs) == 0 {
		return printJSON([]model.ClassificationResult{})
	}

	clf, _, err := newClassifier()
	if err != nil {
		return err
	}
	defer func() { _ = clf.Close() }()

	slog.Info("Classifying transactions", "count", len(inputs), "llm_only", llmOnly)

	var results []model.ClassificationResult
	if llmOnly {
		results = clf.ClassifyBatchLLM(ctx, inputs, batchSize)
	} else {
		bar := progressbar.NewOptions(len(inputs),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("Classifying transactions..."),
		)

		results = make([]model.ClassificationResult, 0, len(inputs))
		for _, input := range inputs {
			results = append(results, clf.Classify(ctx, input.Description, input.Amount))
			_ = bar.Add(1)
		}
		fmt.Fprintln(os.Stderr)
	}

	return printJSON(results)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
