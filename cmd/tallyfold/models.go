package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tallyfold/tallyfold/internal/common"
	"github.com/tallyfold/tallyfold/internal/llm"
)

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models available on the LLM backend",
		RunE:  runModels,
	}
}

func runModels(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), connectTimeout)
	defer cancel()

	client, err := llm.NewClient(llmConfig())
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}

	if !client.CheckConnection(ctx) {
		return common.NewUserError("LLM backend unreachable", common.ErrBackendUnavailable)
	}

	models, err := client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	if len(models) == 0 {
		fmt.Println("No models available")
		return nil
	}
	for _, name := range models {
		fmt.Println(name)
	}
	return nil
}
