package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperjump/kotae/internal/cli"
	"github.com/hyperjump/kotae/internal/models"
)

var (
	askUser string
	askFile string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question, optionally grounded in a document",
	Long: `Runs one question through the pipeline without the web server.
With --file the document is ingested into the user's store first and the answer is
grounded in the retrieved chunks; without it the model answers from its own knowledge.
The question is all remaining arguments joined by spaces.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askUser, "user", "u", "", "user whose store to use (required)")
	askCmd.Flags().StringVarP(&askFile, "file", "f", "", "document to ground the answer in")
	_ = askCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	req := &models.AskRequest{User: askUser, Question: strings.Join(args, " ")}
	if askFile != "" {
		text, err := components.Extractor.Extract(askFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", askFile, err)
		}
		req.Document = text
	}

	answer, err := components.Pipeline.Process(ctx, req)
	if err != nil {
		return err
	}
	return cli.WriteAnswer(cmd.OutOrStdout(), answer, outputFormat())
}
